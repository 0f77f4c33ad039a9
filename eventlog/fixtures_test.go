/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// Test fixtures are built in-memory so the binary layouts under test are
// explicit in the test itself.

func writeUint32(buf *bytes.Buffer, v uint32) {
	binary.Write(buf, binary.LittleEndian, v)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	binary.Write(buf, binary.LittleEndian, v)
}

// writeTcg12Event appends one legacy TCG_PCR_EVENT record.
func writeTcg12Event(buf *bytes.Buffer, pcrIndex uint32, eventType uint32, digest []byte, data []byte) {
	writeUint32(buf, pcrIndex)
	writeUint32(buf, eventType)
	d := make([]byte, Sha1DigestSize)
	copy(d, digest)
	buf.Write(d)
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
}

// writeTcg20Event appends one crypto-agile TCG_PCR_EVENT2 record.
func writeTcg20Event(buf *bytes.Buffer, pcrIndex uint32, eventType uint32, digests []Digest, data []byte) {
	writeUint32(buf, pcrIndex)
	writeUint32(buf, eventType)
	writeUint32(buf, uint32(len(digests)))
	for _, digest := range digests {
		writeUint16(buf, uint16(digest.Algorithm))
		buf.Write(digest.Value)
	}
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
}

// specIDPayload builds a TCG_EfiSpecIDEvent payload declaring the given
// algorithm table.
func specIDPayload(algorithms []AlgorithmSize) []byte {
	buf := bytes.Buffer{}
	buf.WriteString(SpecIDSignature)
	writeUint32(&buf, 0)    // platform class
	buf.WriteByte(0)        // spec version minor
	buf.WriteByte(2)        // spec version major
	buf.WriteByte(0)        // spec errata
	buf.WriteByte(2)        // uintn size
	writeUint32(&buf, uint32(len(algorithms)))
	for _, a := range algorithms {
		writeUint16(&buf, a.AlgorithmID)
		writeUint16(&buf, a.DigestSize)
	}
	buf.WriteByte(0) // vendor info size
	return buf.Bytes()
}

// writeSpecIDHeader appends the legacy-shaped header record announcing a
// crypto-agile log.
func writeSpecIDHeader(buf *bytes.Buffer, algorithms []AlgorithmSize) {
	writeTcg12Event(buf, 0, EvNoAction, make([]byte, Sha1DigestSize), specIDPayload(algorithms))
}

func sha1sha256Algorithms() []AlgorithmSize {
	return []AlgorithmSize{
		{AlgorithmID: uint16(Sha1), DigestSize: Sha1DigestSize},
		{AlgorithmID: uint16(Sha256), DigestSize: Sha256DigestSize},
	}
}

func zeroDigests() []Digest {
	return []Digest{
		{Algorithm: Sha1, Value: make([]byte, Sha1DigestSize)},
		{Algorithm: Sha256, Value: make([]byte, Sha256DigestSize)},
	}
}

// utf16Bytes encodes a string as UTF-16LE without a terminator.
func utf16Bytes(s string) []byte {
	out := []byte{}
	for _, unit := range utf16.Encode([]rune(s)) {
		out = append(out, byte(unit), byte(unit>>8))
	}
	return out
}

// efiVariablePayload builds a UEFI_VARIABLE_DATA payload.
func efiVariablePayload(guid []byte, name string, variableData []byte) []byte {
	buf := bytes.Buffer{}
	buf.Write(guid)
	encodedName := utf16Bytes(name)
	binary.Write(&buf, binary.LittleEndian, uint64(len(encodedName)/2))
	binary.Write(&buf, binary.LittleEndian, uint64(len(variableData)))
	buf.Write(encodedName)
	buf.Write(variableData)
	return buf.Bytes()
}

// testGUIDBytes is the on-disk (mixed-endian) encoding of
// 12345678-1234-5678-9abc-def012345678.
func testGUIDBytes() []byte {
	return []byte{
		0x78, 0x56, 0x34, 0x12,
		0x34, 0x12,
		0x78, 0x56,
		0x9A, 0xBC, 0xDE, 0xF0, 0x12, 0x34, 0x56, 0x78,
	}
}

const testGUIDText = "12345678-1234-5678-9abc-def012345678"

// separatorScenario builds the canonical 2-event crypto-agile fixture: a
// Spec ID header followed by a separator with all-zero sha1 and sha256
// digests.
func separatorScenario(separatorPcr uint32) []byte {
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, separatorPcr, EvSeparator, zeroDigests(), []byte{0x00, 0x00, 0x00, 0x00})
	return buf.Bytes()
}

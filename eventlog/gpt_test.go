/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gptPayload(partitionNames ...string) []byte {
	const entrySize = 128

	buf := bytes.Buffer{}
	buf.WriteString("EFI PART")
	binary.Write(&buf, binary.LittleEndian, uint32(0x00010000)) // revision 1.0
	binary.Write(&buf, binary.LittleEndian, uint32(92))         // header size
	binary.Write(&buf, binary.LittleEndian, uint32(0xAABBCCDD)) // header crc
	binary.Write(&buf, binary.LittleEndian, uint32(0))          // reserved
	binary64(&buf, 1)                                           // MyLBA
	binary64(&buf, 0x1DCF32AF)                                  // AlternateLBA
	binary64(&buf, 34)
	binary64(&buf, 0x1DCF32A5)
	buf.Write(testGUIDBytes())
	binary64(&buf, 2) // partition entry LBA
	binary.Write(&buf, binary.LittleEndian, uint32(128))
	binary.Write(&buf, binary.LittleEndian, uint32(entrySize))
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // entry array crc

	binary64(&buf, uint64(len(partitionNames)))
	for i, name := range partitionNames {
		entry := make([]byte, entrySize)
		copy(entry[0:16], testGUIDBytes())
		copy(entry[16:32], testGUIDBytes())
		binary.LittleEndian.PutUint64(entry[32:], uint64(2048*(i+1)))
		binary.LittleEndian.PutUint64(entry[40:], uint64(2048*(i+2)-1))
		binary.LittleEndian.PutUint64(entry[48:], 0)
		copy(entry[56:], utf16Bytes(name))
		buf.Write(entry)
	}
	return buf.Bytes()
}

func TestDecodeGptEvent(t *testing.T) {
	event := &Event{EventType: EvEfiGptEvent, RawData: gptPayload("EFI System Partition", "rootfs")}

	data, consumed, err := decodeGptEvent(event)
	require.NoError(t, err)
	assert.Equal(t, len(event.RawData), consumed)

	gpt, ok := data.(*GptEventData)
	require.True(t, ok)
	assert.Equal(t, "EFI PART", gpt.Signature)
	assert.Equal(t, uint32(92), gpt.HeaderSize)
	assert.Equal(t, uint64(1), gpt.MyLBA)
	assert.Equal(t, uint64(0x1DCF32AF), gpt.AlternateLBA)
	assert.Equal(t, testGUIDText, gpt.DiskGUID)
	assert.Equal(t, uint64(2), gpt.NumberOfPartitions)

	require.Len(t, gpt.Partitions, 2)
	assert.Equal(t, "EFI System Partition", gpt.Partitions[0].PartitionName)
	assert.Equal(t, uint64(2048), gpt.Partitions[0].StartingLBA)
	assert.Equal(t, "rootfs", gpt.Partitions[1].PartitionName)
	assert.Equal(t, testGUIDText, gpt.Partitions[1].PartitionTypeGUID)
}

func TestDecodeGptEventTruncatedEntry(t *testing.T) {
	payload := gptPayload("rootfs")
	event := &Event{EventType: EvEfiGptEvent, RawData: payload[:len(payload)-10]}

	_, _, err := decodeGptEvent(event)
	assert.Error(t, err)
}

func TestDecodeGptEventBadEntrySize(t *testing.T) {
	payload := gptPayload()
	// SizeOfPartitionEntry lives at offset 84 of the UEFI_GPT_DATA blob
	binary.LittleEndian.PutUint32(payload[84:], 40)

	event := &Event{EventType: EvEfiGptEvent, RawData: payload}
	_, _, err := decodeGptEvent(event)
	assert.Error(t, err)
}

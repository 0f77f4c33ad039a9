/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyBufferIsTruncated(t *testing.T) {
	_, err := ParseEventLog(nil)
	require.Error(t, err)
	assert.Equal(t, ErrTruncatedLog, errors.Cause(err))

	_, err = ParseEventLog([]byte{})
	require.Error(t, err)
	assert.Equal(t, ErrTruncatedLog, errors.Cause(err))
}

func TestParseTruncatedMidRecordIsFatal(t *testing.T) {
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, 0, EvSeparator, zeroDigests(), []byte{0x00, 0x00, 0x00, 0x00})
	full := buf.Bytes()

	// chop the last record anywhere mid-record and the whole decode fails
	for _, cut := range []int{1, 5, 20, len(full) - 1} {
		_, err := ParseEventLog(full[:len(full)-cut])
		require.Errorf(t, err, "cut %d bytes", cut)
		assert.Equal(t, ErrTruncatedLog, errors.Cause(err))
	}
}

func TestParseLegacyLog(t *testing.T) {
	digest := bytes.Repeat([]byte{0xAB}, Sha1DigestSize)
	buf := bytes.Buffer{}
	writeTcg12Event(&buf, 0, EvSCrtmVersion, digest, []byte("1.0"))
	writeTcg12Event(&buf, 0, EvSeparator, digest, []byte{0x00, 0x00, 0x00, 0x00})

	eventLog, err := ParseEventLog(buf.Bytes())
	require.NoError(t, err)

	assert.False(t, eventLog.CryptoAgile)
	assert.Equal(t, "1.2", eventLog.SpecVersion)
	assert.Nil(t, eventLog.Algorithms)
	require.Len(t, eventLog.Events, 2)

	// every legacy event carries exactly one 20-byte sha1 digest
	for _, event := range eventLog.Events {
		require.Len(t, event.Digests, 1)
		assert.Equal(t, Sha1, event.Digests[0].Algorithm)
		assert.Len(t, event.Digests[0].Value, Sha1DigestSize)
	}
}

func TestParseCryptoAgileSeparatorScenario(t *testing.T) {
	eventLog, err := ParseEventLog(separatorScenario(7))
	require.NoError(t, err)

	assert.True(t, eventLog.CryptoAgile)
	assert.Equal(t, "2.0", eventLog.SpecVersion)
	require.Len(t, eventLog.Events, 2)
	assert.Empty(t, eventLog.Warnings)

	header := eventLog.Events[0]
	assert.Equal(t, 0, header.EventNum)
	specID, ok := header.Data.(*SpecIDEventData)
	require.True(t, ok, "header payload should be a Spec ID event")
	assert.Equal(t, uint32(2), specID.NumberOfAlgorithms)

	separator := eventLog.Events[1]
	assert.Equal(t, 1, separator.EventNum)
	assert.Equal(t, uint32(7), separator.PcrIndex)
	require.Len(t, separator.Digests, 2)
	_, ok = separator.Data.(*SeparatorEventData)
	assert.True(t, ok, "payload should decode as a separator")

	// digest lengths match the declared algorithm table
	assert.Len(t, separator.DigestFor(Sha1), Sha1DigestSize)
	assert.Len(t, separator.DigestFor(Sha256), Sha256DigestSize)
}

func TestParseCryptoAgileDigestSubset(t *testing.T) {
	// events citing only one of the declared banks are valid
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, 4, EvSeparator,
		[]Digest{{Algorithm: Sha256, Value: make([]byte, Sha256DigestSize)}},
		[]byte{0x00, 0x00, 0x00, 0x00})

	eventLog, err := ParseEventLog(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, eventLog.Events, 2)
	assert.Nil(t, eventLog.Events[1].DigestFor(Sha1))
	assert.NotNil(t, eventLog.Events[1].DigestFor(Sha256))
}

func TestParseUnknownAlgorithmInHeaderIsFatal(t *testing.T) {
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, []AlgorithmSize{
		{AlgorithmID: uint16(Sha1), DigestSize: Sha1DigestSize},
		{AlgorithmID: 0xd, DigestSize: 64}, // sha512, outside the supported set
	})

	_, err := ParseEventLog(buf.Bytes())
	require.Error(t, err)

	var unknownAlg *UnknownAlgorithmError
	require.True(t, errors.As(err, &unknownAlg))
	assert.Equal(t, uint16(0xd), unknownAlg.AlgorithmID)
}

func TestParseUnknownAlgorithmInEventIsFatal(t *testing.T) {
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, 0, EvSeparator,
		[]Digest{{Algorithm: DigestAlgorithm(0x12), Value: make([]byte, 32)}}, // sm3-256
		[]byte{0x00, 0x00, 0x00, 0x00})

	_, err := ParseEventLog(buf.Bytes())
	require.Error(t, err)

	var unknownAlg *UnknownAlgorithmError
	require.True(t, errors.As(err, &unknownAlg))
	assert.Equal(t, uint16(0x12), unknownAlg.AlgorithmID)
}

func TestParseUnknownEventTypeFallsBack(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, 3, 0x0000F00D, zeroDigests(), payload)

	eventLog, err := ParseEventLog(buf.Bytes())
	require.NoError(t, err)

	event := eventLog.Events[1]
	unknown, ok := event.Data.(*UnknownEventData)
	require.True(t, ok)
	assert.Equal(t, payload, unknown.Data)
	assert.Equal(t, "0x0000f00d", event.TypeName())
}

func TestParseDeterministicSerialization(t *testing.T) {
	raw := separatorScenario(0)

	first, err := ParseEventLog(raw)
	require.NoError(t, err)
	second, err := ParseEventLog(raw)
	require.NoError(t, err)

	out1, err := json.Marshal(first)
	require.NoError(t, err)
	out2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestParseStrictMode(t *testing.T) {
	// a separator measuring a non-sentinel value decodes fine by default
	buf := bytes.Buffer{}
	writeSpecIDHeader(&buf, sha1sha256Algorithms())
	writeTcg20Event(&buf, 0, EvSeparator, zeroDigests(), []byte{0x01, 0x02, 0x03, 0x04})

	eventLog, err := ParseEventLog(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, eventLog.Warnings, 1)
	assert.Equal(t, WarnSeparatorValue, eventLog.Warnings[0].Code)

	// strict mode promotes the warning to an error
	_, err = ParseEventLogWithOptions(buf.Bytes(), ParseOptions{Strict: true})
	assert.Error(t, err)
}

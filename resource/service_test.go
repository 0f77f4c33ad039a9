/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package resource

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/open-attestation/go-eventlog-service/config"
	"github.com/open-attestation/go-eventlog-service/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *config.EventLogServiceConfiguration {
	cfg := config.EventLogServiceConfiguration{}
	cfg.LogLevel = "trace"
	cfg.WebService.Port = 8450
	return &cfg
}

// testEventLog builds a minimal crypto-agile log: the Spec ID header
// declaring sha1+sha256 and one separator event.
func testEventLog() []byte {
	buf := bytes.Buffer{}

	specID := bytes.Buffer{}
	specID.WriteString("Spec ID Event03\x00")
	binary.Write(&specID, binary.LittleEndian, uint32(0)) // platform class
	specID.Write([]byte{0, 2, 0, 2})                      // version 2.0, errata 0, uintn 2
	binary.Write(&specID, binary.LittleEndian, uint32(2))
	binary.Write(&specID, binary.LittleEndian, uint16(0x4)) // sha1
	binary.Write(&specID, binary.LittleEndian, uint16(20))
	binary.Write(&specID, binary.LittleEndian, uint16(0xb)) // sha256
	binary.Write(&specID, binary.LittleEndian, uint16(32))
	specID.WriteByte(0) // vendor info size

	// header record in the legacy layout
	binary.Write(&buf, binary.LittleEndian, uint32(0))   // pcr index
	binary.Write(&buf, binary.LittleEndian, uint32(0x3)) // EV_NO_ACTION
	buf.Write(make([]byte, 20))
	binary.Write(&buf, binary.LittleEndian, uint32(specID.Len()))
	buf.Write(specID.Bytes())

	// separator with all-zero digests in both banks
	binary.Write(&buf, binary.LittleEndian, uint32(7))
	binary.Write(&buf, binary.LittleEndian, uint32(0x4)) // EV_SEPARATOR
	binary.Write(&buf, binary.LittleEndian, uint32(2))
	binary.Write(&buf, binary.LittleEndian, uint16(0x4))
	buf.Write(make([]byte, 20))
	binary.Write(&buf, binary.LittleEndian, uint16(0xb))
	buf.Write(make([]byte, 32))
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})

	return buf.Bytes()
}

func postBinary(t *testing.T, service *EventLogService, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	request, err := http.NewRequest("POST", path, bytes.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	service.router.ServeHTTP(recorder, request)
	return recorder
}

func TestPostEventLog(t *testing.T) {
	service, err := CreateEventLogService(createTestConfig())
	require.NoError(t, err)

	recorder := postBinary(t, service, "/v2/host/eventlog", testEventLog(), constants.ContentTypeOctetStream)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, constants.ContentTypeJSON, recorder.Header().Get("Content-Type"))

	var response struct {
		SpecVersion string                   `json:"spec_version"`
		CryptoAgile bool                     `json:"crypto_agile"`
		Events      []map[string]interface{} `json:"events"`
		Warnings    []interface{}            `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	assert.Equal(t, "2.0", response.SpecVersion)
	assert.True(t, response.CryptoAgile)
	assert.Empty(t, response.Warnings)
	require.Len(t, response.Events, 2)
	assert.Equal(t, "EV_SEPARATOR", response.Events[1]["EventType"])
	assert.Equal(t, float64(7), response.Events[1]["PCRIndex"])
}

func TestPostEventLogInvalidContentType(t *testing.T) {
	service, err := CreateEventLogService(createTestConfig())
	require.NoError(t, err)

	recorder := postBinary(t, service, "/v2/host/eventlog", testEventLog(), "application/json")
	assert.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)
}

func TestPostEventLogEmptyBody(t *testing.T) {
	service, err := CreateEventLogService(createTestConfig())
	require.NoError(t, err)

	recorder := postBinary(t, service, "/v2/host/eventlog", nil, constants.ContentTypeOctetStream)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPostEventLogTruncated(t *testing.T) {
	service, err := CreateEventLogService(createTestConfig())
	require.NoError(t, err)

	raw := testEventLog()
	recorder := postBinary(t, service, "/v2/host/eventlog", raw[:len(raw)-3], constants.ContentTypeOctetStream)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPostEventLogPcrs(t *testing.T) {
	service, err := CreateEventLogService(createTestConfig())
	require.NoError(t, err)

	recorder := postBinary(t, service, "/v2/host/eventlog/pcrs", testEventLog(), constants.ContentTypeOctetStream)
	require.Equal(t, http.StatusOK, recorder.Code)

	var banks []struct {
		Bank string   `json:"bank"`
		Pcrs []string `json:"pcrs"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &banks))

	require.Len(t, banks, 2)
	assert.Equal(t, "sha1", banks[0].Bank)
	assert.Equal(t, "sha256", banks[1].Bank)
	require.Len(t, banks[0].Pcrs, 24)

	// the separator extended pcr 7, everything else stays zero
	zero := strings.Repeat("0", 40)
	assert.NotEqual(t, zero, banks[0].Pcrs[7])
	assert.Equal(t, zero, banks[0].Pcrs[0])
}

func TestPostEventLogStrictMode(t *testing.T) {
	cfg := createTestConfig()
	cfg.Decoder.Strict = true
	service, err := CreateEventLogService(cfg)
	require.NoError(t, err)

	// out-of-range pcr index warns, which strict mode turns into a 400.
	// The separator record starts after the 69-byte header record.
	raw := testEventLog()
	binary.LittleEndian.PutUint32(raw[69:], 24)

	recorder := postBinary(t, service, "/v2/host/eventlog", raw, constants.ContentTypeOctetStream)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateServiceRequiresPort(t *testing.T) {
	cfg := createTestConfig()
	cfg.WebService.Port = 0
	_, err := CreateEventLogService(cfg)
	assert.Error(t, err)
}

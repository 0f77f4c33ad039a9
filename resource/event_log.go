/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package resource

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/open-attestation/go-eventlog-service/config"
	"github.com/open-attestation/go-eventlog-service/constants"
	"github.com/open-attestation/go-eventlog-service/eventlog"
	"github.com/pkg/errors"
)

// eventLogResponse is the body of POST /v2/host/eventlog: the decoded
// log metadata, the reference-format event array and the accumulated
// consistency warnings.
type eventLogResponse struct {
	SpecVersion string             `json:"spec_version"`
	CryptoAgile bool               `json:"crypto_agile"`
	Events      *eventlog.EventLog `json:"events"`
	Warnings    []eventlog.Warning `json:"warnings"`
}

// pcrBankResponse is one replayed bank of POST /v2/host/eventlog/pcrs.
type pcrBankResponse struct {
	Bank string   `json:"bank"`
	Pcrs []string `json:"pcrs"`
}

// readEventLogBody validates the request framing and returns the binary
// log buffer.
func readEventLogBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	log.Trace("resource/event_log:readEventLogBody() Entering")
	defer log.Trace("resource/event_log:readEventLogBody() Leaving")

	contentType := r.Header.Get("Content-Type")
	if contentType != constants.ContentTypeOctetStream {
		log.Errorf("resource/event_log:readEventLogBody() %s is not acceptable Content-Type", contentType)
		return nil, &endpointError{Message: "Invalid Content-Type", StatusCode: http.StatusUnsupportedMediaType}
	}

	buf, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxEventLogSize))
	if err != nil {
		log.WithError(err).Error("resource/event_log:readEventLogBody() Error reading the request body")
		return nil, &endpointError{Message: "Error reading request body", StatusCode: http.StatusBadRequest}
	}
	if len(buf) == 0 {
		return nil, &endpointError{Message: "The request body was not provided", StatusCode: http.StatusBadRequest}
	}

	return buf, nil
}

func decodeEventLog(cfg *config.EventLogServiceConfiguration, buf []byte) (*eventlog.EventLog, error) {
	eventLog, err := eventlog.ParseEventLogWithOptions(buf, eventlog.ParseOptions{Strict: cfg.Decoder.Strict})
	if err != nil {
		log.WithError(err).Error("resource/event_log:decodeEventLog() Error parsing the event log")
		return nil, &endpointError{Message: err.Error(), StatusCode: http.StatusBadRequest}
	}
	return eventLog, nil
}

func writeJSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "resource/event_log:writeJSONResponse() There is an error encoding the response")
	}
	return nil
}

// postEventLog handles POST /v2/host/eventlog: a binary TCG log in,
// the decoded reference-format JSON out.
func postEventLog(cfg *config.EventLogServiceConfiguration) endpointHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		log.Trace("resource/event_log:postEventLog() Entering")
		defer log.Trace("resource/event_log:postEventLog() Leaving")

		buf, err := readEventLogBody(w, r)
		if err != nil {
			return err
		}

		eventLog, err := decodeEventLog(cfg, buf)
		if err != nil {
			return err
		}

		warnings := eventLog.Warnings
		if warnings == nil {
			warnings = []eventlog.Warning{}
		}

		return writeJSONResponse(w, eventLogResponse{
			SpecVersion: eventLog.SpecVersion,
			CryptoAgile: eventLog.CryptoAgile,
			Events:      eventLog,
			Warnings:    warnings,
		})
	}
}

// postEventLogPcrs handles POST /v2/host/eventlog/pcrs: a binary TCG
// log in, the replayed virtual PCR banks out.
func postEventLogPcrs(cfg *config.EventLogServiceConfiguration) endpointHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		log.Trace("resource/event_log:postEventLogPcrs() Entering")
		defer log.Trace("resource/event_log:postEventLogPcrs() Leaving")

		buf, err := readEventLogBody(w, r)
		if err != nil {
			return err
		}

		eventLog, err := decodeEventLog(cfg, buf)
		if err != nil {
			return err
		}

		banks, err := eventLog.ReplayAll()
		if err != nil {
			log.WithError(err).Error("resource/event_log:postEventLogPcrs() Error replaying the event log")
			return &endpointError{Message: err.Error(), StatusCode: http.StatusBadRequest}
		}

		response := make([]pcrBankResponse, 0, len(banks))
		for _, bank := range banks {
			pcrs := make([]string, 0, eventlog.PcrCount)
			for i := 0; i < eventlog.PcrCount; i++ {
				pcrs = append(pcrs, bank.Pcr(i))
			}
			response = append(response, pcrBankResponse{Bank: bank.Algorithm.Name(), Pcrs: pcrs})
		}

		return writeJSONResponse(w, response)
	}
}

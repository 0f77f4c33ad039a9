/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// ParseOptions carries per-decode configuration. It is passed explicitly
// into the parse call and never stored in shared state, so concurrent
// decodes of independent logs cannot cross-contaminate.
type ParseOptions struct {
	// Strict promotes any consistency warning to a fatal error
	Strict bool
}

// ParseEventLog decodes a binary TCG measurement log. The first record
// decides between the legacy sha1-only format and the crypto-agile format;
// that single decision governs the byte layout of every subsequent record.
// Truncation mid-record and unsupported digest algorithms abort the whole
// decode; all per-event anomalies degrade gracefully and are reported in
// the Warnings list of the result.
func ParseEventLog(buf []byte) (*EventLog, error) {
	return ParseEventLogWithOptions(buf, ParseOptions{})
}

// ParseEventLogWithOptions is ParseEventLog with explicit options.
func ParseEventLogWithOptions(buf []byte, options ParseOptions) (*EventLog, error) {
	log.Trace("eventlog/event_log:ParseEventLogWithOptions() Entering")
	defer log.Trace("eventlog/event_log:ParseEventLogWithOptions() Leaving")

	r := newReader(buf)
	eventLog := EventLog{}

	// The first record is always shaped like a legacy TCG_PCR_EVENT,
	// even in a crypto-agile log.
	first, err := parseTcg12Event(r, 0)
	if err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:ParseEventLogWithOptions() There is an error parsing the header record")
	}

	if isSpecIDEvent(first.EventType, first.RawData) {
		specID, err := parseSpecIDEvent(first.RawData)
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/event_log:ParseEventLogWithOptions() There is an error parsing the Spec ID event")
		}

		eventLog.CryptoAgile = true
		eventLog.SpecVersion = fmt.Sprintf("%d.%d", specID.SpecVersionMajor, specID.SpecVersionMinor)
		eventLog.Algorithms = specID.DigestSizes
		first.Data = specID
		first.consumed = len(first.RawData)
		log.Debugf("eventlog/event_log:ParseEventLogWithOptions() Crypto-agile log, spec %s errata %d, %d algorithms",
			eventLog.SpecVersion, specID.SpecErrata, specID.NumberOfAlgorithms)
	} else {
		eventLog.SpecVersion = "1.2"
		decodeEventData(first)
		log.Debug("eventlog/event_log:ParseEventLogWithOptions() Legacy sha1-only log")
	}
	eventLog.Events = append(eventLog.Events, first)

	for eventNum := 1; r.remaining() > 0; eventNum++ {
		var event *Event
		if eventLog.CryptoAgile {
			event, err = parseTcg20Event(r, eventNum, &eventLog)
		} else {
			event, err = parseTcg12Event(r, eventNum)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "eventlog/event_log:ParseEventLogWithOptions() There is an error parsing event %d", eventNum)
		}

		decodeEventData(event)
		eventLog.Events = append(eventLog.Events, event)
	}

	eventLog.Warnings = checkEventLog(&eventLog)
	if options.Strict && len(eventLog.Warnings) > 0 {
		return nil, errors.Errorf("eventlog/event_log:ParseEventLogWithOptions() Strict mode: %s", eventLog.Warnings[0])
	}

	return &eventLog, nil
}

// parseTcg12Event reads one record in the legacy TCG_PCR_EVENT layout:
// pcr index, event type, a fixed 20-byte sha1 digest and the
// length-prefixed event data.
func parseTcg12Event(r *reader, eventNum int) (*Event, error) {
	event := Event{EventNum: eventNum}

	var err error
	if event.PcrIndex, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg12Event() There is an error reading the pcr index")
	}
	if event.EventType, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg12Event() There is an error reading the event type")
	}

	digest, err := r.bytes(Sha1DigestSize)
	if err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg12Event() There is an error reading the sha1 digest")
	}
	event.Digests = []Digest{{Algorithm: Sha1, Value: digest}}

	if event.EventSize, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg12Event() There is an error reading the event size")
	}
	if event.RawData, err = r.bytes(int(event.EventSize)); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg12Event() There is an error reading the event data")
	}

	return &event, nil
}

// parseTcg20Event reads one record in the crypto-agile TCG_PCR_EVENT2
// layout. Digest lengths come from the header-declared algorithm table; an
// algorithm id outside the supported set is fatal because the remaining
// stream cannot be located past a digest of unknown length.
func parseTcg20Event(r *reader, eventNum int, eventLog *EventLog) (*Event, error) {
	event := Event{EventNum: eventNum}

	var err error
	if event.PcrIndex, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the pcr index")
	}
	if event.EventType, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the event type")
	}

	digestCount, err := r.uint32()
	if err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the digest count")
	}

	for i := uint32(0); i < digestCount; i++ {
		algID, err := r.uint16()
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the digest algorithm id")
		}

		alg := DigestAlgorithm(algID)
		if !alg.Supported() {
			return nil, &UnknownAlgorithmError{AlgorithmID: algID}
		}

		// Prefer the header-declared size; fall back to the canonical
		// size for a supported algorithm the header forgot to declare
		// (flagged later by the consistency checker).
		size := alg.DigestSize()
		for _, declared := range eventLog.Algorithms {
			if declared.AlgorithmID == algID {
				size = int(declared.DigestSize)
				break
			}
		}

		value, err := r.bytes(size)
		if err != nil {
			return nil, errors.Wrapf(err, "eventlog/event_log:parseTcg20Event() There is an error reading the %s digest", alg.Name())
		}
		event.Digests = append(event.Digests, Digest{Algorithm: alg, Value: value})
	}

	if event.EventSize, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the event size")
	}
	if event.RawData, err = r.bytes(int(event.EventSize)); err != nil {
		return nil, errors.Wrap(err, "eventlog/event_log:parseTcg20Event() There is an error reading the event data")
	}

	return &event, nil
}

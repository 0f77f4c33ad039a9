/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"encoding/binary"
	"fmt"
)

// checkEventLog is the best-effort structural anomaly pass. It never
// aborts decoding; the rule set is a minimum, so the absence of warnings
// means "no known anomaly", not a correctness proof.
func checkEventLog(l *EventLog) []Warning {
	log.Trace("eventlog/consistency:checkEventLog() Entering")
	defer log.Trace("eventlog/consistency:checkEventLog() Leaving")

	warnings := []Warning{}
	add := func(code WarningCode, eventNum int, format string, args ...interface{}) {
		warnings = append(warnings, Warning{
			Code:     code,
			EventNum: eventNum,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for _, event := range l.Events {
		if event.PcrIndex > MaxPcrIndex {
			add(WarnPcrIndexOutOfRange, event.EventNum,
				"pcr index %d is outside [0,%d]", event.PcrIndex, MaxPcrIndex)
		}

		if l.CryptoAgile {
			for _, digest := range event.Digests {
				if !l.DeclaresAlgorithm(uint16(digest.Algorithm)) {
					add(WarnUndeclaredAlgorithm, event.EventNum,
						"digest algorithm %s is not declared in the log header", digest.Algorithm.Name())
				}
			}
		}

		if event.decodeErr != nil {
			add(WarnMalformedPayload, event.EventNum,
				"%s payload could not be decoded: %v", event.TypeName(), event.decodeErr)
		} else if event.consumed != len(event.RawData) {
			add(WarnEventSizeMismatch, event.EventNum,
				"%s payload decoder consumed %d of %d declared bytes", event.TypeName(), event.consumed, event.EventSize)
		}

		switch data := event.Data.(type) {
		case *SeparatorEventData:
			if !validSeparatorValue(data.Value) {
				add(WarnSeparatorValue, event.EventNum,
					"separator value % x is not an expected sentinel", data.Value)
			}
		case *ImageLoadEventData:
			if data.devicePathRecovered {
				add(WarnDevicePathFallback, event.EventNum,
					"device path has no terminator; rendered as raw bytes")
			}
		case *EfiBootEntryEventData:
			if data.devicePathRecovered {
				add(WarnDevicePathFallback, event.EventNum,
					"boot entry device path has no terminator; rendered as raw bytes")
			}
		}
	}

	return warnings
}

// validSeparatorValue accepts the two sentinel values the firmware
// profile allows for separator measurements.
func validSeparatorValue(value []byte) bool {
	if len(value) != Uint32Size {
		return false
	}
	v := binary.LittleEndian.Uint32(value)
	return v == SeparatorSentinelZero || v == SeparatorSentinelOnes
}

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/pkg/errors"
)

// ErrTruncatedLog is returned when the buffer runs out in the middle of a
// record. A log that truncates mid-record is unusable past that point, so
// the whole decode fails.
var ErrTruncatedLog = errors.New("event log buffer is truncated")

// UnknownAlgorithmError is returned when the log header declares, or an
// event cites, a digest algorithm id outside the supported set.
type UnknownAlgorithmError struct {
	AlgorithmID uint16
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported digest algorithm id 0x%x", e.AlgorithmID)
}

// WarningCode identifies a class of structural anomaly detected by the
// consistency checker.
type WarningCode int

const (
	WarnPcrIndexOutOfRange WarningCode = iota
	WarnUndeclaredAlgorithm
	WarnEventSizeMismatch
	WarnSeparatorValue
	WarnDevicePathFallback
	WarnMalformedPayload
)

// Warning records a non-fatal structural anomaly. Warnings accumulate
// during decoding and never abort it; strict mode promotes the first one
// to an error.
type Warning struct {
	Code     WarningCode `json:"code"`
	EventNum int         `json:"event_num"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("event %d: %s", w.EventNum, w.Message)
}

// DigestAlgorithm is a TPM_ALG_ID digest algorithm supported by this
// parser. Ids outside this set are a fatal decode error, never a silent
// drop.
type DigestAlgorithm uint16

const (
	Sha1   DigestAlgorithm = AlgSHA1
	Sha256 DigestAlgorithm = AlgSHA256
	Sha384 DigestAlgorithm = AlgSHA384
)

// Supported reports whether the algorithm id belongs to the supported set.
func (a DigestAlgorithm) Supported() bool {
	switch a {
	case Sha1, Sha256, Sha384:
		return true
	}
	return false
}

// Name returns the lowercase algorithm name used by the reference schema.
func (a DigestAlgorithm) Name() string {
	switch a {
	case Sha1:
		return "sha1"
	case Sha256:
		return "sha256"
	case Sha384:
		return "sha384"
	}
	return fmt.Sprintf("0x%x", uint16(a))
}

// DigestSize returns the canonical digest length in bytes.
func (a DigestAlgorithm) DigestSize() int {
	switch a {
	case Sha1:
		return Sha1DigestSize
	case Sha256:
		return Sha256DigestSize
	case Sha384:
		return Sha384DigestSize
	}
	return 0
}

// New returns a fresh hash instance for the algorithm.
func (a DigestAlgorithm) New() hash.Hash {
	switch a {
	case Sha1:
		return sha1.New()
	case Sha256:
		return sha256.New()
	case Sha384:
		return sha512.New384()
	}
	return nil
}

// Digest is a single measurement digest attached to an event.
type Digest struct {
	Algorithm DigestAlgorithm
	Value     []byte
}

// AlgorithmSize is one entry of the header-declared digest algorithm
// table of a crypto-agile log.
type AlgorithmSize struct {
	AlgorithmID uint16
	DigestSize  uint16
}

// EventData is the decoded payload of an event. The set of implementations
// is closed; unrecognized or undecodable payloads resolve to
// *UnknownEventData which retains the raw bytes losslessly. The serializer
// renders payloads with a type switch over this set.
type EventData interface {
	isEventData()
}

// Event is one decoded record of the measurement log.
type Event struct {
	// EventNum is the position of the event in the log, starting at 0
	// with the header record
	EventNum  int
	PcrIndex  uint32
	EventType uint32
	EventSize uint32
	// Digests in stream order; legacy logs carry exactly one sha1 digest
	Digests []Digest
	// Data is the decoded payload variant
	Data EventData
	// RawData retains the undecoded payload bytes
	RawData []byte

	// payload decode bookkeeping consumed by the consistency checker
	consumed  int
	decodeErr error
}

// TypeName returns the symbolic event type name, or a hex rendering for
// codes outside the catalog.
func (e *Event) TypeName() string {
	if name, ok := eventNameList[e.EventType]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", e.EventType)
}

// DigestFor returns the event digest for the given algorithm, or nil when
// the event carries no digest in that bank.
func (e *Event) DigestFor(alg DigestAlgorithm) []byte {
	for _, d := range e.Digests {
		if d.Algorithm == alg {
			return d.Value
		}
	}
	return nil
}

// EventLog is the decoded form of a TCG measurement log. It is built by a
// single Parse call and never mutated afterwards, so a finished log may be
// shared freely between goroutines.
type EventLog struct {
	// CryptoAgile is true for a format 2 log announced by a leading
	// TCG_EfiSpecIDEvent record, false for a legacy sha1-only log
	CryptoAgile bool
	// SpecVersion is the declared spec version of a crypto-agile log,
	// e.g. "2.0", or "1.2" for a legacy log
	SpecVersion string
	// Algorithms is the ordered header-declared digest algorithm table;
	// nil for a legacy log
	Algorithms []AlgorithmSize
	// Events holds all decoded events including the header record
	Events []*Event
	// Warnings accumulated by the consistency checker
	Warnings []Warning
}

// DeclaresAlgorithm reports whether the header table declares the id.
// Legacy logs implicitly declare sha1 only.
func (l *EventLog) DeclaresAlgorithm(id uint16) bool {
	if !l.CryptoAgile {
		return id == AlgSHA1
	}
	for _, a := range l.Algorithms {
		if a.AlgorithmID == id {
			return true
		}
	}
	return false
}

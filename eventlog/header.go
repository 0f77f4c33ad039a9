/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"bytes"

	"github.com/pkg/errors"
)

// SpecIDEventData is the payload of the TCG_EfiSpecIDEvent header record
// of a crypto-agile log. Its algorithm table governs the byte layout of
// every subsequent record.
type SpecIDEventData struct {
	Signature          string
	PlatformClass      uint32
	SpecVersionMinor   uint8
	SpecVersionMajor   uint8
	SpecErrata         uint8
	UintnSize          uint8
	NumberOfAlgorithms uint32
	DigestSizes        []AlgorithmSize
	VendorInfo         []byte
}

func (*SpecIDEventData) isEventData() {}

// isSpecIDEvent reports whether a first-record payload begins with the
// crypto-agile log signature.
func isSpecIDEvent(eventType uint32, data []byte) bool {
	return eventType == EvNoAction &&
		len(data) >= len(SpecIDSignature) &&
		bytes.Equal(data[:len(SpecIDSignature)], []byte(SpecIDSignature))
}

// parseSpecIDEvent decodes the TCG_EfiSpecIDEvent payload, including the
// declared digest algorithm table. Every declared algorithm id must be in
// the supported set; an unknown id is fatal for the whole decode because
// digests of unknown length make the record stream unparseable.
func parseSpecIDEvent(data []byte) (*SpecIDEventData, error) {
	log.Trace("eventlog/header:parseSpecIDEvent() Entering")
	defer log.Trace("eventlog/header:parseSpecIDEvent() Leaving")

	r := newReader(data)
	specID := SpecIDEventData{}

	sig, err := r.bytes(len(SpecIDSignature))
	if err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the signature")
	}
	specID.Signature = string(bytes.TrimRight(sig, "\x00"))

	if specID.PlatformClass, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the platform class")
	}
	if specID.SpecVersionMinor, err = r.uint8(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the spec version")
	}
	if specID.SpecVersionMajor, err = r.uint8(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the spec version")
	}
	if specID.SpecErrata, err = r.uint8(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the spec errata")
	}
	if specID.UintnSize, err = r.uint8(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the uintn size")
	}
	if specID.NumberOfAlgorithms, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the algorithm count")
	}

	for i := uint32(0); i < specID.NumberOfAlgorithms; i++ {
		var entry AlgorithmSize
		if entry.AlgorithmID, err = r.uint16(); err != nil {
			return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the algorithm table")
		}
		if entry.DigestSize, err = r.uint16(); err != nil {
			return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the algorithm table")
		}

		if !DigestAlgorithm(entry.AlgorithmID).Supported() {
			return nil, &UnknownAlgorithmError{AlgorithmID: entry.AlgorithmID}
		}
		specID.DigestSizes = append(specID.DigestSizes, entry)
	}

	// vendor info is optional trailing data
	if r.remaining() > 0 {
		vendorInfo, err := r.prefixedBytes(Uint8Size)
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/header:parseSpecIDEvent() There is an error reading the vendor info")
		}
		specID.VendorInfo = vendorInfo
	}

	return &specID, nil
}

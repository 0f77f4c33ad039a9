/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// formatEfiGUID renders a 16-byte EFI_GUID in its canonical text form.
// EFI GUIDs store the first three fields little-endian, so those bytes are
// swapped before formatting.
func formatEfiGUID(b []byte) (string, error) {
	if len(b) != 16 {
		return "", errors.Errorf("eventlog/guid:formatEfiGUID() GUID must be 16 bytes, got %d", len(b))
	}

	mixed := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}

	guid, err := uuid.FromBytes(mixed)
	if err != nil {
		return "", errors.Wrap(err, "eventlog/guid:formatEfiGUID() There is an error converting the GUID")
	}
	return guid.String(), nil
}

// readEfiGUID reads a 16-byte EFI_GUID from the reader and renders it.
func readEfiGUID(r *reader) (string, error) {
	b, err := r.bytes(16)
	if err != nil {
		return "", err
	}
	return formatEfiGUID(b)
}

// decodeUTF16 converts UTF-16LE bytes to a string. Odd trailing bytes are
// dropped.
func decodeUTF16(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return string(utf16.Decode(units))
}

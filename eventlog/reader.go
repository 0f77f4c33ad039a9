/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Reader is a sequential little-endian cursor over the log buffer. Every
// read either returns the requested bytes or fails with ErrTruncatedLog;
// the absolute offset is tracked for diagnostics.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) offset() int {
	return r.off
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) need(n int) error {
	if n < 0 || r.remaining() < n {
		return errors.Wrapf(ErrTruncatedLog,
			"eventlog/reader:need() %d bytes requested at offset %d with %d remaining", n, r.off, r.remaining())
	}
	return nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint8() (uint8, error) {
	b, err := r.bytes(Uint8Size)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.bytes(Uint16Size)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(Uint32Size)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.bytes(Uint64Size)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// prefixedBytes reads a block whose length precedes it, with the prefix
// width chosen by the caller (1, 2, 4 or 8 bytes).
func (r *reader) prefixedBytes(prefixWidth int) ([]byte, error) {
	var n uint64
	switch prefixWidth {
	case Uint8Size:
		v, err := r.uint8()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case Uint16Size:
		v, err := r.uint16()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case Uint32Size:
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		n = uint64(v)
	case Uint64Size:
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		n = v
	default:
		return nil, errors.Errorf("eventlog/reader:prefixedBytes() unsupported prefix width %d", prefixWidth)
	}

	if n > uint64(r.remaining()) {
		return nil, errors.Wrapf(ErrTruncatedLog,
			"eventlog/reader:prefixedBytes() %d bytes declared at offset %d with %d remaining", n, r.off, r.remaining())
	}
	return r.bytes(int(n))
}

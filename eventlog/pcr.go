/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// PcrBank is the simulated state of the 24 platform configuration
// registers of one digest algorithm after replaying the log. It is a
// read-only snapshot for comparison against a live quote.
type PcrBank struct {
	Algorithm DigestAlgorithm
	Pcrs      [PcrCount][]byte
}

// Pcr returns the accumulated value of one register as hex.
func (b *PcrBank) Pcr(index int) string {
	if index < 0 || index > MaxPcrIndex {
		return ""
	}
	return hex.EncodeToString(b.Pcrs[index])
}

func newPcrBank(alg DigestAlgorithm) *PcrBank {
	bank := PcrBank{Algorithm: alg}
	for i := range bank.Pcrs {
		bank.Pcrs[i] = make([]byte, alg.DigestSize())
	}
	return &bank
}

// extend performs the canonical PCR transition
// pcr = Hash(pcr || digest). Extension is non-commutative, so replay
// order must match the event stream.
func (b *PcrBank) extend(index uint32, digest []byte) {
	if index > MaxPcrIndex {
		return
	}
	h := b.Algorithm.New()
	h.Write(b.Pcrs[index])
	h.Write(digest)
	b.Pcrs[index] = h.Sum(nil)
}

// ReplayPcrs replays every digest of the given algorithm into a fresh
// bank of 24 all-zero registers, in event-stream order. EV_NO_ACTION
// events are informational and are not extended; there is no implicit
// reset, so registers accumulate across the entire log.
func (l *EventLog) ReplayPcrs(alg DigestAlgorithm) (*PcrBank, error) {
	log.Trace("eventlog/pcr:ReplayPcrs() Entering")
	defer log.Trace("eventlog/pcr:ReplayPcrs() Leaving")

	if !alg.Supported() {
		return nil, &UnknownAlgorithmError{AlgorithmID: uint16(alg)}
	}
	if !l.DeclaresAlgorithm(uint16(alg)) {
		return nil, errors.Errorf("eventlog/pcr:ReplayPcrs() The log does not carry a %s bank", alg.Name())
	}

	bank := newPcrBank(alg)
	for _, event := range l.Events {
		if event.EventType == EvNoAction {
			continue
		}
		digest := event.DigestFor(alg)
		if digest == nil {
			continue
		}
		bank.extend(event.PcrIndex, digest)
	}

	return bank, nil
}

// ReplayAll replays every bank the log declares.
func (l *EventLog) ReplayAll() ([]*PcrBank, error) {
	log.Trace("eventlog/pcr:ReplayAll() Entering")
	defer log.Trace("eventlog/pcr:ReplayAll() Leaving")

	if !l.CryptoAgile {
		bank, err := l.ReplayPcrs(Sha1)
		if err != nil {
			return nil, err
		}
		return []*PcrBank{bank}, nil
	}

	banks := make([]*PcrBank, 0, len(l.Algorithms))
	for _, a := range l.Algorithms {
		bank, err := l.ReplayPcrs(DigestAlgorithm(a.AlgorithmID))
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"strings"

	"github.com/pkg/errors"
)

// GptPartitionEntry is one partition of a measured partition table.
type GptPartitionEntry struct {
	PartitionTypeGUID   string
	UniquePartitionGUID string
	StartingLBA         uint64
	EndingLBA           uint64
	Attributes          uint64
	PartitionName       string
}

// GptEventData is the UEFI_GPT_DATA payload of an EV_EFI_GPT_EVENT: the
// GPT header followed by the measured partition entries.
type GptEventData struct {
	Signature                string
	Revision                 uint32
	HeaderSize               uint32
	HeaderCRC32              uint32
	MyLBA                    uint64
	AlternateLBA             uint64
	FirstUsableLBA           uint64
	LastUsableLBA            uint64
	DiskGUID                 string
	PartitionEntryLBA        uint64
	NumberOfPartitionEntries uint32
	SizeOfPartitionEntry     uint32

	NumberOfPartitions uint64
	Partitions         []GptPartitionEntry
}

func (*GptEventData) isEventData() {}

// decodeGptEvent decodes an EV_EFI_GPT_EVENT payload: the full
// EFI_PARTITION_TABLE_HEADER, the partition count and the entries.
func decodeGptEvent(event *Event) (EventData, int, error) {
	r := newReader(event.RawData)
	gpt := GptEventData{}

	sig, err := r.bytes(8)
	if err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the GPT signature")
	}
	gpt.Signature = string(sig)

	if gpt.Revision, err = r.uint32(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the revision")
	}
	if gpt.HeaderSize, err = r.uint32(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the header size")
	}
	if gpt.HeaderCRC32, err = r.uint32(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the header crc")
	}
	if _, err = r.uint32(); err != nil { // reserved
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error skipping the reserved field")
	}
	if gpt.MyLBA, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading MyLBA")
	}
	if gpt.AlternateLBA, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading AlternateLBA")
	}
	if gpt.FirstUsableLBA, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading FirstUsableLBA")
	}
	if gpt.LastUsableLBA, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading LastUsableLBA")
	}
	if gpt.DiskGUID, err = readEfiGUID(r); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the disk GUID")
	}
	if gpt.PartitionEntryLBA, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the partition entry LBA")
	}
	if gpt.NumberOfPartitionEntries, err = r.uint32(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the partition entry count")
	}
	if gpt.SizeOfPartitionEntry, err = r.uint32(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the partition entry size")
	}
	if _, err = r.uint32(); err != nil { // partition entry array crc
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error skipping the entry array crc")
	}

	if gpt.NumberOfPartitions, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/gpt:decodeGptEvent() There is an error reading the measured partition count")
	}
	if gpt.SizeOfPartitionEntry < 56 {
		return nil, 0, errors.Errorf("eventlog/gpt:decodeGptEvent() Partition entry size %d is below the 56-byte fixed layout", gpt.SizeOfPartitionEntry)
	}

	for i := uint64(0); i < gpt.NumberOfPartitions; i++ {
		raw, err := r.bytes(int(gpt.SizeOfPartitionEntry))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "eventlog/gpt:decodeGptEvent() There is an error reading partition entry %d", i)
		}

		er := newReader(raw)
		entry := GptPartitionEntry{}
		if entry.PartitionTypeGUID, err = readEfiGUID(er); err != nil {
			return nil, 0, errors.Wrapf(err, "eventlog/gpt:decodeGptEvent() There is an error reading the type GUID of partition %d", i)
		}
		if entry.UniquePartitionGUID, err = readEfiGUID(er); err != nil {
			return nil, 0, errors.Wrapf(err, "eventlog/gpt:decodeGptEvent() There is an error reading the unique GUID of partition %d", i)
		}
		entry.StartingLBA, _ = er.uint64()
		entry.EndingLBA, _ = er.uint64()
		entry.Attributes, _ = er.uint64()
		entry.PartitionName = strings.TrimRight(decodeUTF16(raw[56:]), "\x00")

		gpt.Partitions = append(gpt.Partitions, entry)
	}

	return &gpt, r.offset(), nil
}

func init() {
	registerEventDataDecoder(EvEfiGptEvent, decodeGptEvent)
}

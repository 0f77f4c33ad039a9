/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// The JSON rendered here is a compatibility contract: key names, nesting
// and ordering mirror the tpm2_eventlog output that downstream verifiers
// pattern-match on. Two intentional differences: action strings carry a
// single trailing NUL trimmed, and the human-readable DevicePathText /
// GPT partition fields are added next to the raw fields.

type eventJSON struct {
	EventType   string       `json:"EventType"`
	EventNum    int          `json:"EventNum"`
	PCRIndex    uint32       `json:"PCRIndex"`
	EventSize   uint32       `json:"EventSize"`
	DigestCount int          `json:"DigestCount"`
	Digests     []digestJSON `json:"Digests"`
	Event       interface{}  `json:"Event"`
}

type digestJSON struct {
	AlgorithmID string `json:"AlgorithmId"`
	Digest      string `json:"Digest"`
}

type algorithmSizeJSON struct {
	AlgorithmID uint16 `json:"algorithmId"`
	DigestSize  uint16 `json:"digestSize"`
}

type specIDJSON struct {
	PlatformClass      uint32              `json:"platformClass"`
	SpecVersionMinor   uint8               `json:"specVersionMinor"`
	SpecVersionMajor   uint8               `json:"specVersionMajor"`
	SpecErrata         uint8               `json:"specErrata"`
	UintnSize          uint8               `json:"uintnSize"`
	NumberOfAlgorithms uint32              `json:"numberOfAlgorithms"`
	DigestSizes        []algorithmSizeJSON `json:"digestSizes"`
}

type firmwareBlobJSON struct {
	BlobBase   uint64 `json:"BlobBase"`
	BlobLength uint64 `json:"BlobLength"`
}

type imageLoadJSON struct {
	ImageLocationInMemory uint64 `json:"ImageLocationInMemory"`
	ImageLengthInMemory   uint64 `json:"ImageLengthInMemory"`
	ImageLinkTimeAddress  uint64 `json:"ImageLinkTimeAddress"`
	LengthOfDevicePath    uint64 `json:"LengthOfDevicePath"`
	DevicePath            string `json:"DevicePath"`
	DevicePathText        string `json:"DevicePathText,omitempty"`
}

type iplJSON struct {
	String string `json:"String"`
}

type gptPartitionJSON struct {
	PartitionTypeGUID   string `json:"PartitionTypeGUID"`
	UniquePartitionGUID string `json:"UniquePartitionGUID"`
	StartingLBA         uint64 `json:"StartingLBA"`
	EndingLBA           uint64 `json:"EndingLBA"`
	Attributes          uint64 `json:"Attributes"`
	PartitionName       string `json:"PartitionName"`
}

type gptJSON struct {
	Signature          string             `json:"Signature"`
	Revision           uint32             `json:"Revision"`
	HeaderSize         uint32             `json:"HeaderSize"`
	HeaderCRC32        uint32             `json:"HeaderCRC32"`
	MyLBA              uint64             `json:"MyLBA"`
	AlternativeLBA     uint64             `json:"AlternativeLBA"`
	FirstUsableLBA     uint64             `json:"FirstUsableLBA"`
	LastUsableLBA      uint64             `json:"LastUsableLBA"`
	DiskGUID           string             `json:"DiskGUID"`
	NumberOfPartitions uint64             `json:"NumberOfPartitions"`
	Partitions         []gptPartitionJSON `json:"Partitions"`
}

type efiVariableJSON struct {
	UnicodeName        string      `json:"UnicodeName"`
	UnicodeNameLength  uint64      `json:"UnicodeNameLength"`
	VariableDataLength uint64      `json:"VariableDataLength"`
	VariableName       string      `json:"VariableName"`
	VariableData       interface{} `json:"VariableData"`
}

type signatureDataJSON struct {
	SignatureOwner string `json:"SignatureOwner"`
	SignatureData  string `json:"SignatureData"`
}

type signatureListJSON struct {
	SignatureType       string              `json:"SignatureType"`
	SignatureHeaderSize uint32              `json:"SignatureHeaderSize"`
	SignatureListSize   uint32              `json:"SignatureListSize"`
	SignatureSize       uint32              `json:"SignatureSize"`
	Keys                []signatureDataJSON `json:"Keys"`
}

type booleanJSON struct {
	Enabled string `json:"Enabled"`
}

type bootEntryJSON struct {
	Enabled            string `json:"Enabled"`
	FilePathListLength uint16 `json:"FilePathListLength"`
	Description        string `json:"Description"`
	DevicePath         string `json:"DevicePath"`
	DevicePathText     string `json:"DevicePathText,omitempty"`
}

// MarshalJSON renders the decoded log as the ordered JSON event array of
// the reference schema. Serialization is deterministic: the same buffer
// always yields byte-identical output.
func (l *EventLog) MarshalJSON() ([]byte, error) {
	events := make([]eventJSON, 0, len(l.Events))
	for _, event := range l.Events {
		events = append(events, renderEvent(event))
	}
	out, err := json.Marshal(events)
	if err != nil {
		return nil, errors.Wrap(err, "eventlog/serialize:MarshalJSON() There is an error marshaling the event list")
	}
	return out, nil
}

func renderEvent(event *Event) eventJSON {
	digests := make([]digestJSON, 0, len(event.Digests))
	for _, d := range event.Digests {
		digests = append(digests, digestJSON{
			AlgorithmID: d.Algorithm.Name(),
			Digest:      hex.EncodeToString(d.Value),
		})
	}

	return eventJSON{
		EventType:   event.TypeName(),
		EventNum:    event.EventNum,
		PCRIndex:    event.PcrIndex,
		EventSize:   event.EventSize,
		DigestCount: len(event.Digests),
		Digests:     digests,
		Event:       renderEventData(event),
	}
}

// renderEventData maps each payload variant onto its reference JSON
// shape. This is a closed pattern match: adding a variant without a case
// here falls through to the raw hex rendering.
func renderEventData(event *Event) interface{} {
	switch data := event.Data.(type) {
	case *SpecIDEventData:
		sizes := make([]algorithmSizeJSON, 0, len(data.DigestSizes))
		for _, s := range data.DigestSizes {
			sizes = append(sizes, algorithmSizeJSON{AlgorithmID: s.AlgorithmID, DigestSize: s.DigestSize})
		}
		return specIDJSON{
			PlatformClass:      data.PlatformClass,
			SpecVersionMinor:   data.SpecVersionMinor,
			SpecVersionMajor:   data.SpecVersionMajor,
			SpecErrata:         data.SpecErrata,
			UintnSize:          data.UintnSize,
			NumberOfAlgorithms: data.NumberOfAlgorithms,
			DigestSizes:        sizes,
		}

	case *ActionEventData:
		return data.Action

	case *IplEventData:
		return iplJSON{String: data.String}

	case *FirmwareBlobEventData:
		return firmwareBlobJSON{BlobBase: data.Base, BlobLength: data.Length}

	case *ImageLoadEventData:
		return imageLoadJSON{
			ImageLocationInMemory: data.ImageLocationInMemory,
			ImageLengthInMemory:   data.ImageLengthInMemory,
			ImageLinkTimeAddress:  data.ImageLinkTimeAddress,
			LengthOfDevicePath:    data.DevicePathLength,
			DevicePath:            hex.EncodeToString(data.DevicePath),
			DevicePathText:        data.DevicePathText,
		}

	case *GptEventData:
		partitions := make([]gptPartitionJSON, 0, len(data.Partitions))
		for _, p := range data.Partitions {
			partitions = append(partitions, gptPartitionJSON{
				PartitionTypeGUID:   p.PartitionTypeGUID,
				UniquePartitionGUID: p.UniquePartitionGUID,
				StartingLBA:         p.StartingLBA,
				EndingLBA:           p.EndingLBA,
				Attributes:          p.Attributes,
				PartitionName:       p.PartitionName,
			})
		}
		return gptJSON{
			Signature:          data.Signature,
			Revision:           data.Revision,
			HeaderSize:         data.HeaderSize,
			HeaderCRC32:        data.HeaderCRC32,
			MyLBA:              data.MyLBA,
			AlternativeLBA:     data.AlternateLBA,
			FirstUsableLBA:     data.FirstUsableLBA,
			LastUsableLBA:      data.LastUsableLBA,
			DiskGUID:           data.DiskGUID,
			NumberOfPartitions: data.NumberOfPartitions,
			Partitions:         partitions,
		}

	case *EfiSignatureListEventData:
		lists := make([]signatureListJSON, 0, len(data.Lists))
		for _, list := range data.Lists {
			keys := make([]signatureDataJSON, 0, len(list.Keys))
			for _, key := range list.Keys {
				keys = append(keys, signatureDataJSON{
					SignatureOwner: key.SignatureOwner,
					SignatureData:  hex.EncodeToString(key.SignatureData),
				})
			}
			lists = append(lists, signatureListJSON{
				SignatureType:       list.SignatureType,
				SignatureHeaderSize: list.SignatureHeaderSize,
				SignatureListSize:   list.SignatureListSize,
				SignatureSize:       list.SignatureSize,
				Keys:                keys,
			})
		}
		return renderEfiVariable(&data.EfiVariableEventData, lists)

	case *EfiVariableBooleanEventData:
		return renderEfiVariable(&data.EfiVariableEventData, booleanJSON{Enabled: yesNo(data.Enabled)})

	case *EfiBootOrderEventData:
		order := make([]string, 0, len(data.BootOrder))
		for _, entry := range data.BootOrder {
			order = append(order, fmt.Sprintf("Boot%04x", entry))
		}
		return renderEfiVariable(&data.EfiVariableEventData, order)

	case *EfiBootEntryEventData:
		return renderEfiVariable(&data.EfiVariableEventData, bootEntryJSON{
			Enabled:            yesNo(data.Attributes&0x1 == 0x1),
			FilePathListLength: data.FilePathListLength,
			Description:        data.Description,
			DevicePath:         hex.EncodeToString(data.DevicePath),
			DevicePathText:     data.DevicePathText,
		})

	case *EfiVariableAuthorityEventData:
		return renderEfiVariable(&data.EfiVariableEventData, []signatureDataJSON{{
			SignatureOwner: data.Signature.SignatureOwner,
			SignatureData:  hex.EncodeToString(data.Signature.SignatureData),
		}})

	case *EfiVariableEventData:
		return renderEfiVariable(data, hex.EncodeToString(data.VariableData))

	case *SeparatorEventData:
		return hex.EncodeToString(data.Value)

	case *UnknownEventData:
		return hex.EncodeToString(data.Data)
	}

	return hex.EncodeToString(event.RawData)
}

func renderEfiVariable(varData *EfiVariableEventData, variableData interface{}) efiVariableJSON {
	return efiVariableJSON{
		UnicodeName:        varData.UnicodeName,
		UnicodeNameLength:  varData.UnicodeNameLength,
		VariableDataLength: varData.VariableDataLength,
		VariableName:       varData.VariableName,
		VariableData:       variableData,
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

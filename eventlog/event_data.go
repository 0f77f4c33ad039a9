/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"github.com/pkg/errors"
)

// eventDataDecoder decodes the payload of one event. It returns the
// decoded variant and the number of payload bytes it consumed; the
// consistency checker compares the latter against the declared event size.
type eventDataDecoder func(event *Event) (EventData, int, error)

// Registry from event type code to payload decoder. Populated once from
// the init functions of the decoder files; unmapped types always resolve
// to UnknownEventData.
var eventDataDecoders = map[uint32]eventDataDecoder{}

func registerEventDataDecoder(eventType uint32, decoder eventDataDecoder) {
	eventDataDecoders[eventType] = decoder
}

// decodeEventData dispatches the raw payload to the registered decoder.
// A payload that cannot be parsed degrades to UnknownEventData instead of
// aborting the log; the failure is surfaced as a consistency warning.
func decodeEventData(event *Event) {
	decoder, ok := eventDataDecoders[event.EventType]
	if !ok {
		event.Data = &UnknownEventData{Data: event.RawData}
		event.consumed = len(event.RawData)
		return
	}

	data, consumed, err := decoder(event)
	if err != nil {
		log.WithError(err).Debugf("eventlog/event_data:decodeEventData() Event %d (%s) payload could not be decoded",
			event.EventNum, event.TypeName())
		event.decodeErr = err
		event.Data = &UnknownEventData{Data: event.RawData}
		event.consumed = len(event.RawData)
		return
	}

	event.Data = data
	event.consumed = consumed
}

// UnknownEventData is the lossless fallback for unrecognized or
// undecodable payloads.
type UnknownEventData struct {
	Data []byte
}

func (*UnknownEventData) isEventData() {}

// SeparatorEventData is the measured separator sentinel. The sentinel
// value is validated by the consistency checker, not here; an unexpected
// value is still decoded.
type SeparatorEventData struct {
	Value []byte
}

func (*SeparatorEventData) isEventData() {}

// ActionEventData is the ASCII text of an EV_ACTION / EV_EFI_ACTION
// event. Exactly one trailing NUL byte is trimmed when present. The trim
// applies to action strings only, not to other string fields.
type ActionEventData struct {
	Action string
}

func (*ActionEventData) isEventData() {}

// IplEventData is the zero-terminated boot loader string of an EV_IPL
// event, transcribed without the trailing zero.
type IplEventData struct {
	String string
}

func (*IplEventData) isEventData() {}

// FirmwareBlobEventData describes a measured firmware blob by base
// address and length.
type FirmwareBlobEventData struct {
	Base   uint64
	Length uint64
}

func (*FirmwareBlobEventData) isEventData() {}

// ImageLoadEventData describes a loaded boot services image, including
// the UEFI device path it was loaded from. DevicePath retains the raw
// path bytes; DevicePathText carries the human-readable rendering.
type ImageLoadEventData struct {
	ImageLocationInMemory uint64
	ImageLengthInMemory   uint64
	ImageLinkTimeAddress  uint64
	DevicePathLength      uint64
	DevicePath            []byte
	DevicePathText        string

	devicePathRecovered bool
}

func (*ImageLoadEventData) isEventData() {}

func decodeSeparatorEvent(event *Event) (EventData, int, error) {
	return &SeparatorEventData{Value: event.RawData}, len(event.RawData), nil
}

func decodeActionEvent(event *Event) (EventData, int, error) {
	data := event.RawData
	if n := len(data); n > 0 && data[n-1] == 0x00 {
		data = data[:n-1]
	}
	return &ActionEventData{Action: string(data)}, len(event.RawData), nil
}

func decodeIplEvent(event *Event) (EventData, int, error) {
	data := event.RawData
	if n := len(data); n > 0 && data[n-1] == 0x00 {
		data = data[:n-1]
	}
	return &IplEventData{String: string(data)}, len(event.RawData), nil
}

func decodeFirmwareBlobEvent(event *Event) (EventData, int, error) {
	r := newReader(event.RawData)
	blob := FirmwareBlobEventData{}

	var err error
	if blob.Base, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeFirmwareBlobEvent() There is an error reading the blob base")
	}
	if blob.Length, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeFirmwareBlobEvent() There is an error reading the blob length")
	}

	return &blob, r.offset(), nil
}

func decodeImageLoadEvent(event *Event) (EventData, int, error) {
	r := newReader(event.RawData)
	imageLoad := ImageLoadEventData{}

	var err error
	if imageLoad.ImageLocationInMemory, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeImageLoadEvent() There is an error reading the image location")
	}
	if imageLoad.ImageLengthInMemory, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeImageLoadEvent() There is an error reading the image length")
	}
	if imageLoad.ImageLinkTimeAddress, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeImageLoadEvent() There is an error reading the link address")
	}
	if imageLoad.DevicePathLength, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeImageLoadEvent() There is an error reading the device path length")
	}

	imageLoad.DevicePath, err = r.bytes(int(imageLoad.DevicePathLength))
	if err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/event_data:decodeImageLoadEvent() There is an error reading the device path")
	}
	imageLoad.DevicePathText, imageLoad.devicePathRecovered = formatDevicePath(imageLoad.DevicePath)

	return &imageLoad, r.offset(), nil
}

func init() {
	registerEventDataDecoder(EvSeparator, decodeSeparatorEvent)
	registerEventDataDecoder(EvAction, decodeActionEvent)
	registerEventDataDecoder(EvEfiAction, decodeActionEvent)
	registerEventDataDecoder(EvIpl, decodeIplEvent)
	registerEventDataDecoder(EvEfiPlatformFirmwareBlob, decodeFirmwareBlobEvent)
	registerEventDataDecoder(EvEfiPlatformFirmwareBlob2, decodeFirmwareBlobEvent)
	registerEventDataDecoder(EvEfiBootServicesApplication, decodeImageLoadEvent)
	registerEventDataDecoder(EvEfiBootServicesDriver, decodeImageLoadEvent)
	registerEventDataDecoder(EvEfiRuntimeServicesDriver, decodeImageLoadEvent)
}

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"regexp"

	"github.com/pkg/errors"
)

var bootEntryRegex = regexp.MustCompile(`^Boot[0-9a-fA-F]{4}$`)

// Secure boot variables whose data is an EFI signature database
var signatureListVariables = map[string]bool{
	"PK":  true,
	"KEK": true,
	"db":  true,
	"dbx": true,
}

// EfiVariableEventData is the UEFI_VARIABLE_DATA payload shared by all
// variable measurement events: the owner GUID, the UTF-16 variable name
// and the opaque variable data.
type EfiVariableEventData struct {
	VariableName       string
	UnicodeNameLength  uint64
	VariableDataLength uint64
	UnicodeName        string
	VariableData       []byte
}

func (*EfiVariableEventData) isEventData() {}

// EfiSignatureData is one entry of an EFI signature database
// (UEFI spec 2.8 section 32.4.1, EFI_SIGNATURE_DATA).
type EfiSignatureData struct {
	SignatureOwner string
	SignatureData  []byte
}

// EfiSignatureList is one EFI_SIGNATURE_LIST of a secure boot variable.
type EfiSignatureList struct {
	SignatureType       string
	SignatureListSize   uint32
	SignatureHeaderSize uint32
	SignatureSize       uint32
	Keys                []EfiSignatureData
}

// EfiSignatureListEventData is a PK/KEK/db/dbx driver-config measurement
// whose variable data is a sequence of signature lists.
type EfiSignatureListEventData struct {
	EfiVariableEventData
	Lists []EfiSignatureList
}

// EfiVariableBooleanEventData is a variable measurement whose data is a
// single enable/disable byte (SecureBoot, MokList state).
type EfiVariableBooleanEventData struct {
	EfiVariableEventData
	Enabled bool
}

// EfiBootOrderEventData is the measured BootOrder variable.
type EfiBootOrderEventData struct {
	EfiVariableEventData
	BootOrder []uint16
}

// EfiBootEntryEventData is a measured Boot#### load option. DevicePath
// retains the raw file path list; DevicePathText carries the
// human-readable rendering.
type EfiBootEntryEventData struct {
	EfiVariableEventData
	Attributes         uint32
	FilePathListLength uint16
	Description        string
	DevicePath         []byte
	DevicePathText     string

	devicePathRecovered bool
}

// EfiVariableAuthorityEventData is an EV_EFI_VARIABLE_AUTHORITY
// measurement carrying a single signature.
type EfiVariableAuthorityEventData struct {
	EfiVariableEventData
	Signature EfiSignatureData
}

// parseEfiVariableData decodes the common UEFI_VARIABLE_DATA framing:
// GUID, length-prefixed UTF-16 name and length-prefixed data blob. The
// name length prefix counts UTF-16 characters, not bytes.
func parseEfiVariableData(data []byte) (*EfiVariableEventData, int, error) {
	r := newReader(data)
	varData := EfiVariableEventData{}

	guid, err := readEfiGUID(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:parseEfiVariableData() There is an error reading the variable GUID")
	}
	varData.VariableName = guid

	if varData.UnicodeNameLength, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:parseEfiVariableData() There is an error reading the name length")
	}
	if varData.VariableDataLength, err = r.uint64(); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:parseEfiVariableData() There is an error reading the data length")
	}

	// The character count is bounded before doubling so the byte count
	// cannot wrap on oversized declared lengths.
	if varData.UnicodeNameLength > uint64(r.remaining()) {
		return nil, 0, errors.Wrapf(ErrTruncatedLog,
			"eventlog/variable_data:parseEfiVariableData() %d name characters declared with %d bytes remaining", varData.UnicodeNameLength, r.remaining())
	}
	name, err := r.bytes(int(varData.UnicodeNameLength) * 2)
	if err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:parseEfiVariableData() There is an error reading the variable name")
	}
	varData.UnicodeName = decodeUTF16(name)

	if varData.VariableData, err = r.bytes(int(varData.VariableDataLength)); err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:parseEfiVariableData() There is an error reading the variable data")
	}

	return &varData, r.offset(), nil
}

// decodeEfiVariableEvent decodes EV_EFI_VARIABLE_DRIVER_CONFIG,
// EV_EFI_VARIABLE_BOOT and EV_EFI_VARIABLE_BOOT2 payloads, specializing
// by variable name the way the well-known variables are laid out.
func decodeEfiVariableEvent(event *Event) (EventData, int, error) {
	varData, consumed, err := parseEfiVariableData(event.RawData)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case signatureListVariables[varData.UnicodeName] && event.EventType == EvEfiVariableDriverConfig:
		lists, err := parseEfiSignatureLists(varData.VariableData)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "eventlog/variable_data:decodeEfiVariableEvent() There is an error parsing the %s signature lists", varData.UnicodeName)
		}
		return &EfiSignatureListEventData{EfiVariableEventData: *varData, Lists: lists}, consumed, nil

	case varData.UnicodeName == "SecureBoot":
		if len(varData.VariableData) != 1 {
			return nil, 0, errors.Errorf("eventlog/variable_data:decodeEfiVariableEvent() SecureBoot data is %d bytes, expected 1", len(varData.VariableData))
		}
		return &EfiVariableBooleanEventData{EfiVariableEventData: *varData, Enabled: varData.VariableData[0] != 0}, consumed, nil

	case varData.UnicodeName == "BootOrder":
		order, err := parseBootOrder(varData.VariableData)
		if err != nil {
			return nil, 0, err
		}
		return &EfiBootOrderEventData{EfiVariableEventData: *varData, BootOrder: order}, consumed, nil

	case bootEntryRegex.MatchString(varData.UnicodeName):
		entry, err := parseBootEntry(varData)
		if err != nil {
			return nil, 0, err
		}
		return entry, consumed, nil
	}

	return varData, consumed, nil
}

// decodeEfiVariableAuthorityEvent decodes EV_EFI_VARIABLE_AUTHORITY
// payloads, which carry a single EFI_SIGNATURE_DATA.
func decodeEfiVariableAuthorityEvent(event *Event) (EventData, int, error) {
	varData, consumed, err := parseEfiVariableData(event.RawData)
	if err != nil {
		return nil, 0, err
	}

	// A one-byte MokList measurement is the shim state toggle
	if varData.UnicodeName == "MokList" && len(varData.VariableData) == 1 {
		return &EfiVariableBooleanEventData{EfiVariableEventData: *varData, Enabled: varData.VariableData[0] != 0}, consumed, nil
	}

	if len(varData.VariableData) < 16 {
		// No embedded signature; keep the generic variable form
		return varData, consumed, nil
	}

	owner, err := formatEfiGUID(varData.VariableData[:16])
	if err != nil {
		return nil, 0, errors.Wrap(err, "eventlog/variable_data:decodeEfiVariableAuthorityEvent() There is an error reading the signature owner")
	}

	return &EfiVariableAuthorityEventData{
		EfiVariableEventData: *varData,
		Signature: EfiSignatureData{
			SignatureOwner: owner,
			SignatureData:  varData.VariableData[16:],
		},
	}, consumed, nil
}

// parseEfiSignatureLists walks the EFI_SIGNATURE_LIST sequence of a
// secure boot variable.
func parseEfiSignatureLists(data []byte) ([]EfiSignatureList, error) {
	lists := []EfiSignatureList{}
	r := newReader(data)

	for r.remaining() > 0 {
		start := r.offset()

		list := EfiSignatureList{}
		sigType, err := readEfiGUID(r)
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading the signature type")
		}
		list.SignatureType = sigType

		if list.SignatureListSize, err = r.uint32(); err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading the list size")
		}
		if list.SignatureHeaderSize, err = r.uint32(); err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading the header size")
		}
		if list.SignatureSize, err = r.uint32(); err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading the signature size")
		}

		if list.SignatureSize < 16 {
			return nil, errors.Errorf("eventlog/variable_data:parseEfiSignatureLists() Signature size %d is below the 16-byte owner GUID", list.SignatureSize)
		}
		if _, err = r.bytes(int(list.SignatureHeaderSize)); err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error skipping the signature header")
		}

		list.Keys = []EfiSignatureData{}
		for r.offset()-start < int(list.SignatureListSize) {
			sig, err := r.bytes(int(list.SignatureSize))
			if err != nil {
				return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading a signature entry")
			}
			owner, err := formatEfiGUID(sig[:16])
			if err != nil {
				return nil, errors.Wrap(err, "eventlog/variable_data:parseEfiSignatureLists() There is an error reading a signature owner")
			}
			list.Keys = append(list.Keys, EfiSignatureData{SignatureOwner: owner, SignatureData: sig[16:]})
		}

		lists = append(lists, list)
	}

	return lists, nil
}

func parseBootOrder(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, errors.Errorf("eventlog/variable_data:parseBootOrder() BootOrder data length %d is not divisible by 2", len(data))
	}

	order := make([]uint16, 0, len(data)/2)
	r := newReader(data)
	for r.remaining() > 0 {
		v, err := r.uint16()
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseBootOrder() There is an error reading a boot order entry")
		}
		order = append(order, v)
	}
	return order, nil
}

// parseBootEntry decodes the EFI_LOAD_OPTION layout of a Boot####
// variable: attributes, file path list length, zero-terminated UTF-16
// description and the device path list.
func parseBootEntry(varData *EfiVariableEventData) (*EfiBootEntryEventData, error) {
	r := newReader(varData.VariableData)
	entry := EfiBootEntryEventData{EfiVariableEventData: *varData}

	var err error
	if entry.Attributes, err = r.uint32(); err != nil {
		return nil, errors.Wrap(err, "eventlog/variable_data:parseBootEntry() There is an error reading the attributes")
	}
	if entry.FilePathListLength, err = r.uint16(); err != nil {
		return nil, errors.Wrap(err, "eventlog/variable_data:parseBootEntry() There is an error reading the file path list length")
	}

	// description runs to the first UTF-16 zero
	desc := []byte{}
	for {
		unit, err := r.bytes(2)
		if err != nil {
			return nil, errors.Wrap(err, "eventlog/variable_data:parseBootEntry() There is an error reading the description")
		}
		if unit[0] == 0x00 && unit[1] == 0x00 {
			break
		}
		desc = append(desc, unit...)
	}
	entry.Description = decodeUTF16(desc)

	pathLen := int(entry.FilePathListLength)
	if pathLen > r.remaining() {
		pathLen = r.remaining()
	}
	if entry.DevicePath, err = r.bytes(pathLen); err != nil {
		return nil, errors.Wrap(err, "eventlog/variable_data:parseBootEntry() There is an error reading the device path")
	}
	entry.DevicePathText, entry.devicePathRecovered = formatDevicePath(entry.DevicePath)

	return &entry, nil
}

func init() {
	registerEventDataDecoder(EvEfiVariableDriverConfig, decodeEfiVariableEvent)
	registerEventDataDecoder(EvEfiVariableBoot, decodeEfiVariableEvent)
	registerEventDataDecoder(EvEfiVariableBoot2, decodeEfiVariableEvent)
	registerEventDataDecoder(EvEfiVariableAuthority, decodeEfiVariableAuthorityEvent)
}

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// UEFI device path node types
const (
	devicePathHardware  = 0x01
	devicePathAcpi      = 0x02
	devicePathMessaging = 0x03
	devicePathMedia     = 0x04
	devicePathBbs       = 0x05
	devicePathEnd       = 0x7F

	devicePathEndEntire   = 0xFF
	devicePathEndInstance = 0x01

	// ACPI _HID values are EISA-encoded; PNP ids carry this tag in the
	// low 16 bits
	acpiPnpEisaID = 0x41D0
)

// DevicePathNode is one node of a UEFI device path chain: its raw type,
// subtype and body bytes plus the rendered text fragment.
type DevicePathNode struct {
	Type    uint8
	SubType uint8
	Data    []byte
	Text    string
}

// parseDevicePathNodes walks the node headers until the end-of-entire-path
// terminator. The boolean reports whether the terminator was found; a
// chain that runs out before terminating is returned as parsed so far.
func parseDevicePathNodes(data []byte) ([]DevicePathNode, bool) {
	r := newReader(data)
	nodes := []DevicePathNode{}

	for r.remaining() >= 4 {
		nodeType, _ := r.uint8()
		nodeSubType, _ := r.uint8()
		length, _ := r.uint16()

		if length < 4 || int(length)-4 > r.remaining() {
			return nodes, false
		}
		body, _ := r.bytes(int(length) - 4)

		if nodeType == devicePathEnd {
			if nodeSubType == devicePathEndEntire {
				return nodes, true
			}
			// end of one path instance; the next instance follows
			continue
		}

		nodes = append(nodes, DevicePathNode{
			Type:    nodeType,
			SubType: nodeSubType,
			Data:    body,
			Text:    formatDevicePathNode(nodeType, nodeSubType, body),
		})
	}

	return nodes, false
}

// formatDevicePath renders a raw device path blob in the libefivar text
// convention, fragments joined with "/". A chain missing its terminator
// is recovered as a raw-bytes fragment; the boolean reports that
// fallback so the consistency checker can flag it.
func formatDevicePath(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}

	nodes, terminated := parseDevicePathNodes(data)
	if !terminated {
		log.Debugf("eventlog/device_path:formatDevicePath() Device path of %d bytes has no terminator", len(data))
		return hex.EncodeToString(data), true
	}

	fragments := make([]string, 0, len(nodes))
	for _, node := range nodes {
		fragments = append(fragments, node.Text)
	}
	return strings.Join(fragments, "/"), false
}

func formatDevicePathNode(nodeType uint8, nodeSubType uint8, body []byte) string {
	switch nodeType {
	case devicePathHardware:
		return formatHardwareNode(nodeSubType, body)
	case devicePathAcpi:
		return formatAcpiNode(nodeSubType, body)
	case devicePathMessaging:
		return formatMessagingNode(nodeSubType, body)
	case devicePathMedia:
		return formatMediaNode(nodeSubType, body)
	case devicePathBbs:
		return formatBbsNode(nodeSubType, body)
	}
	return genericNodeText(nodeType, nodeSubType, body)
}

// genericNodeText is the fallback fragment for unrecognized nodes.
func genericNodeText(nodeType uint8, nodeSubType uint8, body []byte) string {
	return fmt.Sprintf("Path(%d,%d,%s)", nodeType, nodeSubType, hex.EncodeToString(body))
}

func formatHardwareNode(subType uint8, body []byte) string {
	r := newReader(body)
	switch subType {
	case 0x01: // PCI
		function, err1 := r.uint8()
		device, err2 := r.uint8()
		if err1 != nil || err2 != nil {
			break
		}
		return fmt.Sprintf("Pci(0x%x,0x%x)", device, function)
	case 0x04: // vendor-defined
		guid, err := readEfiGUID(r)
		if err != nil {
			break
		}
		return fmt.Sprintf("VenHw(%s)", guid)
	}
	return genericNodeText(devicePathHardware, subType, body)
}

func formatAcpiNode(subType uint8, body []byte) string {
	r := newReader(body)
	switch subType {
	case 0x01:
		hid, err1 := r.uint32()
		uid, err2 := r.uint32()
		if err1 != nil || err2 != nil {
			break
		}
		if hid&0xFFFF == acpiPnpEisaID {
			switch hid >> 16 {
			case 0x0A03:
				return fmt.Sprintf("PciRoot(0x%x)", uid)
			case 0x0A08:
				return fmt.Sprintf("PcieRoot(0x%x)", uid)
			case 0x0604:
				return fmt.Sprintf("Floppy(0x%x)", uid)
			}
			return fmt.Sprintf("Acpi(PNP%04X,0x%x)", hid>>16, uid)
		}
		return fmt.Sprintf("Acpi(0x%08x,0x%x)", hid, uid)
	}
	return genericNodeText(devicePathAcpi, subType, body)
}

func formatMessagingNode(subType uint8, body []byte) string {
	r := newReader(body)
	switch subType {
	case 0x05: // USB
		port, err1 := r.uint8()
		iface, err2 := r.uint8()
		if err1 != nil || err2 != nil {
			break
		}
		return fmt.Sprintf("USB(0x%x,0x%x)", port, iface)
	case 0x0B: // MAC address
		addr, err1 := r.bytes(32)
		ifType, err2 := r.uint8()
		if err1 != nil || err2 != nil {
			break
		}
		return fmt.Sprintf("MAC(%s,0x%x)", hex.EncodeToString(addr[:6]), ifType)
	case 0x12: // SATA
		hba, err1 := r.uint16()
		portMultiplier, err2 := r.uint16()
		lun, err3 := r.uint16()
		if err1 != nil || err2 != nil || err3 != nil {
			break
		}
		return fmt.Sprintf("Sata(0x%x,0x%x,0x%x)", hba, portMultiplier, lun)
	case 0x17: // NVMe namespace
		nsid, err1 := r.uint32()
		eui, err2 := r.bytes(8)
		if err1 != nil || err2 != nil {
			break
		}
		parts := make([]string, len(eui))
		for i, b := range eui {
			parts[i] = fmt.Sprintf("%02X", b)
		}
		return fmt.Sprintf("NVMe(0x%x,%s)", nsid, strings.Join(parts, "-"))
	}
	return genericNodeText(devicePathMessaging, subType, body)
}

func formatMediaNode(subType uint8, body []byte) string {
	r := newReader(body)
	switch subType {
	case 0x01: // hard drive
		partitionNumber, err1 := r.uint32()
		partitionStart, err2 := r.uint64()
		partitionSize, err3 := r.uint64()
		signature, err4 := r.bytes(16)
		_, err5 := r.uint8() // partition format
		signatureType, err6 := r.uint8()
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
			break
		}
		switch signatureType {
		case 0x02: // GPT partition GUID
			guid, err := formatEfiGUID(signature)
			if err != nil {
				break
			}
			return fmt.Sprintf("HD(%d,GPT,%s,0x%x,0x%x)", partitionNumber, guid, partitionStart, partitionSize)
		case 0x01: // MBR 32-bit signature
			sig := uint32(signature[0]) | uint32(signature[1])<<8 | uint32(signature[2])<<16 | uint32(signature[3])<<24
			return fmt.Sprintf("HD(%d,MBR,0x%08x,0x%x,0x%x)", partitionNumber, sig, partitionStart, partitionSize)
		}
		return fmt.Sprintf("HD(%d,0,0,0x%x,0x%x)", partitionNumber, partitionStart, partitionSize)
	case 0x02: // CD-ROM El Torito
		bootEntry, err1 := r.uint32()
		partitionStart, err2 := r.uint64()
		partitionSize, err3 := r.uint64()
		if err1 != nil || err2 != nil || err3 != nil {
			break
		}
		return fmt.Sprintf("CDROM(0x%x,0x%x,0x%x)", bootEntry, partitionStart, partitionSize)
	case 0x03: // vendor-defined
		guid, err := readEfiGUID(r)
		if err != nil {
			break
		}
		return fmt.Sprintf("VenMedia(%s)", guid)
	case 0x04: // file path
		path := decodeUTF16(body)
		return fmt.Sprintf("File(%s)", strings.TrimRight(path, "\x00"))
	case 0x05: // media protocol
		guid, err := readEfiGUID(r)
		if err != nil {
			break
		}
		return fmt.Sprintf("Media(%s)", guid)
	case 0x06: // PIWG firmware file
		if len(body) == 16 {
			guid, err := readEfiGUID(r)
			if err != nil {
				break
			}
			return fmt.Sprintf("FvFile(%s)", guid)
		}
	case 0x07: // PIWG firmware volume
		if len(body) == 16 {
			guid, err := readEfiGUID(r)
			if err != nil {
				break
			}
			return fmt.Sprintf("Fv(%s)", guid)
		}
	}
	return genericNodeText(devicePathMedia, subType, body)
}

func formatBbsNode(subType uint8, body []byte) string {
	r := newReader(body)
	if subType == 0x01 {
		deviceType, err1 := r.uint16()
		statusFlag, err2 := r.uint16()
		if err1 == nil && err2 == nil {
			description := strings.TrimRight(string(body[4:]), "\x00")
			return fmt.Sprintf("BBS(0x%x,%s,0x%x)", deviceType, description, statusFlag)
		}
	}
	return genericNodeText(devicePathBbs, subType, body)
}

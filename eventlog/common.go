/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package eventlog

const (
	Uint8Size  = 1
	Uint16Size = 2
	Uint32Size = 4
	Uint64Size = 8

	// Fixed portion of a TCG_PCR_EVENT record: pcr index, event type,
	// sha1 digest and event size
	Tcg12HeaderSize = Uint32Size + Uint32Size + Sha1DigestSize + Uint32Size

	// Signature of the TCG_EfiSpecIDEvent record that announces a
	// crypto-agile (TCG PC Client Platform Firmware Profile) log
	SpecIDSignature = "Spec ID Event03\x00"

	// Event types from TCG PC Client Platform Firmware Profile spec rev22
	EvPrebootCert                = 0x00000000
	EvPostCode                   = 0x00000001
	EvUnused                     = 0x00000002
	EvNoAction                   = 0x00000003
	EvSeparator                  = 0x00000004
	EvAction                     = 0x00000005
	EvEventTag                   = 0x00000006
	EvSCrtmContents              = 0x00000007
	EvSCrtmVersion               = 0x00000008
	EvCpuMicrocode               = 0x00000009
	EvPlatformConfigFlags        = 0x0000000A
	EvTableOfDevices             = 0x0000000B
	EvCompactHash                = 0x0000000C
	EvIpl                        = 0x0000000D
	EvIplPartitionData           = 0x0000000E
	EvNonhostCode                = 0x0000000F
	EvNonhostConfig              = 0x00000010
	EvNonhostInfo                = 0x00000011
	EvOmitBootDeviceEvents       = 0x00000012
	EvEfiEventBase               = 0x80000000
	EvEfiVariableDriverConfig    = EvEfiEventBase + 0x1
	EvEfiVariableBoot            = EvEfiEventBase + 0x2
	EvEfiBootServicesApplication = EvEfiEventBase + 0x3
	EvEfiBootServicesDriver      = EvEfiEventBase + 0x4
	EvEfiRuntimeServicesDriver   = EvEfiEventBase + 0x5
	EvEfiGptEvent                = EvEfiEventBase + 0x6
	EvEfiAction                  = EvEfiEventBase + 0x7
	EvEfiPlatformFirmwareBlob    = EvEfiEventBase + 0x8
	EvEfiHandoffTables           = EvEfiEventBase + 0x9
	EvEfiPlatformFirmwareBlob2   = EvEfiEventBase + 0xa
	EvEfiHandoffTables2          = EvEfiEventBase + 0xb
	EvEfiVariableBoot2           = EvEfiEventBase + 0xc
	EvEfiVariableAuthority       = EvEfiEventBase + 0xe0

	// Digest algorithm identifiers from the TPM2 TPM_ALG_ID registry
	AlgSHA1   = 0x4
	AlgSHA256 = 0xb
	AlgSHA384 = 0xc

	// Digest sizes
	Sha1DigestSize   = 20
	Sha256DigestSize = 32
	Sha384DigestSize = 48

	// Separator events measure one of these 4-byte values
	SeparatorSentinelZero uint32 = 0x00000000
	SeparatorSentinelOnes uint32 = 0xFFFFFFFF

	PcrCount    = 24
	MaxPcrIndex = PcrCount - 1
)

// EventNameList - maps event type codes to the symbolic names from the
// TCG PC Client Platform Firmware Profile Specification v1.5
var eventNameList = map[uint32]string{
	0x00000000: "EV_PREBOOT_CERT",
	0x00000001: "EV_POST_CODE",
	0x00000002: "EV_UNUSED",
	0x00000003: "EV_NO_ACTION",
	0x00000004: "EV_SEPARATOR",
	0x00000005: "EV_ACTION",
	0x00000006: "EV_EVENT_TAG",
	0x00000007: "EV_S_CRTM_CONTENTS",
	0x00000008: "EV_S_CRTM_VERSION",
	0x00000009: "EV_CPU_MICROCODE",
	0x0000000A: "EV_PLATFORM_CONFIG_FLAGS",
	0x0000000B: "EV_TABLE_OF_DEVICES",
	0x0000000C: "EV_COMPACT_HASH",
	0x0000000D: "EV_IPL",
	0x0000000E: "EV_IPL_PARTITION_DATA",
	0x0000000F: "EV_NONHOST_CODE",
	0x00000010: "EV_NONHOST_CONFIG",
	0x00000011: "EV_NONHOST_INFO",
	0x00000012: "EV_OMIT_BOOT_DEVICE_EVENTS",
	0x80000000: "EV_EFI_EVENT_BASE",
	0x80000001: "EV_EFI_VARIABLE_DRIVER_CONFIG",
	0x80000002: "EV_EFI_VARIABLE_BOOT",
	0x80000003: "EV_EFI_BOOT_SERVICES_APPLICATION",
	0x80000004: "EV_EFI_BOOT_SERVICES_DRIVER",
	0x80000005: "EV_EFI_RUNTIME_SERVICES_DRIVER",
	0x80000006: "EV_EFI_GPT_EVENT",
	0x80000007: "EV_EFI_ACTION",
	0x80000008: "EV_EFI_PLATFORM_FIRMWARE_BLOB",
	0x80000009: "EV_EFI_HANDOFF_TABLES",
	0x8000000A: "EV_EFI_PLATFORM_FIRMWARE_BLOB2",
	0x8000000B: "EV_EFI_HANDOFF_TABLES2",
	0x8000000C: "EV_EFI_VARIABLE_BOOT2",
	0x80000010: "EV_EFI_HCRTM_EVENT",
	0x800000E0: "EV_EFI_VARIABLE_AUTHORITY",
	0x800000E1: "EV_EFI_SPDM_FIRMWARE_BLOB",
	0x800000E2: "EV_EFI_SPDM_FIRMWARE_CONFIG",
}

// EventTypeName returns the symbolic name for an event type code. The
// boolean reports whether the code is part of the known catalog.
func EventTypeName(eventType uint32) (string, bool) {
	name, ok := eventNameList[eventType]
	return name, ok
}

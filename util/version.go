/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Populated at build time via -ldflags
var Version = "0.0.0"
var GitHash = "fffffff"
var CommitDate = "1970-01-01T00:00:00-00:00"

// VersionString renders the build identity served by GET /version.
func VersionString() string {
	return fmt.Sprintf("%s-%s", Version, GitHash)
}

func GetMajorVersion() (int, error) {
	endIdx := strings.Index(Version, ".")
	if endIdx <= 0 {
		return 0, fmt.Errorf("Could not parse version string %s", Version)
	}

	major, err := strconv.Atoi(strings.Replace(Version[0:endIdx], "v", "", -1))
	if err != nil {
		return 0, err
	}

	return major, nil
}

func GetMinorVersion() (int, error) {
	startIdx := strings.Index(Version, ".")
	if startIdx <= 0 {
		return 0, fmt.Errorf("Could not parse version string %s", Version)
	}

	endIdx := strings.Index(Version[startIdx+1:], ".")
	if endIdx <= 0 {
		return 0, fmt.Errorf("Could not parse version string %s", Version)
	}

	minor, err := strconv.Atoi(Version[startIdx+1 : startIdx+1+endIdx])
	if err != nil {
		return 0, err
	}

	return minor, nil
}

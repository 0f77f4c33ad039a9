/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package constants

const (
	InstallationDir     = "/opt/eventlog-service/"
	ConfigDir           = InstallationDir + "configuration/"
	ConfigFilePath      = ConfigDir + "config.yml"
	BinDir              = InstallationDir + "bin/"
	LogDir              = "/var/log/eventlog-service/"
	DefaultLogFilePath  = LogDir + "eventlog-service.log"
	HttpLogFile         = LogDir + "http.log"
	ServiceUserName     = "evtlsvc"
	ServiceName         = "eventlog-service"
	DefaultPort         = 1443

	// environment variables consumed at startup
	EnvServicePort = "EVENTLOG_SERVICE_PORT"
	EnvLogLevel    = "EVENTLOG_SERVICE_LOG_LEVEL"
	EnvStrictMode  = "EVENTLOG_SERVICE_STRICT"

	// mime types accepted/served by the endpoints
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"

	// decoded logs larger than this are rejected up front
	MaxEventLogSize = 16 * 1024 * 1024
)

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package main

import (
	"fmt"
	"os"

	"github.com/open-attestation/go-eventlog-service/config"
	"github.com/open-attestation/go-eventlog-service/constants"
	"github.com/open-attestation/go-eventlog-service/resource"
	"github.com/open-attestation/go-eventlog-service/util"
	log "github.com/sirupsen/logrus"
)

func printUsage() {
	fmt.Printf("Usage: %s <command>\n\n", os.Args[0])
	fmt.Println("Available commands:")
	fmt.Println("    start      Start the event-log decoding service")
	fmt.Println("    version    Print the service version")
	fmt.Println("    help       Show this help message")
}

func start() error {
	cfg, err := config.NewConfigFromYaml(constants.ConfigFilePath)
	if err != nil {
		return err
	}
	if err := cfg.LoadEnvironmentVariables(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.LogConfiguration(cfg.LogEnableStdout)

	service, err := resource.CreateEventLogService(cfg)
	if err != nil {
		return err
	}
	return service.Start()
}

func main() {
	if len(os.Args) <= 1 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		if err := start(); err != nil {
			log.WithError(err).Error("main:main() Error starting the service")
			fmt.Fprintf(os.Stderr, "Error starting the service: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("%s %s\nBuilt %s\n", constants.ServiceName, util.VersionString(), util.CommitDate)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unrecognized command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

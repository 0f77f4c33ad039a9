/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package config

import (
	"io"
	"os"
	"strconv"

	"github.com/open-attestation/go-eventlog-service/constants"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var log = logrus.StandardLogger()

// EventLogServiceConfiguration is the yaml-backed service configuration.
type EventLogServiceConfiguration struct {
	configFile      string
	LogLevel        string `yaml:"log_level"`
	LogEnableStdout bool   `yaml:"log_enable_stdout"`
	WebService      struct {
		Port int `yaml:"port"`
	} `yaml:"web_service"`
	Decoder struct {
		// Strict promotes decoder consistency warnings to request errors
		Strict bool `yaml:"strict"`
	} `yaml:"decoder"`
}

var ErrNoConfigFile = errors.New("no config file")

// NewConfigFromYaml loads the configuration from a yaml file. A missing
// file yields a default configuration that can be saved back.
func NewConfigFromYaml(pathToYaml string) (*EventLogServiceConfiguration, error) {
	log.Trace("config/config:NewConfigFromYaml() Entering")
	defer log.Trace("config/config:NewConfigFromYaml() Leaving")

	var c EventLogServiceConfiguration
	file, err := os.Open(pathToYaml)
	if err == nil {
		defer file.Close()
		if err = yaml.NewDecoder(file).Decode(&c); err != nil {
			return nil, errors.Wrapf(err, "config/config:NewConfigFromYaml() There is an error decoding %s", pathToYaml)
		}
	} else {
		// file doesnt exist, start from defaults
		c.LogLevel = logrus.InfoLevel.String()
		c.WebService.Port = constants.DefaultPort
	}

	c.configFile = pathToYaml
	return &c, nil
}

func (cfg *EventLogServiceConfiguration) Save() error {
	log.Trace("config/config:Save() Entering")
	defer log.Trace("config/config:Save() Leaving")

	if cfg.configFile == "" {
		return ErrNoConfigFile
	}

	file, err := os.OpenFile(cfg.configFile, os.O_RDWR|os.O_TRUNC, 0)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, "config/config:Save() There is an error opening %s", cfg.configFile)
		}
		file, err = os.Create(cfg.configFile)
		if err != nil {
			return errors.Wrapf(err, "config/config:Save() There is an error creating %s", cfg.configFile)
		}
		os.Chmod(cfg.configFile, 0660)
	}
	defer file.Close()

	return yaml.NewEncoder(file).Encode(cfg)
}

// LoadEnvironmentVariables applies the environment overrides and saves
// the configuration when any value changed.
func (cfg *EventLogServiceConfiguration) LoadEnvironmentVariables() error {
	log.Trace("config/config:LoadEnvironmentVariables() Entering")
	defer log.Trace("config/config:LoadEnvironmentVariables() Leaving")

	dirty := false

	if portString := os.Getenv(constants.EnvServicePort); portString != "" {
		port, err := strconv.Atoi(portString)
		if err != nil {
			return errors.Wrapf(err, "config/config:LoadEnvironmentVariables() Invalid %s value '%s'", constants.EnvServicePort, portString)
		}
		if cfg.WebService.Port != port {
			cfg.WebService.Port = port
			dirty = true
		}
	}
	if cfg.WebService.Port == 0 {
		cfg.WebService.Port = constants.DefaultPort
		dirty = true
	}

	if levelString := os.Getenv(constants.EnvLogLevel); levelString != "" {
		level, err := logrus.ParseLevel(levelString)
		if err != nil {
			log.Infof("config/config:LoadEnvironmentVariables() Invalid %s '%s', using default level Info", constants.EnvLogLevel, levelString)
			cfg.LogLevel = logrus.InfoLevel.String()
		} else {
			cfg.LogLevel = level.String()
		}
		dirty = true
	} else if cfg.LogLevel == "" {
		cfg.LogLevel = logrus.InfoLevel.String()
		dirty = true
	}

	if strictString := os.Getenv(constants.EnvStrictMode); strictString != "" {
		strict, err := strconv.ParseBool(strictString)
		if err != nil {
			return errors.Wrapf(err, "config/config:LoadEnvironmentVariables() Invalid %s value '%s'", constants.EnvStrictMode, strictString)
		}
		if cfg.Decoder.Strict != strict {
			cfg.Decoder.Strict = strict
			dirty = true
		}
	}

	if dirty {
		if err := cfg.Save(); err != nil {
			return errors.Wrap(err, "config/config:LoadEnvironmentVariables() There is an error saving the configuration")
		}
	}

	return nil
}

func (cfg *EventLogServiceConfiguration) Validate() error {
	log.Trace("config/config:Validate() Entering")
	defer log.Trace("config/config:Validate() Leaving")

	if cfg.WebService.Port == 0 || cfg.WebService.Port > 65535 {
		return errors.Errorf("config/config:Validate() Invalid service port value: '%d'", cfg.WebService.Port)
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Errorf("config/config:Validate() Invalid log level: '%s'", cfg.LogLevel)
	}

	return nil
}

// LogConfiguration points logrus at the service log file, mirroring to
// stdout when configured.
func (cfg *EventLogServiceConfiguration) LogConfiguration(stdOut bool) {
	log.Trace("config/config:LogConfiguration() Entering")
	defer log.Trace("config/config:LogConfiguration() Leaving")

	var writer io.Writer = os.Stdout
	logFile, err := os.OpenFile(constants.DefaultLogFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0660)
	if err == nil {
		writer = logFile
		if stdOut {
			writer = io.MultiWriter(os.Stdout, logFile)
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logrus.SetLevel(level)
	logrus.SetOutput(writer)
}

/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package resource

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/open-attestation/go-eventlog-service/config"
	"github.com/open-attestation/go-eventlog-service/constants"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// EventLogService exposes the event-log decoder over HTTP.
type EventLogService struct {
	port   int
	router *mux.Router
}

type endpointError struct {
	Message    string
	StatusCode int
}

func (e *endpointError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// endpointHandler is the same as http.HandlerFunc, but returns an error
// that can be handled by a generic middleware handler
type endpointHandler func(w http.ResponseWriter, r *http.Request) error

func CreateEventLogService(cfg *config.EventLogServiceConfiguration) (*EventLogService, error) {
	log.Trace("resource/service:CreateEventLogService() Entering")
	defer log.Trace("resource/service:CreateEventLogService() Leaving")

	if cfg.WebService.Port == 0 {
		return nil, errors.New("resource/service:CreateEventLogService() Port cannot be zero")
	}

	service := EventLogService{
		port: cfg.WebService.Port,
	}

	service.router = mux.NewRouter()
	service.router.SkipClean(true)

	service.router.HandleFunc("/version", errorHandler(getVersion())).Methods("GET")

	hostRouter := service.router.PathPrefix("/v2/host").Subrouter()
	hostRouter.HandleFunc("/eventlog", errorHandler(postEventLog(cfg))).Methods("POST")
	hostRouter.HandleFunc("/eventlog/pcrs", errorHandler(postEventLogPcrs(cfg))).Methods("POST")

	return &service, nil
}

func (service *EventLogService) Start() error {
	log.Trace("resource/service:Start() Entering")
	defer log.Trace("resource/service:Start() Leaving")

	// Setup signal handlers to gracefully handle termination
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)

	httpWriter := os.Stderr
	if httpLogFile, err := os.OpenFile(constants.HttpLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666); err != nil {
		log.WithError(err).Errorf("resource/service:Start() Failed to open http log file %s", constants.HttpLogFile)
	} else {
		defer func() {
			derr := httpLogFile.Close()
			if derr != nil {
				log.WithError(derr).Error("resource/service:Start() Error closing http log file")
			}
		}()
		httpWriter = httpLogFile
	}

	httpLog := stdlog.New(httpWriter, "", 0)
	h := &http.Server{
		Addr:              fmt.Sprintf(":%d", service.port),
		Handler:           handlers.RecoveryHandler(handlers.RecoveryLogger(httpLog), handlers.PrintRecoveryStack(true))(handlers.CombinedLoggingHandler(httpWriter, service.router)),
		ErrorLog:          httpLog,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       10 * time.Second,
	}

	// dispatch web server go routine
	go func() {
		if err := h.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("resource/service:Start() Failed to start HTTP server")
			stop <- syscall.SIGTERM
		}
	}()
	log.Infof("resource/service:Start() EventLog service is running: %d", service.port)

	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.WithError(err).Info("resource/service:Start() Failed to gracefully shutdown webserver")
		return errors.Wrap(err, "resource/service:Start() Failed to gracefully shutdown webserver")
	}
	return nil
}

func errorHandler(eh endpointHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eh(w, r); err != nil {
			switch t := err.(type) {
			case *endpointError:
				http.Error(w, t.Message, t.StatusCode)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

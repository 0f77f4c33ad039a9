/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package resource

import (
	"net/http"

	"github.com/open-attestation/go-eventlog-service/util"
)

// getVersion handles GET /version
func getVersion() endpointHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		log.Trace("resource/version:getVersion() Entering")
		defer log.Trace("resource/version:getVersion() Leaving")

		log.Debugf("resource/version:getVersion() EventLog service version: %s", util.VersionString())
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(util.VersionString()))
		return err
	}
}

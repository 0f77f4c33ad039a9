/*
 * Copyright (C) 2020 Intel Corporation
 * SPDX-License-Identifier: BSD-3-Clause
 */
package resource

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	assert := assert.New(t)

	req, err := http.NewRequest("GET", "/version", nil)
	if err != nil {
		t.Fatal(err)
	}

	recorder := httptest.NewRecorder()
	handler := errorHandler(getVersion())
	handler.ServeHTTP(recorder, req)

	assert.Equal(recorder.Code, http.StatusOK)
	assert.NotEmpty(recorder.Body.String())
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	cause := errors.New("connection reset")
	fetch := newError(ErrorTypeFetch, cause, "fetching %s", "14")
	decode := newError(ErrorTypeDecode, nil, "bad payload")
	validation := NewValidationError("surface", "Saisis une surface positive.")

	tests := []struct {
		name       string
		err        error
		fetch      bool
		decode     bool
		validation bool
	}{
		{"fetch", fetch, true, false, false},
		{"wrapped fetch", fmt.Errorf("loading: %w", fetch), true, false, false},
		{"decode", decode, false, true, false},
		{"validation", validation, false, false, true},
		{"plain", cause, false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.fetch, IsFetchError(tc.err))
			assert.Equal(t, tc.decode, IsDecodeError(tc.err))
			assert.Equal(t, tc.validation, IsValidationError(tc.err))
		})
	}

	assert.ErrorIs(t, fetch, cause)
	assert.Equal(t, "fetching 14: connection reset", fetch.Error())
	assert.Equal(t, "Saisis une surface positive.", validation.Error())
	assert.Equal(t, "surface", validation.Field)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status   int
		contains string
	}{
		{http.StatusNotFound, "dataset not found"},
		{http.StatusTooManyRequests, "rate limit"},
		{http.StatusForbidden, "access denied"},
		{http.StatusBadGateway, "service unavailable (status 502)"},
		{http.StatusInternalServerError, "HTTP error 500"},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := ClassifyHTTPError(tc.status, "http://x/14.json.gz")
			assert.Equal(t, ErrorTypeFetch, err.Type)
			assert.Contains(t, err.Error(), tc.contains)
			assert.Contains(t, err.Error(), "http://x/14.json.gz")
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "fetch", ErrorTypeFetch.String())
	assert.Equal(t, "validation", ErrorTypeValidation.String())
	assert.Equal(t, "ErrorType(42)", ErrorType(42).String())
}

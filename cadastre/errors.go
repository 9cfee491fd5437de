// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cadastre

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the error type returned by the pipeline.
type Error struct {
	Type    ErrorType
	Message string
	Field   string // set for ErrorTypeValidation
	Err     error
}

// ErrorType classifies pipeline errors.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeFetch network or HTTP failure getting the dataset.
	ErrorTypeFetch
	// ErrorTypeDecode malformed or corrupt dataset payload.
	ErrorTypeDecode
	// ErrorTypeNameLookup a commune name could not be resolved. Never returned
	// by the pipeline, the code is used instead.
	ErrorTypeNameLookup
	// ErrorTypeReprojection a centroid could not be computed in Lambert-93.
	// Never returned by the pipeline, it ends up as a warning.
	ErrorTypeReprojection
	// ErrorTypeValidation the user input is not acceptable.
	ErrorTypeValidation
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:      "unknown",
	ErrorTypeFetch:        "fetch",
	ErrorTypeDecode:       "decode",
	ErrorTypeNameLookup:   "name lookup",
	ErrorTypeReprojection: "reprojection",
	ErrorTypeValidation:   "validation",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, err error, format string, args ...any) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// NewValidationError builds a user-facing input error.
func NewValidationError(field, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Field:   field,
		Message: message,
	}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}

	return false
}

// IsFetchError reports whether the dataset could not be downloaded.
func IsFetchError(err error) bool {
	return isType(err, ErrorTypeFetch)
}

// IsDecodeError reports whether the dataset could not be decoded.
func IsDecodeError(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsValidationError reports whether the query was rejected before running.
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// ClassifyHTTPError describes a non successful status of the dataset server.
func ClassifyHTTPError(statusCode int, url string) *Error {
	var msg string

	switch statusCode {
	case http.StatusNotFound:
		msg = "dataset not found (unknown département or millésime?)"
	case http.StatusTooManyRequests:
		msg = "rate limit reached"
	case http.StatusForbidden:
		msg = "access denied"
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		msg = fmt.Sprintf("service unavailable (status %d)", statusCode)
	default:
		msg = fmt.Sprintf("HTTP error %d", statusCode)
	}

	return &Error{
		Type:    ErrorTypeFetch,
		Message: fmt.Sprintf("fetching %s: %s", url, msg),
	}
}

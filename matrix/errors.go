// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"errors"
	"fmt"
	"net/http"
)

// MatrixError represents a structured error response from a Matrix
// homeserver. Callers can use errors.As to extract the structured
// information:
//
//	var matrixErr *MatrixError
//	if errors.As(err, &matrixErr) {
//	    if matrixErr.Code == ErrCodeUnknownToken { ... }
//	}
type MatrixError struct {
	// Code is the Matrix error code (e.g., "M_FORBIDDEN", "M_UNKNOWN_TOKEN").
	Code string `json:"errcode"`
	// Message is the human-readable error description from the server.
	Message string `json:"error"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard Matrix error codes the pipeline distinguishes.
const (
	ErrCodeForbidden            = "M_FORBIDDEN"
	ErrCodeGuestAccessForbidden = "M_GUEST_ACCESS_FORBIDDEN"
	ErrCodeUnknownToken         = "M_UNKNOWN_TOKEN"
	ErrCodeLimitExceeded        = "M_LIMIT_EXCEEDED"
	ErrCodeUnrecognized         = "M_UNRECOGNIZED"
	ErrCodeUnknown              = "M_UNKNOWN"
)

// IsMatrixError checks whether err is a *MatrixError with the given error code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// IsForbidden reports whether err is a 403 response. On registration
// this means guest accounts are disabled; on a state read it means the
// room is not world readable (or does not exist on that host).
func IsForbidden(err error) bool {
	var matrixErr *MatrixError
	return errors.As(err, &matrixErr) && matrixErr.StatusCode == http.StatusForbidden
}

// IsRateLimited reports whether err is a 429 / M_LIMIT_EXCEEDED
// response. Rate limiting is terminal for a badge request: the pipeline
// never retries.
func IsRateLimited(err error) bool {
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		return false
	}
	return matrixErr.StatusCode == http.StatusTooManyRequests || matrixErr.Code == ErrCodeLimitExceeded
}

// IsBadToken reports whether err means the access token was rejected or
// has expired (M_UNKNOWN_TOKEN).
func IsBadToken(err error) bool {
	return IsMatrixError(err, ErrCodeUnknownToken)
}

// SchemaError is returned when a homeserver response does not match the
// shape the pipeline consumes. It is always fatal: a malformed response
// from an arbitrary host is not something to guess around.
type SchemaError struct {
	// Endpoint names the call that produced the response.
	Endpoint string
	// Reason describes the shape mismatch.
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("matrix: %s returned malformed response: %s", e.Endpoint, e.Reason)
}

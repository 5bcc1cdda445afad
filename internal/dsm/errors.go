package dsm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when an authenticated call is made
	// without a session id. It is a caller bug, not a remote error.
	ErrUnauthorized = errors.New("not logged in")

	// ErrMissingCredentials is returned by Login for an empty account or
	// password.
	ErrMissingCredentials = errors.New("account and password are required")

	// ErrMalformedResponse is returned when the service answers with
	// something that is not a Web API envelope.
	ErrMalformedResponse = errors.New("malformed response")
)

// Common error codes shared by every API.
const (
	CodeUnknown            = 100
	CodeInvalidParameter   = 101
	CodeNoSuchAPI          = 102
	CodeNoSuchMethod       = 103
	CodeVersionUnsupported = 104
	CodePermissionDenied   = 105
	CodeSessionTimeout     = 106
	CodeSessionInterrupted = 107
	CodeSIDNotFound        = 119
)

// SYNO.API.Auth error codes.
const (
	CodeAuthBadCredentials = 400
	CodeAuthAccountDisable = 401
	CodeAuthDenied         = 402
	CodeAuthOTPRequired    = 403
	CodeAuthOTPFailed      = 404
	CodeAuthOTPEnforced    = 406
)

// Task API error codes.
const (
	CodeTaskUploadFailed     = 400
	CodeTaskMaxReached       = 401
	CodeTaskDestDenied       = 402
	CodeTaskDestMissing      = 403
	CodeTaskInvalidID        = 404
	CodeTaskInvalidAction    = 405
	CodeTaskNoDefaultDest    = 406
	CodeTaskSetDestFailed    = 407
	CodeTaskFileDoesNotExist = 408
)

var commonMessages = map[int]string{
	CodeUnknown:            "unknown error",
	CodeInvalidParameter:   "invalid parameter",
	CodeNoSuchAPI:          "requested API does not exist",
	CodeNoSuchMethod:       "requested method does not exist",
	CodeVersionUnsupported: "requested version does not support the functionality",
	CodePermissionDenied:   "insufficient user privilege",
	CodeSessionTimeout:     "session timeout",
	CodeSessionInterrupted: "session interrupted by duplicate login",
	CodeSIDNotFound:        "session id not found",
}

var authMessages = map[int]string{
	CodeAuthBadCredentials: "no such account or incorrect password",
	CodeAuthAccountDisable: "account disabled",
	CodeAuthDenied:         "permission denied",
	CodeAuthOTPRequired:    "2-step verification code required",
	CodeAuthOTPFailed:      "failed to authenticate 2-step verification code",
	CodeAuthOTPEnforced:    "2-step verification must be set up",
}

var taskMessages = map[int]string{
	CodeTaskUploadFailed:     "file upload failed",
	CodeTaskMaxReached:       "max number of tasks reached",
	CodeTaskDestDenied:       "destination denied",
	CodeTaskDestMissing:      "destination does not exist",
	CodeTaskInvalidID:        "invalid task id",
	CodeTaskInvalidAction:    "invalid task action",
	CodeTaskNoDefaultDest:    "no default destination",
	CodeTaskSetDestFailed:    "set destination failed",
	CodeTaskFileDoesNotExist: "file does not exist",
}

// APIError is a remote failure reported by the service.
type APIError struct {
	API    string
	Method string
	Code   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %s (code %d)", e.API, e.Method, e.Message(), e.Code)
}

// Message returns the human-readable description of the code.
func (e *APIError) Message() string {
	var table map[int]string
	switch e.API {
	case apiAuth:
		table = authMessages
	case apiTask, apiTaskComplete:
		table = taskMessages
	}
	if msg, ok := table[e.Code]; ok {
		return msg
	}
	if msg, ok := commonMessages[e.Code]; ok {
		return msg
	}
	return "unexpected error"
}

// Code returns the remote error code carried by err, if any.
func Code(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

// IsSessionExpired reports whether err means the session id is no longer
// valid and a fresh login is needed.
func IsSessionExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.API == apiAuth {
		return false
	}
	switch apiErr.Code {
	case CodeSessionTimeout, CodeSessionInterrupted, CodeSIDNotFound:
		return true
	}
	return false
}

// IsOTPRequired reports whether a login failed because a one-time code
// is missing or was rejected.
func IsOTPRequired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.API != apiAuth {
		return false
	}
	return apiErr.Code == CodeAuthOTPRequired || apiErr.Code == CodeAuthOTPFailed
}

// IsDestinationRequired reports whether a create call failed because no
// destination folder was given and the service has no default.
func IsDestinationRequired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.API != apiTask || apiErr.Method != "create" {
		return false
	}
	return apiErr.Code == CodeTaskNoDefaultDest
}

// Package common defines shared constants and sentinel errors used across
// the back-office server and its admin tooling. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Authentication errors. Missing, malformed, expired and tampered tokens
	// all collapse into ErrInvalidCredentials, as does a bad login.
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrSubjectNotFound    = errors.New("token subject not found")

	// Authorization errors.
	ErrPermissionDenied = errors.New("permission denied")
)

// Package common defines constants and sentinel errors shared by the codec,
// vault, transport and sync layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Codec errors (malformed bookmark HTML).
	ErrParse = errors.New("parse error")

	// Transport errors.
	ErrAuth    = errors.New("authentication failed")
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")

	// Vault errors.
	ErrDecryption = errors.New("decryption failed")
	ErrValidation = errors.New("validation error")

	// Local store rejected a node during tree reconstruction.
	ErrImport = errors.New("import error")
)

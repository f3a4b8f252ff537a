// Package core defines sentinel errors.
package core

import "errors"

var (
	// Header decoding errors
	ErrHeaderTooShort = errors.New("ipgate: header too short")
	ErrNotIPv4        = errors.New("ipgate: address is not IPv4")

	// Gate errors
	ErrGateBusy       = errors.New("ipgate: gate busy, session in flight")
	ErrSessionAborted = errors.New("ipgate: session aborted")

	// Blocklist errors
	ErrTableEmpty     = errors.New("ipgate: blocked-address table is empty")
	ErrTableDuplicate = errors.New("ipgate: blocked-address table has duplicate entries")

	// Pipeline errors
	ErrPipelineStopped = errors.New("ipgate: pipeline stopped")
	ErrNoSource        = errors.New("ipgate: pipeline has no packet source")

	// Configuration errors
	ErrConfigInvalid = errors.New("ipgate: invalid configuration")
)

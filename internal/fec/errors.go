package fec

import "errors"

// Sentinel errors for the FEC core. RecoveryFailure is deliberately not
// one of these: failing to recover a symbol from an incomplete repair
// set is an expected outcome, not an error, and is reported by returning
// zero recovered symbols rather than an error value.
var (
	ErrWindowFull         = errors.New("fec: window full")
	ErrFrameTooLarge      = errors.New("fec: frame too large")
	ErrUnexpectedState    = errors.New("fec: unexpected state")
	ErrProtocolViolation  = errors.New("fec: protocol violation")
	ErrSchemeMismatch     = errors.New("fec: repair symbol references unknown scheme")
	ErrDeadlineOutOfRange = errors.New("fec: deadline too far in the future")
)

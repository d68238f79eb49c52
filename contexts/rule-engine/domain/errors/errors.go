package errors

import "errors"

// Sentinel errors for the rule engine's error kinds. Control-path
// callers treat all of these as log-and-continue; nothing here is meant to
// propagate out of the subscriber loop.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCell     = errors.New("unknown cell")
	ErrCellBulkDelete  = errors.New("cell is in bulk deletion")
	ErrMalformedKey    = errors.New("malformed compound key")
	ErrBoxResolution   = errors.New("rule references an unresolvable box")
	ErrRuleNotFound    = errors.New("rule not found")
	ErrBoxNotFound     = errors.New("box not found")
	ErrTransientStore  = errors.New("transient store failure")
	ErrHopLimitReached = errors.New("rule chain hop limit reached")
)

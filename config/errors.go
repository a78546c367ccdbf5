package config

import "errors"

var (
	// ErrInvalidCap is returned when the per-height candidate cap is not
	// positive.
	ErrInvalidCap = errors.New("per-height cap must be >= 1")

	// ErrInvalidThreshold is returned when the default freeze threshold is
	// outside [1, 99].
	ErrInvalidThreshold = errors.New("default threshold percent must be between 1 and 99")

	// ErrInvalidDwell is returned when the freeze dwell duration is
	// negative.
	ErrInvalidDwell = errors.New("freeze dwell must be >= 0")

	// ErrInvalidFallback is returned when the consensus-follow fallback
	// delay is negative.
	ErrInvalidFallback = errors.New("vote fallback delay must be >= 0")
)

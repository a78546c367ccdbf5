package config

import "time"

// Builder provides a fluent interface for constructing a Config.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder returns a Builder seeded with Default().
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// WithPerHeightCap overrides the per-height candidate cap.
func (b *Builder) WithPerHeightCap(cap int) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.PerHeightCap = cap
	return b
}

// WithDefaultThresholdPercent overrides the default freeze threshold.
func (b *Builder) WithDefaultThresholdPercent(percent int) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.DefaultThresholdPercent = percent
	return b
}

// WithFallbackDelay overrides the consensus-follow fallback delay.
func (b *Builder) WithFallbackDelay(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.FallbackDelay = d
	return b
}

// WithFreezeDwell overrides the freeze dwell duration.
func (b *Builder) WithFreezeDwell(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.FreezeDwell = d
	return b
}

// WithMinVerificationInterval overrides the minimum verification-timestamp
// gap Admission enforces.
func (b *Builder) WithMinVerificationInterval(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.MinVerificationInterval = d
	return b
}

// Build validates and returns the accumulated Config.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if b.cfg.PerHeightCap < 1 {
		return Config{}, ErrInvalidCap
	}
	if b.cfg.DefaultThresholdPercent < 1 || b.cfg.DefaultThresholdPercent > 99 {
		return Config{}, ErrInvalidThreshold
	}
	if b.cfg.FreezeDwell < 0 {
		return Config{}, ErrInvalidDwell
	}
	if b.cfg.FallbackDelay < 0 {
		return Config{}, ErrInvalidFallback
	}
	return b.cfg, nil
}

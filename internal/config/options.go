// Package config holds the Options table from spec §6, built with
// ciphera's Config-struct-plus-constructor idiom (internal/app.Config) and
// the functional-option pattern used across the katzenpost example repo's
// own config packages.
package config

import (
	"time"

	"duskwire/internal/rlog"
)

// Options bundles every tunable the ratchet core reads. Construct with
// DefaultOptions and override via With* setters.
type Options struct {
	// MaxRatchetSteps bounds the DH step ring (default 1000).
	MaxRatchetSteps int
	// MaxSkippedKeys bounds the global skipped-key cache (default 10000).
	MaxSkippedKeys int
	// SkippedKeyTTL bounds how long a cached skipped key survives (default 7 days).
	SkippedKeyTTL time.Duration
	// MaxMessageKeysPerStep bounds the per-receiving-chain skipped set (default 1000).
	MaxMessageKeysPerStep int
	// ExportableKeys allows generated ratchet keys to be serialized.
	ExportableKeys bool
	// Debug enables additional logging of ratchet state transitions.
	Debug bool
	// Logger receives state-transition records when Debug is true.
	Logger *rlog.Logger
}

// DefaultOptions returns the spec §6 defaults.
func DefaultOptions() Options {
	return Options{
		MaxRatchetSteps:       1000,
		MaxSkippedKeys:        10000,
		SkippedKeyTTL:         7 * 24 * time.Hour,
		MaxMessageKeysPerStep: 1000,
		ExportableKeys:        false,
		Debug:                 false,
		Logger:                nil, // Apply picks a stderr or discarding logger from Debug
	}
}

// Option mutates an Options value under construction.
type Option func(*Options)

// Apply folds opts onto DefaultOptions and returns the result.
func Apply(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Debug && o.Logger == nil {
		o.Logger = rlog.New("ratchet")
	}
	if o.Logger == nil {
		o.Logger = rlog.Discard()
	}
	return o
}

func WithMaxRatchetSteps(n int) Option       { return func(o *Options) { o.MaxRatchetSteps = n } }
func WithMaxSkippedKeys(n int) Option        { return func(o *Options) { o.MaxSkippedKeys = n } }
func WithSkippedKeyTTL(d time.Duration) Option {
	return func(o *Options) { o.SkippedKeyTTL = d }
}
func WithMaxMessageKeysPerStep(n int) Option { return func(o *Options) { o.MaxMessageKeysPerStep = n } }
func WithExportableKeys(b bool) Option       { return func(o *Options) { o.ExportableKeys = b } }
func WithDebug(b bool) Option                { return func(o *Options) { o.Debug = b } }
func WithLogger(l *rlog.Logger) Option       { return func(o *Options) { o.Logger = l } }

package modelstore

import (
	"github.com/okian/scorecast/internal/adapters/artifact"
	"github.com/okian/scorecast/internal/registry"
	"github.com/okian/scorecast/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithConcurrency bounds how many artifacts are decoded at once.
// Zero or less loads every family in parallel.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// WithFamilies replaces the configured family list.
func WithFamilies(families []registry.Family) Option {
	return func(l *Loader) {
		if len(families) > 0 {
			l.families = families
		}
	}
}

// WithDecoder sets the artifact decoder. Shims are registered on it by Load.
func WithDecoder(d *artifact.Decoder) Option {
	return func(l *Loader) {
		if d != nil {
			l.decoder = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}

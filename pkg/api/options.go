package api

import (
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// Option configures an API.
type Option func(*API)

// WithRand sets the randomness source, e.g. rng.New(seed) for reproducible
// keys. The API serializes access to it.
func WithRand(r rng.Rand) Option {
	return func(a *API) {
		a.rand = r
	}
}

// WithSeed is WithRand(rng.New(seed)).
func WithSeed(seed uint64) Option {
	return WithRand(rng.New(seed))
}

// WithObserver sets the hook that receives operation events.
func WithObserver(o quantum.Observer) Option {
	return func(a *API) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *metrics.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTracer sets the tracer for spans nested inside operations. Pass the
// tracer the observer uses so the spans share a trace.
func WithTracer(t metrics.Tracer) Option {
	return func(a *API) {
		if t != nil {
			a.tracer = t
		}
	}
}

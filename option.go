package x402agent

import (
	"time"

	"github.com/vitwit/x402-agent/logger"
	"github.com/vitwit/x402-agent/metrics"
)

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithExecutor replaces the HTTP executor capability.
func WithExecutor(e Executor) Option {
	return func(n *Negotiator) {
		n.executor = e
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Negotiator) {
		n.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(n *Negotiator) {
		n.metrics = r
	}
}

// WithAutoPay controls whether the negotiator pays automatically.
// When disabled, a 402 yields a Result with PaymentNeeded set and the
// wallet is never touched.
func WithAutoPay(autoPay bool) Option {
	return func(n *Negotiator) {
		n.autoPay = autoPay
	}
}

// WithGracePeriod sets how long signed authorizations remain valid.
func WithGracePeriod(d time.Duration) Option {
	return func(n *Negotiator) {
		n.gracePeriod = d
	}
}

// WithTimeout rebuilds the default executor with the given round-trip
// timeout. Ignored when a custom executor is supplied after it.
func WithTimeout(d time.Duration) Option {
	return func(n *Negotiator) {
		n.executor = NewHTTPExecutor(d)
	}
}

// WithClock replaces the time source used for validity windows.
func WithClock(clock func() time.Time) Option {
	return func(n *Negotiator) {
		n.clock = clock
	}
}

// Package metrics defines the recorder interface the negotiator reports
// payment events and round-trip latencies to.
package metrics

import "time"

// Event names recorded by the negotiator.
const (
	EventPaymentRequired = "payment_required"
	EventPaymentSigned   = "payment_signed"
	EventPaymentFailed   = "payment_failed"
	EventPaymentSettled  = "payment_settled"
)

// Recorder receives counters and latency observations.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// NoopRecorder discards everything. It is the default.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

package observability

import (
	"sync/atomic"
)

// Metrics counts reminder lifecycle events. The zero value is ready to use.
type Metrics struct {
	created        atomic.Int64
	deleted        atomic.Int64
	delivered      atomic.Int64
	deliveredLate  atomic.Int64
	deliveryFailed atomic.Int64
	parseFailed    atomic.Int64
	armFailed      atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordCreated()        { m.created.Add(1) }
func (m *Metrics) RecordDeleted()        { m.deleted.Add(1) }
func (m *Metrics) RecordDelivered()      { m.delivered.Add(1) }
func (m *Metrics) RecordDeliveredLate()  { m.deliveredLate.Add(1) }
func (m *Metrics) RecordDeliveryFailed() { m.deliveryFailed.Add(1) }
func (m *Metrics) RecordParseFailed()    { m.parseFailed.Add(1) }
func (m *Metrics) RecordArmFailed()      { m.armFailed.Add(1) }

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Created:        m.created.Load(),
		Deleted:        m.deleted.Load(),
		Delivered:      m.delivered.Load(),
		DeliveredLate:  m.deliveredLate.Load(),
		DeliveryFailed: m.deliveryFailed.Load(),
		ParseFailed:    m.parseFailed.Load(),
		ArmFailed:      m.armFailed.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Created        int64 `json:"created"`
	Deleted        int64 `json:"deleted"`
	Delivered      int64 `json:"delivered"`
	DeliveredLate  int64 `json:"delivered_late"`
	DeliveryFailed int64 `json:"delivery_failed"`
	ParseFailed    int64 `json:"parse_failed"`
	ArmFailed      int64 `json:"arm_failed"`
}

// DeliverySuccessRate returns the share of delivery attempts that reached
// every channel, as a percentage (0-100).
func (s MetricsSnapshot) DeliverySuccessRate() float64 {
	attempts := s.Delivered + s.DeliveryFailed
	if attempts == 0 {
		return 100.0
	}
	return float64(s.Delivered) / float64(attempts) * 100.0
}

package uatypes

import (
	"sync/atomic"
)

// Counter is a simple atomic counter.
type Counter struct {
	value int64
}

// Add adds delta to the counter.
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Reset resets the counter to zero.
func (c *Counter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

// AllocMetrics accounts for every allocation the lifecycle engine performs
// or adopts. Outstanding totals must return to zero once every value
// produced by a registry has been deleted; the rollback guarantees of the
// engine are stated in terms of these counters.
type AllocMetrics struct {
	ObjectsAllocated Counter
	ObjectsReleased  Counter
	BuffersAllocated Counter
	BuffersReleased  Counter
	BytesAllocated   Counter
	BytesReleased    Counter
	ValuesAdopted    Counter
	CopyRollbacks    Counter
}

// NewAllocMetrics creates a new AllocMetrics instance.
func NewAllocMetrics() *AllocMetrics {
	return &AllocMetrics{}
}

// OutstandingObjects returns the number of live engine-allocated or adopted
// top-level values.
func (m *AllocMetrics) OutstandingObjects() int64 {
	return m.ObjectsAllocated.Value() - m.ObjectsReleased.Value()
}

// OutstandingBuffers returns the number of live owned buffers (string
// bodies and array backings).
func (m *AllocMetrics) OutstandingBuffers() int64 {
	return m.BuffersAllocated.Value() - m.BuffersReleased.Value()
}

// OutstandingBytes returns the number of live owned buffer bytes.
func (m *AllocMetrics) OutstandingBytes() int64 {
	return m.BytesAllocated.Value() - m.BytesReleased.Value()
}

// Collect returns all metrics as a map (compatible with expvar/prometheus).
func (m *AllocMetrics) Collect() map[string]interface{} {
	return map[string]interface{}{
		"objects_allocated":   m.ObjectsAllocated.Value(),
		"objects_released":    m.ObjectsReleased.Value(),
		"buffers_allocated":   m.BuffersAllocated.Value(),
		"buffers_released":    m.BuffersReleased.Value(),
		"bytes_allocated":     m.BytesAllocated.Value(),
		"bytes_released":      m.BytesReleased.Value(),
		"values_adopted":      m.ValuesAdopted.Value(),
		"copy_rollbacks":      m.CopyRollbacks.Value(),
		"outstanding_objects": m.OutstandingObjects(),
		"outstanding_buffers": m.OutstandingBuffers(),
		"outstanding_bytes":   m.OutstandingBytes(),
	}
}

// Reset resets all metrics.
func (m *AllocMetrics) Reset() {
	m.ObjectsAllocated.Reset()
	m.ObjectsReleased.Reset()
	m.BuffersAllocated.Reset()
	m.BuffersReleased.Reset()
	m.BytesAllocated.Reset()
	m.BytesReleased.Reset()
	m.ValuesAdopted.Reset()
	m.CopyRollbacks.Reset()
}

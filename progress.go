package pixelart

import "sync/atomic"

// ProgressSink receives one event per completed cell (Grid) or leaf
// (QuadTree). OnCell may be called concurrently from any worker; an
// implementation shared across workers must be internally synchronized.
// Sequential conversions call OnCell in row-major (Grid) / pre-order
// (QuadTree) order; parallel conversions make no ordering guarantee.
type ProgressSink interface {
	OnCell(rowOrY, colOrX uint32)
}

// CountingProgressSink is a thread-safe ProgressSink that accumulates a
// completed-count against a fixed total, for a caller-driven "X of N"
// display. The completed count participates in no correctness guarantee
// (spec.md §5); it exists purely for observation.
type CountingProgressSink struct {
	total     uint64
	completed uint64
}

// NewCountingProgressSink returns a CountingProgressSink with the given
// expected total event count.
func NewCountingProgressSink(total uint64) *CountingProgressSink {
	return &CountingProgressSink{total: total}
}

// OnCell implements ProgressSink.
func (s *CountingProgressSink) OnCell(_, _ uint32) {
	atomic.AddUint64(&s.completed, 1)
}

// Completed returns the current (done, total) pair.
func (s *CountingProgressSink) Completed() (done, total uint64) {
	return atomic.LoadUint64(&s.completed), s.total
}

// CallbackProgressSink adapts a plain function to ProgressSink. The
// function itself must be safe for concurrent invocation if the sink is
// used with ConvertParallel.
type CallbackProgressSink struct {
	Func func(rowOrY, colOrX uint32)
}

// NewCallbackProgressSink wraps fn as a ProgressSink.
func NewCallbackProgressSink(fn func(rowOrY, colOrX uint32)) *CallbackProgressSink {
	return &CallbackProgressSink{Func: fn}
}

// OnCell implements ProgressSink.
func (s *CallbackProgressSink) OnCell(rowOrY, colOrX uint32) {
	if s.Func != nil {
		s.Func(rowOrY, colOrX)
	}
}

package monitoring

import (
	"sync/atomic"
	"time"
)

// A ProgressBar follows a quantity of a run, such as the current cycle or the
// number of packets in flight and delivered. Counters may be updated from
// the simulation goroutine while the monitor reads them.
type ProgressBar struct {
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64

	finished   atomic.Uint64
	inProgress atomic.Uint64
}

// ProgressBarSnapshot is the JSON view of a progress bar.
type ProgressBarSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`

	// Rate is the number of finished elements per wall-clock second.
	Rate float64 `json:"rate"`
}

// Snapshot reads the counters.
func (b *ProgressBar) Snapshot() ProgressBarSnapshot {
	s := ProgressBarSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.finished.Load(),
		InProgress: b.inProgress.Load(),
	}

	if elapsed := time.Since(b.StartTime).Seconds(); elapsed > 0 {
		s.Rate = float64(s.Finished) / elapsed
	}

	return s
}

// IncrementInProgress adds elements that started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.inProgress.Add(amount)
}

// IncrementFinished adds elements that finished without being started.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.finished.Add(amount)
}

// SetFinished overwrites the number of finished elements.
func (b *ProgressBar) SetFinished(n uint64) {
	b.finished.Store(n)
}

// MoveInProgressToFinished marks started elements as finished.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.inProgress.Add(^(amount - 1))
	b.finished.Add(amount)
}

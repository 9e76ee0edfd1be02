package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts finished steps of a job and estimates the time left
// from the average step duration so far.
type ProgressTracker struct {
	mu    sync.Mutex
	total int
	done  int
	start time.Time
	now   func() time.Time
}

// NewProgressTracker creates a tracker for total steps, starting now
func NewProgressTracker(total int) *ProgressTracker {
	return newProgressTracker(total, time.Now)
}

func newProgressTracker(total int, now func() time.Time) *ProgressTracker {
	return &ProgressTracker{total: total, start: now(), now: now}
}

// Advance marks one more step finished and returns the new count
func (p *ProgressTracker) Advance() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done < p.total {
		p.done++
	}
	return p.done
}

// Percent returns finished steps as 0-100
func (p *ProgressTracker) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total <= 0 {
		return 0
	}
	return p.done * 100 / p.total
}

// ETA estimates the remaining time. It is empty until a step has finished
// and once all have.
func (p *ProgressTracker) ETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == 0 || p.done >= p.total {
		return ""
	}

	perStep := p.now().Sub(p.start) / time.Duration(p.done)
	return formatDuration(perStep * time.Duration(p.total-p.done))
}

// Elapsed returns the time since the tracker was created
func (p *ProgressTracker) Elapsed() time.Duration {
	return p.now().Sub(p.start)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "less than a second"
	case d < time.Minute:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}

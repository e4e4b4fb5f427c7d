package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts finished plates for progress logging. It is safe
// for use by the worker pool.
type ProgressTracker struct {
	Stage     string
	Total     int
	StartTime time.Time

	mu      sync.Mutex
	current int
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(stage string, total int) *ProgressTracker {
	return &ProgressTracker{
		Stage:     stage,
		Total:     total,
		StartTime: time.Now(),
	}
}

// Increment marks one more item done and returns the new count
func (p *ProgressTracker) Increment() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	return p.current
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.current) / float64(p.Total) * 100
	}
	return p.current, p.Total, percentage
}

// GetETA estimates the time remaining from the average rate so far
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 || p.Total == 0 {
		return "calculating..."
	}

	elapsed := time.Since(p.StartTime)
	remaining := time.Duration(float64(elapsed) / float64(p.current) * float64(p.Total-p.current))
	return formatDuration(remaining)
}

// IsComplete returns true once every item is done
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current >= p.Total
}

// GetElapsedTimeString returns a formatted elapsed time string
func (p *ProgressTracker) GetElapsedTimeString() string {
	return formatDuration(time.Since(p.StartTime))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}

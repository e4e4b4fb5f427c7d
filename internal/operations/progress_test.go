package operations

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	p := NewProgressTracker(StageIDPlates, 4)
	assert.Equal(t, "calculating...", p.GetETA())
	assert.False(t, p.IsComplete())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Increment()
		}()
	}
	wg.Wait()

	current, total, pct := p.GetProgress()
	assert.Equal(t, 4, current)
	assert.Equal(t, 4, total)
	assert.Equal(t, 100.0, pct)
	assert.True(t, p.IsComplete())
	assert.Equal(t, "0 seconds", p.GetETA())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30 seconds", formatDuration(30*time.Second))
	assert.Equal(t, "1.5 minutes", formatDuration(90*time.Second))
	assert.Equal(t, "2.0 hours", formatDuration(2*time.Hour))
}

func TestProgressTracker_Empty(t *testing.T) {
	p := NewProgressTracker(StageIDPlates, 0)
	_, _, pct := p.GetProgress()
	assert.Equal(t, 0.0, pct)
	assert.True(t, p.IsComplete())
}

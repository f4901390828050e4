package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_Now(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	clock := NewFixedClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "Now does not advance on its own")
}

func TestFixedClock_SetAndAdvance(t *testing.T) {
	clock := NewFixedClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	clock.Advance(36 * time.Hour)
	assert.Equal(t, time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), clock.Now())

	target := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)
	assert.Equal(t, target, clock.Now())
}

func TestFixedClock_Concurrent(t *testing.T) {
	clock := NewFixedClock(time.Unix(0, 0).UTC())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Unix(50, 0).UTC(), clock.Now())
}

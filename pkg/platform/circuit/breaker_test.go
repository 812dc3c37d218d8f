package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one recorded call: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func record(b *Breaker, calls ...outcome) {
	for _, c := range calls {
		if c {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		calls    []outcome
		wantOpen bool
	}{
		{"fresh breaker is closed", nil, nil, false},
		{"failures below threshold", []Option{WithFailureThreshold(3)}, []outcome{fail, fail}, false},
		{"failures reach threshold", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, fail}, true},
		{"success resets the failure run", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, ok, fail, fail}, false},
		{"one success is not enough to close", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok}, true},
		{"success run closes", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok, ok}, false},
		{"failure while open restarts the success run", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok, fail, ok}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("llm", tt.opts...)
			record(b, tt.calls...)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("llm", WithFailureThreshold(2), WithSuccessThreshold(1))

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.Equal(t, StateChange{}, change)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	fallback, change = b.RecordFailure()
	assert.True(t, fallback, "an open breaker keeps the fallback")
	assert.False(t, change.Opened, "opening is reported once")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerCooldownLetsTrialCallsThrough(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	b := New("llm", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	require.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow(), "trial call allowed once the cooldown passed")
	assert.True(t, b.IsOpen(), "a trial call does not close the breaker by itself")
}

func TestBreakerReset(t *testing.T) {
	b := New("llm", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, "llm", b.Name())
}

func TestBreakerConcurrentUse(t *testing.T) {
	b := New("llm", WithFailureThreshold(500))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Allow()
				b.RecordFailure()
			}
		}()
	}
	wg.Wait()
	assert.True(t, b.IsOpen(), "every failure is counted")
}

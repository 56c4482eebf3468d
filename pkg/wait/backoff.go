// Package wait implements a small exponential backoff strategy, adapted
// from the distributed-queue module's pkg/wait package.
package wait

import "time"

// NewBackoff creates a new BackoffStrategy.
func NewBackoff(base time.Duration, factor float32, backoffCap time.Duration) *BackoffStrategy {
	return &BackoffStrategy{
		initialDuration: base,
		factor:          factor,
		durationCap:     backoffCap,
	}
}

// BackoffStrategy tracks an increasing delay between retries of some
// fallible operation, capped at durationCap.
type BackoffStrategy struct {
	initialDuration time.Duration
	factor          float32
	durationCap     time.Duration

	duration       time.Duration
	nextActivation time.Time
}

// Backoff advances the strategy to its next, larger delay.
func (s *BackoffStrategy) Backoff() {
	s.duration = s.initialDuration + time.Duration(float32(s.duration)*s.factor)
	if s.duration > s.durationCap {
		s.duration = s.durationCap
	}
	s.nextActivation = time.Now().Add(s.duration)
}

// Active returns true once the current backoff window has elapsed.
func (s *BackoffStrategy) Active() bool {
	return time.Now().After(s.nextActivation)
}

// After returns a channel that fires after the current backoff duration.
func (s *BackoffStrategy) After() <-chan time.Time {
	return time.After(s.duration)
}

// Reset returns the strategy to its zero-delay state.
func (s *BackoffStrategy) Reset() {
	s.duration = 0
	s.nextActivation = time.Now()
}

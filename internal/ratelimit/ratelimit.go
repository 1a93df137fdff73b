// internal/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CounterStore tracks rolling hourly and daily send counts.
type CounterStore interface {
	Counts(ctx context.Context) (hourly, daily int, err error)
	Increment(ctx context.Context) error
}

// Decision is the answer to "may the worker send right now".
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason"`
	HourlyCount     int    `json:"hourly_count"`
	DailyCount      int    `json:"daily_count"`
	HourlyRemaining int    `json:"hourly_remaining"`
	DailyRemaining  int    `json:"daily_remaining"`
}

// Limiter is the hard backpressure gate on the dequeue path. When either
// ceiling is met, jobs stay pending with no attempts penalty and are
// retried on the next cycle. The ceilings travel with each call so a
// limiter shared across goroutines holds no mutable state of its own.
type Limiter struct {
	Store CounterStore
}

func New(store CounterStore) *Limiter {
	return &Limiter{Store: store}
}

func (l *Limiter) CanSend(ctx context.Context, hourlyMax, dailyMax int) (Decision, error) {
	hourly, daily, err := l.Store.Counts(ctx)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:         true,
		Reason:          "OK",
		HourlyCount:     hourly,
		DailyCount:      daily,
		HourlyRemaining: hourlyMax - hourly,
		DailyRemaining:  dailyMax - daily,
	}
	if hourly >= hourlyMax {
		d.Allowed = false
		d.Reason = fmt.Sprintf("hourly limit reached (%d/%d)", hourly, hourlyMax)
		d.HourlyRemaining = 0
	} else if daily >= dailyMax {
		d.Allowed = false
		d.Reason = fmt.Sprintf("daily limit reached (%d/%d)", daily, dailyMax)
		d.DailyRemaining = 0
	}
	return d, nil
}

// RecordSend counts one delivered email against both windows.
func (l *Limiter) RecordSend(ctx context.Context) error {
	return l.Store.Increment(ctx)
}

// MemoryStore keeps counters in process, bucketed by hour and day so the
// windows roll over without a background sweeper.
type MemoryStore struct {
	mu        sync.Mutex
	hourKey   string
	dayKey    string
	hourCount int
	dayCount  int
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreAt pins the clock, for tests.
func NewMemoryStoreAt(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

func (s *MemoryStore) roll() {
	t := s.now()
	hk := t.Format("2006010215")
	dk := t.Format("20060102")
	if hk != s.hourKey {
		s.hourKey = hk
		s.hourCount = 0
	}
	if dk != s.dayKey {
		s.dayKey = dk
		s.dayCount = 0
	}
}

func (s *MemoryStore) Counts(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll()
	return s.hourCount, s.dayCount, nil
}

func (s *MemoryStore) Increment(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll()
	s.hourCount++
	s.dayCount++
	return nil
}

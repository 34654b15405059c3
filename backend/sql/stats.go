package sql

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultSlowThreshold is the duration after which a statement counts as slow.
const DefaultSlowThreshold = 100 * time.Millisecond

// QueryStats counts the statements issued by a Store.
type QueryStats struct {
	// Queries is the number of SELECT statements.
	Queries atomic.Int64
	// Execs is the number of INSERT and DDL statements.
	Execs atomic.Int64
	// Duration is the time spent in statements, in nanoseconds.
	Duration atomic.Int64
	// Slow is the number of statements exceeding the slow threshold.
	Slow atomic.Int64
	// Errors is the number of failed statements.
	Errors atomic.Int64
}

// Snapshot returns the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.Queries.Load(),
		Execs:    s.Execs.Load(),
		Duration: time.Duration(s.Duration.Load()),
		Slow:     s.Slow.Load(),
		Errors:   s.Errors.Load(),
	}
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	s.Queries.Store(0)
	s.Execs.Store(0)
	s.Duration.Store(0)
	s.Slow.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Avg(), s.Slow, s.Errors,
	)
}

// SlowQueryHook is called for every statement exceeding the slow threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, d time.Duration)

func (s *Store) record(ctx context.Context, exec bool, query string, args []any, start time.Time, err error) {
	d := time.Since(start)
	if exec {
		s.stats.Execs.Add(1)
	} else {
		s.stats.Queries.Add(1)
	}
	s.stats.Duration.Add(int64(d))
	if err != nil {
		s.stats.Errors.Add(1)
	}
	if s.slow > 0 && d >= s.slow {
		s.stats.Slow.Add(1)
		if s.hook != nil {
			s.hook(ctx, query, args, d)
		}
	}
}

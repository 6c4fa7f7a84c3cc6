package validator

import (
	"context"
	"sync"
	"time"
)

// DailyCounter counts phone occurrences per calendar day. Incr is a
// single atomic increment-and-read so concurrent ingestion never
// undercounts. The day boundary is midnight in the configured
// timezone.
type DailyCounter interface {
	Incr(ctx context.Context, phone string) (int64, error)
}

// MemoryCounter is the in-process DailyCounter. The Redis-backed
// counter in infrastructure/cache is used when ingestion runs in more
// than one process; this one backs tests and single-node runs.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	day    string
	loc    *time.Location
	now    func() time.Time
}

func NewMemoryCounter(loc *time.Location) *MemoryCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryCounter{
		counts: make(map[string]int64),
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock overrides the clock; tests drive the day rollover with it.
func (c *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	c.now = now
	return c
}

func (c *MemoryCounter) Incr(_ context.Context, phone string) (int64, error) {
	day := c.now().In(c.loc).Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.day != day {
		c.day = day
		c.counts = make(map[string]int64)
	}
	c.counts[phone]++
	return c.counts[phone], nil
}

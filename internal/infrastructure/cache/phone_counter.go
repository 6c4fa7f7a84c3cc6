package cache

import (
	"context"
	"fmt"
	"time"
)

// PhoneCounter counts daily listing sightings per phone number with a
// Redis INCR keyed by the local calendar date. It implements
// validator.DailyCounter; the key expires two days out so yesterday's
// counters clean themselves up.
type PhoneCounter struct {
	redis *Redis
	loc   *time.Location
	now   func() time.Time
}

func NewPhoneCounter(r *Redis, loc *time.Location) *PhoneCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &PhoneCounter{redis: r, loc: loc, now: time.Now}
}

func (c *PhoneCounter) Incr(ctx context.Context, phone string) (int64, error) {
	if c.redis.isUnavailable() {
		return 0, ErrUnavailable
	}
	day := c.now().In(c.loc).Format("2006-01-02")
	key := fmt.Sprintf("phone:daily:%s:%s", day, phone)

	n, err := c.redis.client.Incr(ctx, key).Result()
	if err != nil {
		c.redis.warnUnavailableOnce(err)
		return 0, err
	}
	if n == 1 {
		_ = c.redis.client.Expire(ctx, key, 48*time.Hour).Err()
	}
	return n, nil
}

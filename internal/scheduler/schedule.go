package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// FixedRate is a cron.Schedule firing every Period, anchored on Anchor. Firing instants are
// Anchor + k*Period for k >= 1 regardless of how long the fired job takes. Instants missed while
// the process was busy or asleep are skipped, not replayed.
type FixedRate struct {
	Anchor time.Time
	Period time.Duration
}

func NewFixedRate(anchor time.Time, period time.Duration) FixedRate {
	return FixedRate{Anchor: anchor, Period: period}
}

// Next returns the first firing instant strictly after t
func (s FixedRate) Next(t time.Time) time.Time {
	if s.Period <= 0 {
		return time.Time{}
	}

	k := time.Duration(1)
	if elapsed := t.Sub(s.Anchor); elapsed >= 0 {
		k = elapsed/s.Period + 1
	}
	return s.Anchor.Add(k * s.Period)
}

var _ cron.Schedule = FixedRate{}

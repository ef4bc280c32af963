package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"batchrunner/internal/scheduler"
)

func TestFixedRate_Next(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := scheduler.NewFixedRate(anchor, 5*time.Second)

	tests := []struct {
		name     string
		at       time.Time
		expected time.Time
	}{
		{"before anchor", anchor.Add(-time.Hour), anchor.Add(5 * time.Second)},
		{"at anchor", anchor, anchor.Add(5 * time.Second)},
		{"within first period", anchor.Add(3 * time.Second), anchor.Add(5 * time.Second)},
		{"exactly on a firing instant", anchor.Add(5 * time.Second), anchor.Add(10 * time.Second)},
		{"late wake up skips missed instants", anchor.Add(17 * time.Second), anchor.Add(20 * time.Second)},
		{"different location", anchor.Add(12 * time.Second).In(time.FixedZone("SGT", 8*3600)), anchor.Add(15 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := s.Next(tt.at)
			assert.True(t, tt.expected.Equal(next), "expected %v, got %v", tt.expected, next)
			assert.True(t, next.After(tt.at))
		})
	}

	t.Run("firing is independent of job duration", func(t *testing.T) {
		// a job finishing at any point within the period does not move the next instant
		for _, finished := range []time.Duration{time.Millisecond, 2 * time.Second, 4999 * time.Millisecond} {
			next := s.Next(anchor.Add(5*time.Second + finished))
			assert.True(t, anchor.Add(10*time.Second).Equal(next))
		}
	})

	t.Run("non positive period never fires", func(t *testing.T) {
		assert.True(t, scheduler.NewFixedRate(anchor, 0).Next(anchor).IsZero())
	})
}

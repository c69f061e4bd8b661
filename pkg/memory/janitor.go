package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/demidbot/demidbot/pkg/logger"
)

// Janitor runs the optional time-based retention sweep on a cron schedule.
// It complements the always-on per-chat count cap.
type Janitor struct {
	store     *SQLiteStore
	schedule  string
	retention time.Duration
	cron      *gronx.Gronx
}

// NewJanitor validates the cron schedule up front. retention must be
// positive; messages older than it are deleted on each due tick.
func NewJanitor(store *SQLiteStore, schedule string, retention time.Duration) (*Janitor, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("janitor retention must be positive, got %s", retention)
	}
	g := gronx.New()
	if !g.IsValid(schedule) {
		return nil, fmt.Errorf("invalid prune schedule %q", schedule)
	}
	return &Janitor{
		store:     store,
		schedule:  schedule,
		retention: retention,
		cron:      g,
	}, nil
}

// Run blocks until ctx is cancelled, checking the schedule once a minute.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := j.cron.IsDue(j.schedule)
			if err != nil || !due {
				continue
			}
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)
	n, err := j.store.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.ErrorCF("memory", "Retention sweep failed", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if n > 0 {
		logger.InfoCF("memory", "Retention sweep pruned messages", map[string]any{
			"pruned": n,
			"cutoff": cutoff.Format(time.RFC3339),
		})
	}
}

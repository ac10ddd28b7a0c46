// Package scheduler runs daily housekeeping: old history entries are
// purged at UTC midnight. Exhaustion state is not touched here — it resets
// lazily on the first read of a new day.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"pagebrief/internal/config"
	"pagebrief/internal/database"
)

const (
	DailyPurgeSpec        = "0 0 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0

	purgeTimeout = time.Minute
)

type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	db   *database.Database
	log  *slog.Logger
}

func New(ctx context.Context, db *database.Database, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:  ctx,
		cron: c,
		db:   db,
		log:  log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(DailyPurgeSpec, s.purgeHistory); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) purgeHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, purgeTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-config.HistoryRetention)

	purged, err := s.db.PurgeSummariesBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to purge old summaries",
			"error", err,
			"cutoff", cutoff)

		return
	}

	if purged > 0 {
		s.log.InfoContext(ctx, "Old summaries are purged",
			"purgedCount", purged,
			"cutoff", cutoff)
	}
}

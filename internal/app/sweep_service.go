package app

import (
	"context"
	"fmt"
	"time"

	"delivery_scheduler/internal/domain/delivery"

	"github.com/sirupsen/logrus"
)

// SweepStats summarizes one reconciliation run over all ledgers.
type SweepStats struct {
	Processed int // ledgers examined
	Updated   int // ledgers persisted with changes
	Failed    int // ledgers skipped after a persistence failure
}

// SweepService runs the two batch reconciliation jobs: monthly log
// regeneration and the daily completion sweep. Both iterate every ledger and
// treat each one independently; a failure on one ledger is logged and the
// sweep moves on.
type SweepService struct {
	ledgerRepo delivery.Repository
	loc        *time.Location
	now        func() time.Time
	logger     *logrus.Logger
}

func NewSweepService(lr delivery.Repository, loc *time.Location, now func() time.Time, logger *logrus.Logger) *SweepService {
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		ledgerRepo: lr,
		loc:        loc,
		now:        now,
		logger:     logger,
	}
}

// RunMonthlyGeneration regenerates the current calendar month for every
// ledger using its stored config, preserving events before the month start.
// Re-running it in the same month with unchanged state is a no-op in effect:
// the replaced window regenerates to the same events.
func (s *SweepService) RunMonthlyGeneration(ctx context.Context) (SweepStats, error) {
	stats := SweepStats{}

	ledgers, err := s.ledgerRepo.ListAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list ledgers for monthly generation: %w", err)
	}

	now := s.now().In(s.loc)
	windowStart := delivery.StartOfMonth(now, s.loc)
	windowEnd := delivery.EndOfMonth(now, s.loc)

	for _, ledger := range ledgers {
		stats.Processed++

		generated := delivery.GenerateEvents(windowStart, windowEnd, ledger.Config, s.loc)
		ledger.MergeGenerated(windowStart, generated, s.loc)

		if err := s.ledgerRepo.Update(ctx, ledger); err != nil {
			stats.Failed++
			s.logger.WithFields(logrus.Fields{
				"subscription_id": ledger.SubscriptionID,
				"error":           err,
			}).Error("Monthly generation failed for ledger, skipping")
			continue
		}
		stats.Updated++
	}

	s.logger.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"updated":   stats.Updated,
		"failed":    stats.Failed,
	}).Info("Monthly delivery log generation finished")
	return stats, nil
}

// RunDailyCompletion marks every elapsed event that is neither delivered nor
// cancelled as delivered. This is the only path that sets the delivered flag.
// Ledgers without eligible events are not rewritten, so a repeat run with no
// intervening changes performs no writes.
func (s *SweepService) RunDailyCompletion(ctx context.Context) (SweepStats, error) {
	stats := SweepStats{}

	ledgers, err := s.ledgerRepo.ListAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list ledgers for completion sweep: %w", err)
	}

	today := delivery.StartOfDay(s.now().In(s.loc), s.loc)

	for _, ledger := range ledgers {
		stats.Processed++

		changed := false
		for i := range ledger.Log {
			ev := &ledger.Log[i]
			if ev.Day(s.loc).Before(today) && !ev.Delivered && !ev.Cancelled {
				ev.Delivered = true
				changed = true
			}
		}
		if !changed {
			continue
		}

		if err := s.ledgerRepo.Update(ctx, ledger); err != nil {
			stats.Failed++
			s.logger.WithFields(logrus.Fields{
				"subscription_id": ledger.SubscriptionID,
				"error":           err,
			}).Error("Completion sweep failed for ledger, skipping")
			continue
		}
		stats.Updated++
	}

	s.logger.WithFields(logrus.Fields{
		"processed": stats.Processed,
		"updated":   stats.Updated,
		"failed":    stats.Failed,
	}).Info("Daily delivery completion sweep finished")
	return stats, nil
}

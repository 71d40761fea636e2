package scheduler

import (
	"context"
	"time"

	"delivery_scheduler/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SweepScheduler drives the two reconciliation jobs on cron timers, both
// evaluated in the business timezone. The jobs run independently of request
// traffic and never block it.
type SweepScheduler struct {
	cronEngine      *cron.Cron
	sweeps          *app.SweepService
	logger          *logrus.Logger
	cronSpecMonthly string
	cronSpecDaily   string
}

func NewSweepScheduler(
	sweeps *app.SweepService,
	loc *time.Location,
	logger *logrus.Logger,
	cronSpecMonthly string, // e.g. "10 0 1 * *" (00:10 on the 1st)
	cronSpecDaily string, // e.g. "35 18 * * *" (18:35 daily)
) *SweepScheduler {
	return &SweepScheduler{
		cronEngine:      cron.New(cron.WithLocation(loc)),
		sweeps:          sweeps,
		logger:          logger,
		cronSpecMonthly: cronSpecMonthly,
		cronSpecDaily:   cronSpecDaily,
	}
}

func (s *SweepScheduler) Start() {
	s.logger.Info("Starting sweep scheduler...")

	// Monthly regeneration on the 1st of each month
	_, err := s.cronEngine.AddFunc(s.cronSpecMonthly, func() {
		s.logger.Info("Cron job triggered for monthly delivery log generation")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.sweeps.RunMonthlyGeneration(ctx); err != nil {
			s.logger.Errorf("Error during monthly delivery log generation: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add monthly generation cron job: %v", err)
	}

	// Daily sweep marking elapsed deliveries as completed
	_, err = s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily delivery completion sweep")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.sweeps.RunDailyCompletion(ctx); err != nil {
			s.logger.Errorf("Error during daily delivery completion sweep: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add daily completion cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Sweep scheduler started with jobs")
}

func (s *SweepScheduler) Stop() {
	s.logger.Info("Stopping sweep scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Sweep scheduler gracefully stopped")
}

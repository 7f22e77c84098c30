package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron/v2"
)

// AttemptSweeper fails attempts that sat in payment_pending past the payment window.
type AttemptSweeper struct {
	attemptsRepo models.AttemptsRepo
	window       time.Duration
	interval     time.Duration
	logger       *slog.Logger
	scheduler    gocron.Scheduler
	now          func() time.Time
}

func NewAttemptSweeper(attemptsRepo models.AttemptsRepo, window, interval time.Duration, logger *slog.Logger) *AttemptSweeper {
	return &AttemptSweeper{
		attemptsRepo: attemptsRepo,
		window:       window,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Sweep runs one expiry pass.
func (s *AttemptSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.window)
	n, err := s.attemptsRepo.ExpirePendingAttempts(ctx, cutoff, ReasonWindowExpired)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired pending booking attempts", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *AttemptSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("attempt sweep failed", "error", err)
	}
}

func (s *AttemptSweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.run),
		gocron.WithName("expire-pending-attempts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return errors.Wrap(err, "failed to schedule attempt sweeper")
	}
	sched.Start()
	s.scheduler = sched
	s.logger.Info("attempt sweeper started", "interval", s.interval, "payment_window", s.window)
	return nil
}

func (s *AttemptSweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

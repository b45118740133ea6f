package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
)

// DueUserLister finds learners with at least one active point due at now.
type DueUserLister interface {
	ListUsersWithDuePoints(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Sweeper emits a review.due_digest_requested event for every learner with
// something due.
type Sweeper struct {
	users   DueUserLister
	emitter events.EventEmitter
	clock   clock.Clock
	logger  *slog.Logger
}

// NewSweeper creates a Sweeper. It panics when users, emitter or clk is nil.
func NewSweeper(users DueUserLister, emitter events.EventEmitter, clk clock.Clock, l *slog.Logger) *Sweeper {
	if users == nil {
		panic("users cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	return &Sweeper{
		users:   users,
		emitter: emitter,
		clock:   clk,
		logger:  l.With(slog.String("component", "reminder_sweeper")),
	}
}

// Sweep requests a digest for each learner with due points and returns how
// many requests were emitted. A failed request does not stop the sweep; the
// failures are joined into the returned error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	users, err := s.users.ListUsersWithDuePoints(ctx, now)
	if err != nil {
		log.Error("failed to list users with due points", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to list users with due points: %w", err)
	}

	var (
		emitted int
		errs    []error
	)
	for _, userID := range users {
		event, err := events.NewEvent(events.TypeDueDigestRequested, userID, nil, now)
		if err == nil {
			err = s.emitter.EmitEvent(ctx, event)
		}
		if err != nil {
			log.Warn("failed to request due digest",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		emitted++
	}

	log.Info("reminder sweep finished",
		slog.Int("users_due", len(users)),
		slog.Int("requests_emitted", emitted))
	return emitted, errors.Join(errs...)
}

// Scheduler runs a Sweeper on a cron schedule.
type Scheduler struct {
	cron    *gocron.Scheduler
	sweeper *Sweeper
	logger  *slog.Logger
}

// NewScheduler registers the sweep under the five-field cron spec,
// evaluated in UTC. Overlapping runs are skipped.
func NewScheduler(spec string, sweeper *Sweeper, l *slog.Logger) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	s := &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		sweeper: sweeper,
		logger:  l.With(slog.String("component", "reminder_scheduler")),
	}
	s.cron.SingletonModeAll()

	if _, err := s.cron.Cron(spec).Do(s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if _, err := s.sweeper.Sweep(context.Background()); err != nil {
		s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
	}
}

// Start begins running sweeps in the background.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	if _, next := s.cron.NextRun(); !next.IsZero() {
		s.logger.Info("reminder scheduler started", slog.Time("next_run", next))
	}
}

// Stop halts future sweeps and waits for a running one to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("reminder scheduler stopped")
}

// RunNow triggers an immediate sweep outside the schedule. It has no effect
// before Start.
func (s *Scheduler) RunNow() {
	s.cron.RunAll()
}

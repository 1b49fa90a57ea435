package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hapo/redmine-reminder/internal/database"
	"github.com/hapo/redmine-reminder/internal/models"
)

// ErrScanInProgress is returned when another scan holds the scan lease.
var ErrScanInProgress = errors.New("reminder scan already in progress")

// Dispatcher delivers one reminder. A nil error confirms delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, project *models.Project, r *models.Reminder, loc *time.Location) error
}

// Lease is a lock shared by every replica of the service.
type Lease interface {
	TryLock(ctx context.Context, key int64) (release func(), ok bool, err error)
}

type Options struct {
	// Concurrency bounds parallel deliveries in one pass. Defaults to 1.
	Concurrency int
	Clock       clock.Clock
	Lease       Lease
}

// Service runs scan passes: select due reminders, deliver each one and
// advance the delivered ones.
type Service struct {
	scanner     *Scanner
	dispatcher  Dispatcher
	advancer    *Advancer
	lease       Lease
	clock       clock.Clock
	concurrency int
	logger      *slog.Logger

	mu sync.Mutex
}

func NewService(scanner *Scanner, dispatcher Dispatcher, advancer *Advancer, logger *slog.Logger, opts Options) *Service {
	s := &Service{
		scanner:     scanner,
		dispatcher:  dispatcher,
		advancer:    advancer,
		lease:       opts.Lease,
		clock:       opts.Clock,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// ScanAndDispatch runs one pass and returns how many reminders were delivered.
// Overlapping calls, in this process or another replica, get ErrScanInProgress.
func (s *Service) ScanAndDispatch(ctx context.Context) (int, error) {
	if !s.mu.TryLock() {
		return 0, ErrScanInProgress
	}
	defer s.mu.Unlock()

	if s.lease != nil {
		release, ok, err := s.lease.TryLock(ctx, database.ScanLockKey)
		if err != nil {
			return 0, fmt.Errorf("failed to take scan lease: %w", err)
		}
		if !ok {
			return 0, ErrScanInProgress
		}
		defer release()
	}

	now := s.clock.Now()
	logger := s.logger.With("run_id", uuid.NewString())

	candidates, err := s.scanner.Scan(ctx, now)
	if err != nil {
		return 0, err
	}
	logger.InfoContext(ctx, "starting reminder processing", "candidates", len(candidates))

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, c := range candidates {
		g.Go(func() error {
			if s.deliver(ctx, logger, c, now) {
				sent.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	logger.InfoContext(ctx, "completed reminder processing", "sent", sent.Load(), "failed", int64(len(candidates))-sent.Load())
	return int(sent.Load()), nil
}

// deliver dispatches one candidate and advances it on success. Failures,
// panics included, stay inside this reminder.
func (s *Service) deliver(ctx context.Context, logger *slog.Logger, c Candidate, now time.Time) (ok bool) {
	r := c.Reminder
	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "panic while sending reminder", "reminder_id", r.ID, "panic", p)
			ok = false
		}
	}()

	if err := s.dispatcher.Dispatch(ctx, c.Project, r, c.Location); err != nil {
		logger.ErrorContext(ctx, "failed to send reminder",
			"reminder_id", r.ID, "project_id", c.Project.ID, "error", err)
		return false
	}
	logger.InfoContext(ctx, "sent reminder",
		"reminder_id", r.ID, "project_id", c.Project.ID, "timezone", c.Timezone)

	if err := s.advancer.Advance(ctx, r, c.Location, now); err != nil {
		logger.ErrorContext(ctx, "failed to advance reminder", "reminder_id", r.ID, "error", err)
	}
	return true
}

// Start schedules ScanAndDispatch on the cron expression. Runs never overlap;
// a run still busy at the next tick makes gocron skip that tick.
func (s *Service) Start(ctx context.Context, crontab string) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(func() {
			if _, err := s.ScanAndDispatch(ctx); err != nil {
				if errors.Is(err, ErrScanInProgress) {
					s.logger.WarnContext(ctx, "skipping scan tick", "error", err)
					return
				}
				s.logger.ErrorContext(ctx, "reminder scan failed", "error", err)
			}
		}),
		gocron.WithName("reminder-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		sched.Shutdown()
		return nil, fmt.Errorf("failed to register scan job: %w", err)
	}

	sched.Start()
	s.logger.InfoContext(ctx, "scheduler started", "cron", crontab)
	return sched, nil
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/smhi-observations/internal/report"
	"github.com/i474232898/smhi-observations/internal/weather"
)

// runTimeout bounds a single extremes computation, all station fetches included.
const runTimeout = 5 * time.Minute

// Publisher receives the extremes of every successful run.
type Publisher interface {
	Publish(ctx context.Context, ext weather.Extremes) error
}

// Scheduler periodically recomputes the temperature extremes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	stations  []string
	interval  time.Duration
	publisher Publisher
	logger    *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

// New creates a new Scheduler. stations may be empty to track every active
// station; publisher may be nil.
func New(service *weather.Service, stations []string, interval time.Duration, out io.Writer, publisher Publisher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		stations:  stations,
		interval:  interval,
		publisher: publisher,
		logger:    logger,
		out:       out,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately. Runs are cancelled once ctx is done,
// so Stop returns promptly after ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	// A slow run must finish before the next one starts.
	s.scheduler.SingletonModeAll()

	_, err := s.scheduler.Every(interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, weather.ErrNoData) && ctx.Err() == nil {
			s.logger.Error("scheduler: run failed", "err", err)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info("scheduler: started", "interval", interval.String(), "stations", len(s.stations))
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce computes the extremes, prints them and hands them to the publisher.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	logger.Info("scheduler: running temperature job")

	ext, _, err := s.service.Extremes(ctx, s.stations)
	if errors.Is(err, weather.ErrNoData) {
		logger.Warn("scheduler: no station reported a temperature")
		s.write(func(w io.Writer) error {
			_, werr := fmt.Fprintln(w, report.NoDataMessage)
			return werr
		})
		return err
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	s.write(func(w io.Writer) error {
		return report.WriteExtremes(w, ext)
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ext); err != nil {
			return fmt.Errorf("run %s: publish: %w", runID, err)
		}
	}

	logger.Info("scheduler: completed temperature job",
		"stations", ext.Stations,
		"duration", time.Since(start).String(),
	)
	return nil
}

func (s *Scheduler) write(fn func(io.Writer) error) {
	if s.out == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.out); err != nil {
		s.logger.Error("scheduler: write report", "err", err)
	}
}

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

const refreshTimeout = 30 * time.Second

// Refresher is the subset of the weather service the scheduler drives.
type Refresher interface {
	RecentSearches(ctx context.Context, limit int) ([]string, error)
	Refresh(ctx context.Context, city string) error
}

// Scheduler periodically re-fetches weather for the most recently searched
// cities so their cache entries stay warm.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	topN      int
	interval  time.Duration
}

// New creates a new Scheduler.
func New(service Refresher, interval time.Duration, topN int) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		topN:      topN,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.topN <= 0 {
		slog.Info("scheduler: cache refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(func() {
		s.runOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: cache refresh started", "interval", s.interval, "top_n", s.topN)
	return nil
}

// runOnce refreshes the topN most recent cities concurrently and returns how
// many refreshes succeeded.
func (s *Scheduler) runOnce(ctx context.Context) int {
	cities, err := s.service.RecentSearches(ctx, s.topN)
	if err != nil {
		slog.Error("scheduler: listing recent searches failed", "error", err)
		return 0
	}
	if len(cities) == 0 {
		return 0
	}

	slog.Debug("scheduler: refreshing recent cities", "count", len(cities))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, city := range cities {
		city := city // per-iteration copy (go directive < 1.22)
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()

			if err := s.service.Refresh(ctx, city); err != nil {
				slog.Warn("scheduler: refresh failed", "city", city, "error", err)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	slog.Debug("scheduler: refresh completed", "ok", ok, "total", len(cities))
	return ok
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

/*
scheduler.go - Periodic post table refresh

PURPOSE:
  Pulls the post list from the per-diem service on an interval and swaps
  it into the PostRegistry. Recomputes already running keep the table
  they started with; the next one sees the new table.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Refreshes once immediately on start
  - A failed or empty fetch keeps the current table

USAGE:
  scheduler := NewPostRefreshScheduler(client, registry, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RefreshPosts endpoint (manual refresh)
  - medevac/posts.go: PostTable, PostRegistry
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/medevac-engine/medevac"
	"go.uber.org/zap"
)

// ErrNoPostSource is returned when no per-diem service is configured.
var ErrNoPostSource = errors.New("post source not configured")

// PostSource supplies the full post list.
type PostSource interface {
	Posts(ctx context.Context) ([]medevac.Post, error)
}

// PostRefreshScheduler keeps the post table current.
type PostRefreshScheduler struct {
	Source        PostSource
	Registry      *medevac.PostRegistry
	CheckInterval time.Duration
	Timeout       time.Duration
	Enabled       bool

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastRun     time.Time
	lastRunLock sync.RWMutex
}

// NewPostRefreshScheduler creates a scheduler. It is disabled when source
// is nil.
func NewPostRefreshScheduler(source PostSource, registry *medevac.PostRegistry, logger *zap.Logger) *PostRefreshScheduler {
	return &PostRefreshScheduler{
		Source:        source,
		Registry:      registry,
		CheckInterval: 6 * time.Hour,
		Timeout:       time.Minute,
		Enabled:       source != nil,
		logger:        logger,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *PostRefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("post refresh disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	s.logger.Info("post refresh started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *PostRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.logger.Info("post refresh stopped")
	}
}

func (s *PostRefreshScheduler) run() {
	defer s.wg.Done()

	s.refreshLogged()

	for {
		select {
		case <-s.ticker.C:
			s.refreshLogged()
		case <-s.stop:
			return
		}
	}
}

func (s *PostRefreshScheduler) refreshLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("post refresh failed, keeping current table", zap.Error(err))
	}
}

// Refresh fetches the post list and replaces the table. It returns the
// number of posts now in effect.
func (s *PostRefreshScheduler) Refresh(ctx context.Context) (int, error) {
	if s.Source == nil {
		return 0, ErrNoPostSource
	}

	posts, err := s.Source.Posts(ctx)
	if err != nil {
		return s.Registry.Current().Len(), err
	}
	if len(posts) == 0 {
		s.logger.Warn("post source returned no posts, keeping current table")
		return s.Registry.Current().Len(), nil
	}

	table := s.Registry.Replace(posts)

	s.lastRunLock.Lock()
	s.lastRun = time.Now()
	s.lastRunLock.Unlock()

	s.logger.Info("post table refreshed", zap.Int("post_count", table.Len()))
	return table.Len(), nil
}

// LastRun returns when the table was last replaced, or the zero time.
func (s *PostRefreshScheduler) LastRun() time.Time {
	s.lastRunLock.RLock()
	defer s.lastRunLock.RUnlock()
	return s.lastRun
}

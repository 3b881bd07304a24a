package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"EquityLens/internal/analytics"
	"EquityLens/internal/dashboard"
	"EquityLens/internal/logger"
	"EquityLens/internal/notifier"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Manager  *dashboard.Manager
	Notifier Sender // nil disables digests and alerts
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in UTC.
func NewScheduler(ctx context.Context, m *dashboard.Manager, n Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		Manager:  m,
		Notifier: n,
		Ctx:      ctx,
	}
}

// RegisterAll registers the refresh task and, when digestCron is set, the digest task.
func (s *Scheduler) RegisterAll(refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if digestCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Infof("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Infof("scheduler stopped")
}

// RunDigestNow sends the digest immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

// refreshTask reloads every source. If the fetch fails the previous data is
// recomputed so the window still rolls forward.
func (s *Scheduler) refreshTask() {
	logger.Infof("running refresh task")
	err := s.Manager.Reload(s.Ctx)
	if err == nil {
		return
	}
	logger.Errorf("refresh reload: %v", err)
	if rerr := s.Manager.Refresh(); rerr != nil {
		if !errors.Is(rerr, dashboard.ErrNotLoaded) {
			logger.Errorf("refresh recompute: %v", rerr)
		}
		s.trySend(errorReply(fmt.Errorf("data refresh failed: %w", err)))
	}
}

func (s *Scheduler) digestTask() {
	logger.Infof("running digest task")
	s.trySend(s.summary())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logger.Errorf("send notification: %v", err)
	}
}

func (s *Scheduler) summary() string {
	res, err := s.Manager.Active()
	if err != nil {
		return errorReply(err)
	}
	return notifier.FormatSummary(res, analytics.ComputeKPIs(res))
}

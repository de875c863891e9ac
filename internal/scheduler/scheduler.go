package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	dispatchTimeout = time.Minute
	refreshTimeout  = 30 * time.Minute
)

// OutboxDispatcher delivers queued notifications.
type OutboxDispatcher interface {
	DispatchPending(ctx context.Context) (sent int, failed int, err error)
}

// PriceListRefresher re-imports stored price list URLs.
type PriceListRefresher interface {
	RefreshAll(ctx context.Context) (imported int, failed int)
}

// Scheduler runs the background jobs of the API process.
type Scheduler struct {
	cron        *cron.Cron
	dispatcher  OutboxDispatcher
	refresher   PriceListRefresher
	outboxSpec  string
	refreshSpec string
}

// NewScheduler builds the scheduler. An empty refreshSpec leaves the price
// list refresh job out.
func NewScheduler(dispatcher OutboxDispatcher, refresher PriceListRefresher, outboxSpec, refreshSpec string) *Scheduler {
	return &Scheduler{
		// overlapping runs of the same job are skipped
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		dispatcher:  dispatcher,
		refresher:   refresher,
		outboxSpec:  outboxSpec,
		refreshSpec: refreshSpec,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.outboxSpec, s.dispatchOutbox); err != nil {
		logger.Error("Failed to add cron job for outbox dispatch", err, map[string]interface{}{
			"spec": s.outboxSpec,
		})
		return err
	}

	if s.refreshSpec != "" && s.refresher != nil {
		if _, err := s.cron.AddFunc(s.refreshSpec, s.refreshPriceLists); err != nil {
			logger.Error("Failed to add cron job for price list refresh", err, map[string]interface{}{
				"spec": s.refreshSpec,
			})
			return err
		}
	}

	s.cron.Start()
	logger.Info("Scheduler started", map[string]interface{}{
		"outbox_spec":  s.outboxSpec,
		"refresh_spec": s.refreshSpec,
		"jobs":         len(s.cron.Entries()),
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped", nil)
}

func (s *Scheduler) dispatchOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	sent, failed, err := s.dispatcher.DispatchPending(ctx)
	if err != nil {
		logger.Error("Outbox dispatch failed", err, nil)
		return
	}
	if sent > 0 || failed > 0 {
		logger.Info("Outbox dispatched", map[string]interface{}{
			"sent":   sent,
			"failed": failed,
		})
	}
}

func (s *Scheduler) refreshPriceLists() {
	logger.Info("Starting scheduled price list refresh", nil)

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	imported, failed := s.refresher.RefreshAll(ctx)
	logger.Info("Scheduled price list refresh finished", map[string]interface{}{
		"imported": imported,
		"failed":   failed,
	})
}

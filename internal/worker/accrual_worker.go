package worker

import (
	"context"
	"time"

	"github.com/apsoplatform/apso/internal/domain"
	"github.com/apsoplatform/apso/pkg/logger"
)

// AccrualWorker continuously consumes investment IDs from the accrual queue
// and delegates the daily-return credit to InvestmentUsecase. Callers manage
// lifecycle by cancelling the provided context.
type AccrualWorker struct {
	queue        domain.AccrualQueue
	investmentUC domain.InvestmentUsecase
	interval     time.Duration
	scanInterval time.Duration
}

// AccrualWorkerConfig defines runtime options for the worker.
type AccrualWorkerConfig struct {
	PollingInterval time.Duration
	ScanInterval    time.Duration
}

// NewAccrualWorker builds a new accrual worker instance.
func NewAccrualWorker(queue domain.AccrualQueue, investmentUC domain.InvestmentUsecase, cfg AccrualWorkerConfig) *AccrualWorker {
	interval := cfg.PollingInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	scanInterval := cfg.ScanInterval
	if scanInterval <= 0 {
		scanInterval = time.Hour
	}

	return &AccrualWorker{
		queue:        queue,
		investmentUC: investmentUC,
		interval:     interval,
		scanInterval: scanInterval,
	}
}

// Start launches the worker loop. It blocks until context cancellation. The
// scan ticker periodically re-enqueues every active investment; accrual
// itself is day-capped, so re-enqueueing an already paid investment is a
// no-op.
func (w *AccrualWorker) Start(ctx context.Context) {
	logger.Info("Accrual worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	scanTicker := time.NewTicker(w.scanInterval)
	defer scanTicker.Stop()

	// Prime the queue once at startup so restarts never miss a day.
	w.scan()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Accrual worker stopping", logger.ErrorField(ctx.Err()))
			return
		case <-scanTicker.C:
			w.scan()
		case <-ticker.C:
			w.processNext()
		}
	}
}

func (w *AccrualWorker) scan() {
	if w.investmentUC == nil {
		return
	}

	count, err := w.investmentUC.EnqueueDueAccruals()
	if err != nil {
		logger.Error("Failed to enqueue due accruals", logger.ErrorField(err))
		return
	}

	if count > 0 {
		logger.Info("Accrual scan enqueued investments",
			logger.Int("count", count),
		)
	}
}

func (w *AccrualWorker) processNext() {
	if w.queue == nil || w.investmentUC == nil {
		logger.Warn("Accrual worker missing dependencies")
		return
	}

	investmentID, err := w.queue.DequeueAccrual()
	if err != nil {
		logger.Error("Failed to dequeue accrual", logger.ErrorField(err))
		return
	}

	if investmentID == "" {
		// No items available
		return
	}

	start := time.Now()
	inv, err := w.investmentUC.Accrue(investmentID)
	duration := time.Since(start)

	if err != nil {
		logger.Error("Failed to accrue queued investment",
			logger.String("investment_id", investmentID),
			logger.Duration("duration", duration),
			logger.ErrorField(err),
		)
		return
	}

	logger.Debug("Queued investment accrued",
		logger.String("investment_id", investmentID),
		logger.Int("claimed_days", inv.ClaimedDays),
		logger.Duration("duration", duration),
	)
}

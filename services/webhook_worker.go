package services

import (
	"context"
	"time"

	"checkout-service/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const webhookProcessTimeout = 30 * time.Second

// WebhookWorker processes payment notifications off the request path. The
// HTTP handler acknowledges the provider immediately and hands the payload to
// a bounded queue; a fixed pool of workers drains it. Stop closes the queue
// and waits until every queued payload has been reconciled, so shutdown never
// drops accepted work.
type WebhookWorker struct {
	reconciler *ReconcileService
	jobs       chan models.WebhookPayload
	group      *errgroup.Group
	logger     *zap.Logger
}

func NewWebhookWorker(reconciler *ReconcileService, workers, queueSize int, logger *zap.Logger) *WebhookWorker {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	w := &WebhookWorker{
		reconciler: reconciler,
		jobs:       make(chan models.WebhookPayload, queueSize),
		logger:     logger,
	}
	w.group = &errgroup.Group{}
	for i := 0; i < workers; i++ {
		w.group.Go(w.run)
	}
	logger.Info("Webhook worker pool started",
		zap.Int("workers", workers),
		zap.Int("queue_size", queueSize),
	)
	return w
}

// Enqueue hands a payload to the pool without blocking. A false return means
// the queue is full and the payload was not accepted; the caller still
// acknowledges the provider, which will redeliver.
func (w *WebhookWorker) Enqueue(payload models.WebhookPayload) bool {
	select {
	case w.jobs <- payload:
		return true
	default:
		w.logger.Warn("Webhook queue full, payload dropped",
			zap.String("order_nsu", payload.OrderNSU),
			zap.String("status", payload.Status),
		)
		return false
	}
}

// Stop closes the queue and blocks until all queued payloads are processed.
func (w *WebhookWorker) Stop() {
	close(w.jobs)
	_ = w.group.Wait()
	w.logger.Info("Webhook worker pool stopped")
}

func (w *WebhookWorker) run() error {
	for payload := range w.jobs {
		w.process(payload)
	}
	return nil
}

func (w *WebhookWorker) process(payload models.WebhookPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	result, err := w.reconciler.ProcessWebhook(ctx, payload)
	if err != nil {
		w.logger.Error("Webhook reconciliation failed",
			zap.String("order_nsu", payload.OrderNSU),
			zap.String("status", payload.Status),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("Webhook reconciled",
		zap.String("order_nsu", payload.OrderNSU),
		zap.Bool("processed", result.Processed),
		zap.Bool("already_processed", result.AlreadyProcessed),
		zap.String("reason", result.Reason),
	)
}

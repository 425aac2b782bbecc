// Package worker drains background jobs enqueued by the API server.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/queue"
)

// AuditStore persists audit events. *audit.Repository satisfies it.
type AuditStore interface {
	Insert(ctx context.Context, e *models.AuditEvent) error
}

// JobQueue is the queue surface the processor needs. *queue.Queue satisfies it.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AuditProcessor persists audit event jobs.
type AuditProcessor struct {
	store   AuditStore
	queue   JobQueue
	logger  *zap.Logger
	backoff time.Duration
}

// NewAuditProcessor creates an audit event processor.
func NewAuditProcessor(store AuditStore, q JobQueue, logger *zap.Logger) *AuditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditProcessor{store: store, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one audit job.
func (p *AuditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAuditEvent {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var e models.AuditEvent
	if err := json.Unmarshal(job.Payload, &e); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.store.Insert(ctx, &e); err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}
	p.logger.Debug("audit event stored", zap.String("event_id", e.ID.String()), zap.String("action", e.Action))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *AuditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AuditProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

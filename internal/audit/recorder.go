package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/metrics"
	"github.com/agriconnect/admin-backend/pkg/queue"
)

// Action names.
const (
	ActionUsersApprove          = "users.approve"
	ActionUsersSuspend          = "users.suspend"
	ActionUsersDelete           = "users.delete"
	ActionUsersUpdate           = "users.update"
	ActionOrganizationsApprove  = "organizations.approve"
	ActionOrganizationsSuspend  = "organizations.suspend"
	ActionOrganizationsDelete   = "organizations.delete"
	ActionOrganizationProvision = "organizations.provision"
	ActionOrganizationJoin      = "organizations.join"
	ActionInvitationAccept      = "invitations.accept"
	ActionInvitationRevoke      = "invitations.revoke"
)

// Target types.
const (
	TargetUser         = "user"
	TargetOrganization = "organization"
	TargetInvitation   = "invitation"
)

// Recorder accepts audit events. Recording never fails the caller's operation.
type Recorder interface {
	Record(ctx context.Context, e models.AuditEvent)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, models.AuditEvent) {}

// Enqueuer is the queue surface QueueRecorder needs. *queue.Queue satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, t queue.JobType, payload interface{}) error
}

// QueueRecorder pushes events to Redis for cmd/worker to persist.
type QueueRecorder struct {
	q       Enqueuer
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewQueueRecorder creates a recorder backed by q.
func NewQueueRecorder(q Enqueuer, m *metrics.Metrics, logger *zap.Logger) *QueueRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueRecorder{q: q, metrics: m, logger: logger, now: time.Now}
}

// Record assigns an id and timestamp, then enqueues e. Failures are logged and counted.
func (r *QueueRecorder) Record(ctx context.Context, e models.AuditEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if err := r.q.Enqueue(ctx, queue.JobTypeAuditEvent, e); err != nil {
		r.metrics.AuditDropped()
		r.logger.Warn("audit event dropped",
			zap.String("action", e.Action),
			zap.String("event_id", e.ID.String()),
			zap.Error(err))
	}
}

// Event builds an event for actor acting on targets.
func Event(actor *authz.SessionUser, action, targetType string, targets []uuid.UUID, affected int64) models.AuditEvent {
	e := models.AuditEvent{
		Action:     action,
		TargetType: targetType,
		TargetIDs:  targets,
		Affected:   affected,
	}
	if actor != nil && actor.ID != uuid.Nil {
		id := actor.ID
		e.ActorID = &id
	}
	return e
}

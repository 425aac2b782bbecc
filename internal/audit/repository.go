// Package audit records who changed what through the admin and provisioning surfaces.
package audit

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/database"
)

const columns = `id, actor_id, action, target_type, target_ids, affected, COALESCE(reason,''), created_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository persists audit events.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an audit repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// Insert stores e. Replaying an already stored event is a no-op so queue retries are safe.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEvent) error {
	const q = `INSERT INTO audit_events (id, actor_id, action, target_type, target_ids, affected, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8)
		ON CONFLICT (id) DO NOTHING`
	ids := e.TargetIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	_, err := r.db.Exec(ctx, q, e.ID, e.ActorID, e.Action, e.TargetType, ids, e.Affected, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	Action   string
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Since    time.Time
	Limit    uint64
	Offset   uint64
}

// ListQuery builds the SELECT for f, newest first.
func ListQuery(f Filter) (string, []interface{}, error) {
	b := psql.Select(columns).From("audit_events")
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": f.Action})
	}
	if f.ActorID != uuid.Nil {
		b = b.Where(sq.Eq{"actor_id": f.ActorID})
	}
	if f.TargetID != uuid.Nil {
		b = b.Where("? = ANY(target_ids)", f.TargetID)
	}
	if !f.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": f.Since})
	}
	return b.OrderBy("created_at DESC", "id").Limit(f.Limit).Offset(f.Offset).ToSql()
}

// List returns events matching f.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.AuditEvent, error) {
	q, args, err := ListQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AuditEvent
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scan(row pgx.Row) (*models.AuditEvent, error) {
	var e models.AuditEvent
	if err := row.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetType, &e.TargetIDs, &e.Affected, &e.Reason, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

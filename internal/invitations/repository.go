// Package invitations manages email invitations into organizations.
package invitations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/organizations"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/database"
)

const columns = `id, organization_id, email, role, status, inviter_id, expires_at, created_at`

var (
	ErrNotFound   = apperr.NotFound("invitation")
	ErrExpired    = apperr.Validation("invitation has expired")
	ErrNotPending = apperr.Conflict("invitation is no longer pending", nil)
	ErrWrongEmail = apperr.Forbidden()
)

// Repository persists invitations.
type Repository struct {
	db database.Pool
}

// NewRepository creates an invitations repository.
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	var role, status string
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &role, &status, &inv.InviterID, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.Role = models.MemberRole(role)
	inv.Status = models.InvitationStatus(status)
	return &inv, nil
}

// Create inserts a pending invitation. A second pending invitation for the same
// organization and email is a conflict.
func (r *Repository) Create(ctx context.Context, inv *models.Invitation) error {
	const q = `INSERT INTO invitations (id, organization_id, email, role, status, inviter_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, q, inv.ID, inv.OrganizationID, strings.ToLower(inv.Email), string(inv.Role),
		string(inv.Status), inv.InviterID, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("an invitation for this email is already pending", err)
		}
		if database.IsForeignKeyViolation(err) {
			return organizations.ErrNotFound
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// GetByID returns one invitation.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM invitations WHERE id = $1`, id))
}

// ListForOrganization returns an organization's invitations, newest first.
func (r *Repository) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM invitations WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Invitation
	for rows.Next() {
		inv, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Revoke marks a pending invitation revoked.
func (r *Repository) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE invitations SET status = 'revoked' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// Accept turns a pending invitation into a membership for userID. The invitation row is
// locked for the duration, so an invitation is accepted at most once. An invitation found
// past its expiry is marked expired and ErrExpired is returned.
func (r *Repository) Accept(ctx context.Context, id, userID uuid.UUID, email string, now time.Time) (*models.Member, error) {
	var member *models.Member
	expired := false
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		inv, err := scan(tx.QueryRow(ctx, `SELECT `+columns+` FROM invitations WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if inv.Status != models.InvitationPending {
			return ErrNotPending
		}
		if !strings.EqualFold(inv.Email, strings.TrimSpace(email)) {
			return ErrWrongEmail
		}
		if inv.Expired(now) {
			expired = true
			_, err := tx.Exec(ctx, `UPDATE invitations SET status = 'expired' WHERE id = $1`, id)
			return err
		}
		m := &models.Member{
			ID:             uuid.New(),
			OrganizationID: inv.OrganizationID,
			UserID:         userID,
			Role:           inv.Role,
			CreatedAt:      now,
		}
		if err := organizations.InsertMember(ctx, tx, m); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE invitations SET status = 'accepted' WHERE id = $1`, id); err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}
	return member, nil
}

// Package organizations provisions tenants and their memberships.
package organizations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/database"
)

// Columns is the select list matching Scan.
const Columns = `o.id, o.name, o.slug, o.organization_type, o.status, o.kyc_status, o.subscription_type,
	o.license_status, o.max_users, COALESCE(o.contact_email,''), COALESCE(o.contact_phone,''),
	COALESCE(o.address,''), o.district_id, o.region_id, o.created_at, o.updated_at`

const slugConstraint = "organizations_slug_key"

var ErrNotFound = apperr.NotFound("organization")

// Repository handles organization and member persistence. Multi-row writes run in one transaction.
type Repository struct {
	db database.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

// Scan reads one row selected with Columns.
func Scan(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.OrganizationType, &o.Status, &o.KYCStatus, &o.SubscriptionType,
		&o.LicenseStatus, &o.MaxUsers, &o.ContactEmail, &o.ContactPhone,
		&o.Address, &o.DistrictID, &o.RegionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func insertOrganization(ctx context.Context, q database.DBTX, o *models.Organization) error {
	const stmt = `INSERT INTO organizations (id, name, slug, organization_type, status, kyc_status, subscription_type,
		license_status, max_users, contact_email, contact_phone, address, district_id, region_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''), NULLIF($11,''), NULLIF($12,''), $13, $14, $15, $15)`
	_, err := q.Exec(ctx, stmt, o.ID, o.Name, o.Slug, string(o.OrganizationType), string(o.Status), string(o.KYCStatus),
		o.SubscriptionType, o.LicenseStatus, o.MaxUsers, o.ContactEmail, o.ContactPhone, o.Address,
		o.DistrictID, o.RegionID, o.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			if database.ConstraintName(err) == slugConstraint {
				return apperr.Conflict("organization slug already taken", err)
			}
			return apperr.Conflict("organization already exists", err)
		}
		if database.IsForeignKeyViolation(err) {
			return apperr.Validation("unknown district or region")
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// InsertMember writes m using q, which may be a transaction.
func InsertMember(ctx context.Context, q database.DBTX, m *models.Member) error {
	const stmt = `INSERT INTO members (id, organization_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := q.Exec(ctx, stmt, m.ID, m.OrganizationID, m.UserID, string(m.Role), m.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("user is already a member of this organization", err)
		}
		if database.IsForeignKeyViolation(err) {
			if database.ConstraintName(err) == "members_organization_id_fkey" {
				return ErrNotFound
			}
			return users.ErrNotFound
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// CreateWithOwner inserts o and its owner membership atomically.
func (r *Repository) CreateWithOwner(ctx context.Context, o *models.Organization, owner *models.Member) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertOrganization(ctx, tx, o); err != nil {
			return err
		}
		return InsertMember(ctx, tx, owner)
	})
}

// CreateUserWithOrganization inserts a new user, o and the owner membership atomically.
func (r *Repository) CreateUserWithOrganization(ctx context.Context, u *models.User, o *models.Organization, owner *models.Member) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := users.Insert(ctx, tx, u); err != nil {
			return err
		}
		if err := insertOrganization(ctx, tx, o); err != nil {
			return err
		}
		return InsertMember(ctx, tx, owner)
	})
}

// CreateDefault inserts o with owner as its owner unless owner's user already belongs to an
// organization. A transaction-scoped advisory lock on the user id serialises concurrent calls,
// so at most one default organization is created. It reports whether o was inserted.
func (r *Repository) CreateDefault(ctx context.Context, o *models.Organization, owner *models.Member) (bool, error) {
	created := false
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, owner.UserID.String()); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE user_id = $1)`, owner.UserID).Scan(&exists); err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if exists {
			return nil
		}
		if err := insertOrganization(ctx, tx, o); err != nil {
			return err
		}
		if err := InsertMember(ctx, tx, owner); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// AddMember inserts a single membership.
func (r *Repository) AddMember(ctx context.Context, m *models.Member) error {
	return InsertMember(ctx, r.db, m)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return Scan(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM organizations o WHERE o.id = $1`, id))
}

// HasMembership reports whether the user belongs to any organization.
func (r *Repository) HasMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE user_id = $1)`, userID).Scan(&exists)
	return exists, err
}

// MemberRole returns the user's role in the organization, or "" if not a member.
func (r *Repository) MemberRole(ctx context.Context, orgID, userID uuid.UUID) (models.MemberRole, error) {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM members WHERE organization_id = $1 AND user_id = $2`, orgID, userID).Scan(&role)
	if err != nil {
		if database.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return models.MemberRole(role), nil
}

// Membership is an organization as seen by one of its members.
type Membership struct {
	models.Organization
	Role models.MemberRole `json:"role"`
}

// ListForUser returns the organizations the user belongs to, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	q := `SELECT ` + Columns + `, m.role FROM organizations o
		JOIN members m ON m.organization_id = o.id
		WHERE m.user_id = $1 ORDER BY o.created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Membership
	for rows.Next() {
		var m Membership
		o := &m.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.OrganizationType, &o.Status, &o.KYCStatus, &o.SubscriptionType,
			&o.LicenseStatus, &o.MaxUsers, &o.ContactEmail, &o.ContactPhone,
			&o.Address, &o.DistrictID, &o.RegionID, &o.CreatedAt, &o.UpdatedAt, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MemberView is a member joined with the user's public fields.
type MemberView struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	Role      models.MemberRole `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListMembers returns an organization's members, owners first.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberView, error) {
	const q = `SELECT m.id, m.user_id, u.email, u.full_name, m.role, m.created_at
		FROM members m JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY CASE m.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, m.created_at`
	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MemberView
	for rows.Next() {
		var m MemberView
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FullName, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetStatusMany sets status on every listed organization in one statement.
func (r *Repository) SetStatusMany(ctx context.Context, ids []uuid.UUID, status models.OrganizationStatus, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE organizations SET status = $2, updated_at = $3 WHERE id = ANY($1)`,
		ids, string(status), now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteMany removes every listed organization. Members, teams and invitations cascade.
func (r *Repository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM organizations WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

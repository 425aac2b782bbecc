// Package users persists identity records and the bulk lifecycle updates applied to them.
package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/database"
)

// Columns is the select list matching scanUser.
const Columns = `id, email, password_hash, full_name, COALESCE(phone_number,''), COALESCE(role,''),
	status, kyc_status, banned, COALESCE(ban_reason,''), COALESCE(suspension_reason,''),
	district_id, COALESCE(address,''), approved_at, created_at, updated_at`

var (
	ErrNotFound       = apperr.NotFound("user")
	errNothingToPatch = apperr.Validation("no fields to update")

	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
)

// Repository handles user persistence.
type Repository struct {
	db database.Pool
}

// NewRepository creates a users repository.
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

// Scan reads one row selected with Columns.
func Scan(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.PhoneNumber, &u.Role,
		&u.Status, &u.KYCStatus, &u.Banned, &u.BanReason, &u.SuspensionReason,
		&u.DistrictID, &u.Address, &u.ApprovedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Insert writes u using q, which may be a transaction. ID, status and timestamps are
// defaulted when unset.
func Insert(ctx context.Context, q database.DBTX, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = models.UserStatusPending
	}
	if u.KYCStatus == "" {
		u.KYCStatus = models.KYCPending
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	const stmt = `INSERT INTO users (id, email, password_hash, full_name, phone_number, role, status, kyc_status,
		district_id, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), $7, $8, $9, NULLIF($10,''), $11, $11)`
	_, err := q.Exec(ctx, stmt, u.ID, u.Email, u.Password, u.FullName, u.PhoneNumber, u.Role,
		string(u.Status), string(u.KYCStatus), u.DistrictID, u.Address, u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("email already registered", err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	return Insert(ctx, r.db, u)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return Scan(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return Scan(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))))
}

// ApproveMany approves and KYC-verifies every listed user in one statement.
func (r *Repository) ApproveMany(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	const q = `UPDATE users SET status = 'approved', kyc_status = 'verified', approved_at = $2, updated_at = $2
		WHERE id = ANY($1)`
	tag, err := r.db.Exec(ctx, q, ids, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SuspendMany suspends every listed user, recording reason when non-empty.
func (r *Repository) SuspendMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error) {
	const q = `UPDATE users SET status = 'suspended', suspension_reason = NULLIF($2,''), updated_at = $3
		WHERE id = ANY($1)`
	tag, err := r.db.Exec(ctx, q, ids, reason, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// BanMany soft-deletes every listed user. Rows are kept.
func (r *Repository) BanMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error) {
	const q = `UPDATE users SET banned = TRUE, ban_reason = $2, updated_at = $3 WHERE id = ANY($1)`
	tag, err := r.db.Exec(ctx, q, ids, reason, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Patch lists the admin-editable user fields; nil means unchanged.
type Patch struct {
	FullName    *string            `json:"full_name"`
	PhoneNumber *string            `json:"phone_number"`
	Role        *string            `json:"role"`
	Status      *models.UserStatus `json:"status"`
	KYCStatus   *models.KYCStatus  `json:"kyc_status"`
	DistrictID  *uuid.UUID         `json:"district_id"`
	Address     *string            `json:"address"`
}

// Validate rejects empty patches and unknown enum values.
func (p Patch) Validate() error {
	if p.FullName == nil && p.PhoneNumber == nil && p.Role == nil && p.Status == nil &&
		p.KYCStatus == nil && p.DistrictID == nil && p.Address == nil {
		return errNothingToPatch
	}
	if p.FullName != nil && strings.TrimSpace(*p.FullName) == "" {
		return apperr.Validation("full_name must not be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validation("invalid status")
	}
	if p.KYCStatus != nil && !p.KYCStatus.Valid() {
		return apperr.Validation("invalid kyc_status")
	}
	return nil
}

// UpdateQuery builds the UPDATE ... RETURNING statement for p.
func UpdateQuery(id uuid.UUID, p Patch, now time.Time) (string, []interface{}, error) {
	set := sq.Eq{"updated_at": now}
	if p.FullName != nil {
		set["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.PhoneNumber != nil {
		set["phone_number"] = nullIfEmpty(*p.PhoneNumber)
	}
	if p.Role != nil {
		set["role"] = nullIfEmpty(*p.Role)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.KYCStatus != nil {
		set["kyc_status"] = string(*p.KYCStatus)
	}
	if p.DistrictID != nil {
		set["district_id"] = *p.DistrictID
	}
	if p.Address != nil {
		set["address"] = nullIfEmpty(*p.Address)
	}
	return psql.Update("users").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + Columns).
		ToSql()
}

// Update applies p to the user and returns the updated row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch, now time.Time) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q, args, err := UpdateQuery(id, p, now)
	if err != nil {
		return nil, fmt.Errorf("build user update: %w", err)
	}
	u, err := Scan(r.db.QueryRow(ctx, q, args...))
	if database.IsForeignKeyViolation(err) {
		return nil, apperr.Validation("unknown district")
	}
	return u, err
}

func nullIfEmpty(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

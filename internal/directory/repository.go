// Package directory serves the read-only admin projections over users and organizations.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/organizations"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/database"
)

// OrganizationRow is an organization with its member count.
type OrganizationRow struct {
	models.Organization
	MemberCount int64 `json:"member_count"`
}

// Location names a user's district and region.
type Location struct {
	District string `json:"district"`
	Region   string `json:"region"`
}

// UserStats aggregates user and organization lifecycle counts.
type UserStats struct {
	TotalUsers             int64 `json:"total_users"`
	PendingUsers           int64 `json:"pending_users"`
	ApprovedUsers          int64 `json:"approved_users"`
	SuspendedUsers         int64 `json:"suspended_users"`
	RejectedUsers          int64 `json:"rejected_users"`
	BannedUsers            int64 `json:"banned_users"`
	KYCVerifiedUsers       int64 `json:"kyc_verified_users"`
	KYCPendingUsers        int64 `json:"kyc_pending_users"`
	TotalOrganizations     int64 `json:"total_organizations"`
	PendingOrganizations   int64 `json:"pending_organizations"`
	ActiveOrganizations    int64 `json:"active_organizations"`
	SuspendedOrganizations int64 `json:"suspended_organizations"`
}

// Repository runs directory reads.
type Repository struct {
	db   database.DBTX
	orgs *organizations.Repository
}

// NewRepository creates a directory repository.
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db, orgs: organizations.NewRepository(db)}
}

// ListOrganizations returns one page of organizations matching f and the total match count.
func (r *Repository) ListOrganizations(ctx context.Context, f OrganizationFilter) ([]OrganizationRow, int64, error) {
	cq, cargs, err := CountOrganizationsQuery(f)
	total, err := r.countRows(ctx, cq, cargs, err)
	if err != nil {
		return nil, 0, err
	}
	q, args, err := OrganizationsQuery(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build organizations query: %w", err)
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []OrganizationRow
	for rows.Next() {
		o, err := organizations.Scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, OrganizationRow{Organization: *o})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.mergeMemberCounts(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// mergeMemberCounts fills MemberCount from one grouped aggregate over the page's ids.
func (r *Repository) mergeMemberCounts(ctx context.Context, page []OrganizationRow) error {
	if len(page) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(page))
	for i := range page {
		ids[i] = page[i].ID
	}
	rows, err := r.db.Query(ctx,
		`SELECT organization_id, COUNT(*) FROM members WHERE organization_id = ANY($1) GROUP BY organization_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	counts := make(map[uuid.UUID]int64, len(page))
	for rows.Next() {
		var id uuid.UUID
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return err
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range page {
		page[i].MemberCount = counts[page[i].ID]
	}
	return nil
}

// GetOrganization returns one organization.
func (r *Repository) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return r.orgs.GetByID(ctx, id)
}

// ListMembers returns an organization's members.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]organizations.MemberView, error) {
	return r.orgs.ListMembers(ctx, orgID)
}

// ListUsers returns one page of users matching f and the total match count.
func (r *Repository) ListUsers(ctx context.Context, f UserFilter) ([]*models.User, int64, error) {
	cq, cargs, err := CountUsersQuery(f)
	total, err := r.countRows(ctx, cq, cargs, err)
	if err != nil {
		return nil, 0, err
	}
	q, args, err := UsersQuery(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build users query: %w", err)
	}
	out, err := r.queryUsers(ctx, q, args)
	return out, total, err
}

// SearchUsers returns up to limit users matching q.
func (r *Repository) SearchUsers(ctx context.Context, q string, limit uint64) ([]*models.User, error) {
	stmt, args, err := SearchUsersQuery(q, limit)
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return r.queryUsers(ctx, stmt, args)
}

func (r *Repository) queryUsers(ctx context.Context, q string, args []interface{}) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.User
	for rows.Next() {
		u, err := users.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser returns one user.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return users.Scan(r.db.QueryRow(ctx, `SELECT `+users.Columns+` FROM users WHERE id = $1`, id))
}

// UserMemberships returns the organizations a user belongs to.
func (r *Repository) UserMemberships(ctx context.Context, userID uuid.UUID) ([]organizations.Membership, error) {
	return r.orgs.ListForUser(ctx, userID)
}

// Location resolves a district id to district and region names.
func (r *Repository) Location(ctx context.Context, districtID uuid.UUID) (*Location, error) {
	var l Location
	err := r.db.QueryRow(ctx, `SELECT d.name, rg.name FROM districts d JOIN regions rg ON rg.id = d.region_id WHERE d.id = $1`,
		districtID).Scan(&l.District, &l.Region)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Stats computes lifecycle counts in two aggregate statements.
func (r *Repository) Stats(ctx context.Context) (*UserStats, error) {
	var s UserStats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'approved'),
		COUNT(*) FILTER (WHERE status = 'suspended'),
		COUNT(*) FILTER (WHERE status = 'rejected'),
		COUNT(*) FILTER (WHERE banned),
		COUNT(*) FILTER (WHERE kyc_status = 'verified'),
		COUNT(*) FILTER (WHERE kyc_status = 'pending')
		FROM users`).Scan(&s.TotalUsers, &s.PendingUsers, &s.ApprovedUsers, &s.SuspendedUsers,
		&s.RejectedUsers, &s.BannedUsers, &s.KYCVerifiedUsers, &s.KYCPendingUsers)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	err = r.db.QueryRow(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'active'),
		COUNT(*) FILTER (WHERE status = 'suspended')
		FROM organizations`).Scan(&s.TotalOrganizations, &s.PendingOrganizations, &s.ActiveOrganizations, &s.SuspendedOrganizations)
	if err != nil {
		return nil, fmt.Errorf("organization stats: %w", err)
	}
	return &s, nil
}

func (r *Repository) countRows(ctx context.Context, q string, args []interface{}, buildErr error) (int64, error) {
	if buildErr != nil {
		return 0, fmt.Errorf("build count query: %w", buildErr)
	}
	var n int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

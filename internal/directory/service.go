package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/organizations"
	"github.com/agriconnect/admin-backend/pkg/apperr"
)

const statsCacheKey = "stats"

// Store is the read surface of the directory. *Repository satisfies it.
type Store interface {
	ListOrganizations(ctx context.Context, f OrganizationFilter) ([]OrganizationRow, int64, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]organizations.MemberView, error)
	ListUsers(ctx context.Context, f UserFilter) ([]*models.User, int64, error)
	SearchUsers(ctx context.Context, q string, limit uint64) ([]*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserMemberships(ctx context.Context, userID uuid.UUID) ([]organizations.Membership, error)
	Location(ctx context.Context, districtID uuid.UUID) (*Location, error)
	Stats(ctx context.Context) (*UserStats, error)
}

// Cache holds JSON snapshots. *redis.JSONCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Page is one slice of a filtered list.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Total  int64  `json:"total"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// OrganizationDetail is an organization with its members.
type OrganizationDetail struct {
	models.Organization
	MemberCount int                        `json:"member_count"`
	Members     []organizations.MemberView `json:"members"`
}

// UserDetail is a user with memberships and location names.
type UserDetail struct {
	*models.User
	Location    *Location                  `json:"location,omitempty"`
	Memberships []organizations.Membership `json:"memberships"`
}

// Service answers directory queries for platform admins.
type Service struct {
	store       Store
	cache       Cache
	statsTTL    time.Duration
	defaultPage uint64
	logger      *zap.Logger
}

// NewService creates a directory service. cache may be nil, which disables stats caching.
func NewService(store Store, cache Cache, statsTTL time.Duration, defaultPage int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPage <= 0 {
		defaultPage = 25
	}
	return &Service{store: store, cache: cache, statsTTL: statsTTL, defaultPage: uint64(defaultPage), logger: logger}
}

func (s *Service) pageSize(limit uint64) uint64 {
	if limit == 0 {
		return s.defaultPage
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ListOrganizations returns one page of organizations with member counts.
func (s *Service) ListOrganizations(ctx context.Context, caller *authz.SessionUser, f OrganizationFilter) (*Page[OrganizationRow], error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("invalid type")
	}
	f.Limit = s.pageSize(f.Limit)
	items, total, err := s.store.ListOrganizations(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to load organizations", err)
	}
	if items == nil {
		items = []OrganizationRow{}
	}
	return &Page[OrganizationRow]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// GetOrganization returns an organization with its members.
func (s *Service) GetOrganization(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) (*OrganizationDetail, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		return nil, readError("failed to load organization", err)
	}
	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load members", err)
	}
	if members == nil {
		members = []organizations.MemberView{}
	}
	return &OrganizationDetail{Organization: *org, MemberCount: len(members), Members: members}, nil
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, caller *authz.SessionUser, f UserFilter) (*Page[*models.User], error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	if f.KYCStatus != "" && !f.KYCStatus.Valid() {
		return nil, apperr.Validation("invalid kyc_status")
	}
	f.Limit = s.pageSize(f.Limit)
	items, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to load users", err)
	}
	if items == nil {
		items = []*models.User{}
	}
	return &Page[*models.User]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// SearchUsers finds users by email, name or phone. limit defaults to 10 and may not exceed 50.
func (s *Service) SearchUsers(ctx context.Context, caller *authz.SessionUser, q string, limit uint64) ([]*models.User, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Validation("query required")
	}
	if limit == 0 {
		limit = 10
	}
	if limit > MaxSearchLimit {
		return nil, apperr.Validation("limit must be at most 50")
	}
	out, err := s.store.SearchUsers(ctx, q, limit)
	if err != nil {
		return nil, apperr.Internal("failed to search users", err)
	}
	if out == nil {
		out = []*models.User{}
	}
	return out, nil
}

// GetUser returns a user with memberships and location.
func (s *Service) GetUser(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) (*UserDetail, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, readError("failed to load user", err)
	}
	d := &UserDetail{User: u}
	if u.DistrictID != nil {
		if d.Location, err = s.store.Location(ctx, *u.DistrictID); err != nil {
			return nil, apperr.Internal("failed to load location", err)
		}
	}
	if d.Memberships, err = s.store.UserMemberships(ctx, id); err != nil {
		return nil, apperr.Internal("failed to load memberships", err)
	}
	if d.Memberships == nil {
		d.Memberships = []organizations.Membership{}
	}
	return d, nil
}

// Stats returns lifecycle counts, served from cache when fresh.
func (s *Service) Stats(ctx context.Context, caller *authz.SessionUser) (*UserStats, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	if s.cache != nil && s.statsTTL > 0 {
		var cached UserStats
		hit, err := s.cache.GetJSON(ctx, statsCacheKey, &cached)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load stats", err)
	}
	if s.cache != nil && s.statsTTL > 0 {
		if err := s.cache.SetJSON(ctx, statsCacheKey, st, s.statsTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return st, nil
}

// InvalidateStats drops the cached stats so the next read is fresh.
func (s *Service) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func readError(msg string, err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return err
	}
	return apperr.Internal(msg, err)
}

// Package admin implements the bulk lifecycle actions platform admins apply to users and organizations.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/audit"
	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/metrics"
)

// UserStore applies user lifecycle updates. *users.Repository satisfies it.
type UserStore interface {
	ApproveMany(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error)
	SuspendMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error)
	BanMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error)
	Update(ctx context.Context, id uuid.UUID, p users.Patch, now time.Time) (*models.User, error)
}

// OrganizationStore applies organization lifecycle updates. *organizations.Repository satisfies it.
type OrganizationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	SetStatusMany(ctx context.Context, ids []uuid.UUID, status models.OrganizationStatus, now time.Time) (int64, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// StatsInvalidator drops cached directory aggregates after a write.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// ApproveResult is returned by the single-organization approve path.
type ApproveResult struct {
	Organization  *models.Organization `json:"organization"`
	AlreadyActive bool                 `json:"already_active"`
	Message       string               `json:"message,omitempty"`
}

// Service runs admin lifecycle actions. Every method checks the caller first.
type Service struct {
	users   UserStore
	orgs    OrganizationStore
	stats   StatsInvalidator
	audit   audit.Recorder
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates an admin lifecycle service. stats, rec and m may be nil.
func NewService(u UserStore, o OrganizationStore, stats StatsInvalidator, rec audit.Recorder, m *metrics.Metrics, logger *zap.Logger) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: u, orgs: o, stats: stats, audit: rec, metrics: m, logger: logger, now: time.Now}
}

// ApproveUsers sets status approved, kyc_status verified and approved_at on every target.
func (s *Service) ApproveUsers(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionUsersApprove, audit.TargetUser, "", func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.users.ApproveMany(ctx, ids, now)
	})
}

// SuspendUsers suspends every target, recording reason when given.
func (s *Service) SuspendUsers(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID, reason string) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionUsersSuspend, audit.TargetUser, reason, func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.users.SuspendMany(ctx, ids, reason, now)
	})
}

// DeleteUsers bans every target with models.BanReasonDeleted. Rows are never removed.
func (s *Service) DeleteUsers(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionUsersDelete, audit.TargetUser, models.BanReasonDeleted, func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.users.BanMany(ctx, ids, models.BanReasonDeleted, now)
	})
}

// ApproveOrganizations activates every target organization.
func (s *Service) ApproveOrganizations(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionOrganizationsApprove, audit.TargetOrganization, "", func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.orgs.SetStatusMany(ctx, ids, models.OrgStatusActive, now)
	})
}

// SuspendOrganizations suspends every target organization.
func (s *Service) SuspendOrganizations(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionOrganizationsSuspend, audit.TargetOrganization, "", func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.orgs.SetStatusMany(ctx, ids, models.OrgStatusSuspended, now)
	})
}

// DeleteOrganizations removes every target organization; memberships, teams and invitations cascade.
func (s *Service) DeleteOrganizations(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID) (int64, error) {
	return s.bulk(ctx, caller, ids, audit.ActionOrganizationsDelete, audit.TargetOrganization, "", func(ids []uuid.UUID, now time.Time) (int64, error) {
		return s.orgs.DeleteMany(ctx, ids)
	})
}

// ApproveOrganization activates one organization. An already active organization is
// reported with AlreadyActive and left untouched.
func (s *Service) ApproveOrganization(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) (*ApproveResult, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Internal("failed to load organization", err)
	}
	if org.Status == models.OrgStatusActive {
		return &ApproveResult{Organization: org, AlreadyActive: true, Message: "organization is already active"}, nil
	}
	now := s.now().UTC()
	n, err := s.orgs.SetStatusMany(ctx, []uuid.UUID{id}, models.OrgStatusActive, now)
	if err != nil {
		return nil, apperr.Internal("failed to approve organization", err)
	}
	org.Status = models.OrgStatusActive
	org.UpdatedAt = now
	s.after(ctx, caller, audit.ActionOrganizationsApprove, audit.TargetOrganization, "", []uuid.UUID{id}, n)
	return &ApproveResult{Organization: org}, nil
}

// UpdateUser applies a partial update to one user.
func (s *Service) UpdateUser(ctx context.Context, caller *authz.SessionUser, id uuid.UUID, p users.Patch) (*models.User, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	u, err := s.users.Update(ctx, id, p, s.now().UTC())
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound, apperr.KindValidation:
			return nil, err
		}
		return nil, apperr.Internal("failed to update user", err)
	}
	s.after(ctx, caller, audit.ActionUsersUpdate, audit.TargetUser, "", []uuid.UUID{id}, 1)
	return u, nil
}

func (s *Service) bulk(ctx context.Context, caller *authz.SessionUser, ids []uuid.UUID, action, target, reason string,
	apply func(ids []uuid.UUID, now time.Time) (int64, error)) (int64, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return 0, err
	}
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := apply(ids, s.now().UTC())
	if err != nil {
		s.logger.Error("admin action failed", zap.String("action", action), zap.Int("targets", len(ids)), zap.Error(err))
		return 0, apperr.Internal("failed to apply "+action, err)
	}
	s.after(ctx, caller, action, target, reason, ids, n)
	return n, nil
}

func (s *Service) after(ctx context.Context, caller *authz.SessionUser, action, target, reason string, ids []uuid.UUID, n int64) {
	s.metrics.Lifecycle(action, n)
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	e := audit.Event(caller, action, target, ids, n)
	e.Reason = reason
	s.audit.Record(ctx, e)
	s.logger.Info("admin action applied",
		zap.String("action", action),
		zap.String("actor_id", caller.ID.String()),
		zap.Int("targets", len(ids)),
		zap.Int64("affected", n))
}

// UniqueIDs drops nil and repeated ids, keeping first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package invitations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/audit"
	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
)

// Store persists invitations. *Repository satisfies it.
type Store interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	Accept(ctx context.Context, id, userID uuid.UUID, email string, now time.Time) (*models.Member, error)
}

// RoleLookup resolves a user's role in an organization. *organizations.Repository satisfies it.
type RoleLookup interface {
	MemberRole(ctx context.Context, orgID, userID uuid.UUID) (models.MemberRole, error)
}

// Service issues and redeems invitations.
type Service struct {
	store  Store
	roles  RoleLookup
	ttl    time.Duration
	audit  audit.Recorder
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an invitations service. Invitations expire after ttl.
func NewService(store Store, roles RoleLookup, ttl time.Duration, rec audit.Recorder, logger *zap.Logger) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{store: store, roles: roles, ttl: ttl, audit: rec, logger: logger, now: time.Now}
}

// ensureManager allows platform admins and the organization's owners and admins.
func (s *Service) ensureManager(ctx context.Context, caller *authz.SessionUser, orgID uuid.UUID) error {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return err
	}
	if authz.IsPlatformAdmin(caller) {
		return nil
	}
	role, err := s.roles.MemberRole(ctx, orgID, caller.ID)
	if err != nil {
		return apperr.Internal("failed to check membership", err)
	}
	if !role.CanManage() {
		return apperr.Forbidden()
	}
	return nil
}

// Invite creates a pending invitation for email. role defaults to member; owner is not offered.
func (s *Service) Invite(ctx context.Context, caller *authz.SessionUser, orgID uuid.UUID, email string, role models.MemberRole) (*models.Invitation, error) {
	if err := s.ensureManager(ctx, caller, orgID); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("valid email required")
	}
	if role == "" {
		role = models.MemberRoleMember
	}
	if role != models.MemberRoleMember && role != models.MemberRoleAdmin {
		return nil, apperr.Validation("role must be member or admin")
	}
	now := s.now().UTC()
	inviter := caller.ID
	inv := &models.Invitation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		Status:         models.InvitationPending,
		InviterID:      &inviter,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, storeError("failed to create invitation", err)
	}
	s.logger.Info("invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("organization_id", orgID.String()))
	return inv, nil
}

// List returns an organization's invitations for its managers.
func (s *Service) List(ctx context.Context, caller *authz.SessionUser, orgID uuid.UUID) ([]*models.Invitation, error) {
	if err := s.ensureManager(ctx, caller, orgID); err != nil {
		return nil, err
	}
	out, err := s.store.ListForOrganization(ctx, orgID)
	if err != nil {
		return nil, apperr.Internal("failed to load invitations", err)
	}
	if out == nil {
		out = []*models.Invitation{}
	}
	return out, nil
}

// Revoke withdraws a pending invitation.
func (s *Service) Revoke(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) error {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return err
	}
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeError("failed to load invitation", err)
	}
	if err := s.ensureManager(ctx, caller, inv.OrganizationID); err != nil {
		return err
	}
	if err := s.store.Revoke(ctx, id); err != nil {
		return storeError("failed to revoke invitation", err)
	}
	s.audit.Record(ctx, audit.Event(caller, audit.ActionInvitationRevoke, audit.TargetInvitation, []uuid.UUID{id}, 1))
	return nil
}

// Accept redeems an invitation addressed to the caller's email.
func (s *Service) Accept(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) (*models.Member, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	m, err := s.store.Accept(ctx, id, caller.ID, caller.Email, s.now().UTC())
	if err != nil {
		return nil, storeError("failed to accept invitation", err)
	}
	s.audit.Record(ctx, audit.Event(caller, audit.ActionInvitationAccept, audit.TargetInvitation, []uuid.UUID{id}, 1))
	s.logger.Info("invitation accepted",
		zap.String("invitation_id", id.String()),
		zap.String("organization_id", m.OrganizationID.String()),
		zap.String("user_id", caller.ID.String()))
	return m, nil
}

func storeError(msg string, err error) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(msg, err)
}

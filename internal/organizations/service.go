package organizations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/audit"
	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/slug"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/metrics"
	"github.com/agriconnect/admin-backend/pkg/utils"
)

// Mode selects which records Provision creates.
type Mode string

const (
	// ModeNewUser creates a user, an organization and the owner membership.
	ModeNewUser Mode = "new_user"
	// ModeExistingUser creates an organization owned by an existing user.
	ModeExistingUser Mode = "existing_user"
	// ModeJoin adds an existing user to an existing organization.
	ModeJoin Mode = "join"
)

// Defaults applied to organization metadata left blank.
const (
	DefaultSubscriptionType = "free"
	DefaultLicenseStatus    = "unlicensed"
	DefaultMaxUsers         = 10
)

// Store is the persistence surface of the provisioning service. *Repository satisfies it.
type Store interface {
	CreateWithOwner(ctx context.Context, o *models.Organization, owner *models.Member) error
	CreateUserWithOrganization(ctx context.Context, u *models.User, o *models.Organization, owner *models.Member) error
	CreateDefault(ctx context.Context, o *models.Organization, owner *models.Member) (bool, error)
	AddMember(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	HasMembership(ctx context.Context, userID uuid.UUID) (bool, error)
	MemberRole(ctx context.Context, orgID, userID uuid.UUID) (models.MemberRole, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberView, error)
}

// StatsInvalidator drops cached directory aggregates. *directory.Service satisfies it.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// Metadata describes the organization to create.
type Metadata struct {
	Name             string                    `json:"name"`
	Slug             string                    `json:"slug"`
	OrganizationType models.OrganizationType   `json:"organization_type"`
	Status           models.OrganizationStatus `json:"status"`
	SubscriptionType string                    `json:"subscription_type"`
	LicenseStatus    string                    `json:"license_status"`
	MaxUsers         int                       `json:"max_users"`
	ContactEmail     string                    `json:"contact_email"`
	ContactPhone     string                    `json:"contact_phone"`
	Address          string                    `json:"address"`
	DistrictID       *uuid.UUID                `json:"district_id"`
	RegionID         *uuid.UUID                `json:"region_id"`
}

// NewUser describes the user created in ModeNewUser. An empty password leaves the account
// without a usable login until one is set.
type NewUser struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	DistrictID  *uuid.UUID `json:"district_id"`
	Address     string     `json:"address"`
}

// ProvisionRequest is the input of Provision.
type ProvisionRequest struct {
	Mode Mode `json:"mode"`
	// UserID identifies the user in ModeExistingUser and ModeJoin.
	UserID uuid.UUID `json:"user_id"`
	// User is required in ModeNewUser.
	User *NewUser `json:"user"`
	// OrganizationID and Role apply to ModeJoin. Role defaults to member.
	OrganizationID uuid.UUID         `json:"organization_id"`
	Role           models.MemberRole `json:"role"`
	Organization   Metadata          `json:"organization"`
}

// ProvisionResult holds the records written by Provision. User is set only in ModeNewUser.
type ProvisionResult struct {
	User         *models.UserPublic   `json:"user,omitempty"`
	Organization *models.Organization `json:"organization"`
	Member       *models.Member       `json:"member"`
}

// Service provisions organizations and memberships.
type Service struct {
	store   Store
	stats   StatsInvalidator
	audit   audit.Recorder
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
	hash    func(string) (string, error)
}

// NewService creates a provisioning service. stats, rec and m may be nil.
func NewService(store Store, stats StatsInvalidator, rec audit.Recorder, m *metrics.Metrics, logger *zap.Logger) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		stats:   stats,
		audit:   rec,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		hash:    utils.HashPassword,
	}
}

// Provision writes the records for req in a single transaction. It is not idempotent:
// repeating a call creates another organization unless the slug collides.
func (s *Service) Provision(ctx context.Context, actor *authz.SessionUser, req ProvisionRequest) (*ProvisionResult, error) {
	switch req.Mode {
	case ModeNewUser:
		return s.provisionNewUser(ctx, actor, req)
	case ModeExistingUser:
		return s.provisionExistingUser(ctx, actor, req)
	case ModeJoin:
		return s.join(ctx, actor, req)
	default:
		return nil, apperr.Validation("mode must be new_user, existing_user or join")
	}
}

// AdminProvision runs Provision for a platform admin.
func (s *Service) AdminProvision(ctx context.Context, actor *authz.SessionUser, req ProvisionRequest) (*ProvisionResult, error) {
	if err := authz.EnsurePlatformAdmin(actor); err != nil {
		return nil, err
	}
	return s.Provision(ctx, actor, req)
}

// CreateForCaller creates an organization owned by the caller.
func (s *Service) CreateForCaller(ctx context.Context, caller *authz.SessionUser, meta Metadata) (*ProvisionResult, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	// Self-service organizations always start pending admin approval.
	meta.Status = models.OrgStatusPending
	return s.Provision(ctx, caller, ProvisionRequest{Mode: ModeExistingUser, UserID: caller.ID, Organization: meta})
}

func (s *Service) provisionNewUser(ctx context.Context, actor *authz.SessionUser, req ProvisionRequest) (*ProvisionResult, error) {
	if req.User == nil {
		return nil, apperr.Validation("user required")
	}
	now := s.now().UTC()
	org, err := s.buildOrganization(req.Organization, now)
	if err != nil {
		return nil, err
	}
	u, err := s.buildUser(*req.User, now)
	if err != nil {
		return nil, err
	}
	owner := newMember(org.ID, u.ID, models.MemberRoleOwner, now)
	if err := s.store.CreateUserWithOrganization(ctx, u, org, owner); err != nil {
		return nil, s.storeError("provision user and organization", err)
	}
	s.provisioned(ctx, actor, ModeNewUser, org, owner)
	pub := u.ToPublic()
	return &ProvisionResult{User: &pub, Organization: org, Member: owner}, nil
}

func (s *Service) provisionExistingUser(ctx context.Context, actor *authz.SessionUser, req ProvisionRequest) (*ProvisionResult, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validation("user_id required")
	}
	now := s.now().UTC()
	org, err := s.buildOrganization(req.Organization, now)
	if err != nil {
		return nil, err
	}
	owner := newMember(org.ID, req.UserID, models.MemberRoleOwner, now)
	if err := s.store.CreateWithOwner(ctx, org, owner); err != nil {
		return nil, s.storeError("provision organization", err)
	}
	s.provisioned(ctx, actor, ModeExistingUser, org, owner)
	return &ProvisionResult{Organization: org, Member: owner}, nil
}

func (s *Service) join(ctx context.Context, actor *authz.SessionUser, req ProvisionRequest) (*ProvisionResult, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validation("user_id required")
	}
	if req.OrganizationID == uuid.Nil {
		return nil, apperr.Validation("organization_id required")
	}
	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	if role != models.MemberRoleMember && role != models.MemberRoleAdmin {
		return nil, apperr.Validation("role must be member or admin")
	}
	org, err := s.store.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, s.storeError("load organization", err)
	}
	m := newMember(org.ID, req.UserID, role, s.now().UTC())
	if err := s.store.AddMember(ctx, m); err != nil {
		return nil, s.storeError("add member", err)
	}
	s.metrics.Provisioned(string(ModeJoin))
	s.audit.Record(ctx, audit.Event(actor, audit.ActionOrganizationJoin, audit.TargetOrganization, []uuid.UUID{org.ID}, 1))
	s.logger.Info("member added",
		zap.String("organization_id", org.ID.String()),
		zap.String("user_id", m.UserID.String()),
		zap.String("role", string(role)))
	return &ProvisionResult{Organization: org, Member: m}, nil
}

// ShouldCreateOrganization reports whether the user has no membership yet. It is advisory;
// ProvisionDefault repeats the check under a lock.
func (s *Service) ShouldCreateOrganization(ctx context.Context, userID uuid.UUID) (bool, error) {
	has, err := s.store.HasMembership(ctx, userID)
	if err != nil {
		return false, apperr.Internal("failed to check membership", err)
	}
	return !has, nil
}

// ProvisionDefault creates "{displayName} Organization" owned by the user unless the user
// already belongs to an organization. Concurrent calls for one user create at most one.
func (s *Service) ProvisionDefault(ctx context.Context, userID uuid.UUID, displayName string) (*models.Organization, bool, error) {
	displayName = strings.TrimSpace(displayName)
	if userID == uuid.Nil || displayName == "" {
		return nil, false, apperr.Validation("user and display name required")
	}
	now := s.now().UTC()
	org, err := s.buildOrganization(Metadata{
		Name: displayName + " Organization",
		Slug: slug.Default(displayName, userID.String()),
	}, now)
	if err != nil {
		return nil, false, err
	}
	owner := newMember(org.ID, userID, models.MemberRoleOwner, now)
	created, err := s.store.CreateDefault(ctx, org, owner)
	if err != nil {
		return nil, false, s.storeError("provision default organization", err)
	}
	if !created {
		return nil, false, nil
	}
	s.provisioned(ctx, &authz.SessionUser{ID: userID}, "default", org, owner)
	return org, true, nil
}

// ListMine returns the caller's organizations.
func (s *Service) ListMine(ctx context.Context, caller *authz.SessionUser) ([]Membership, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	out, err := s.store.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load organizations", err)
	}
	if out == nil {
		out = []Membership{}
	}
	return out, nil
}

// Members lists an organization's members for one of its members or a platform admin.
func (s *Service) Members(ctx context.Context, caller *authz.SessionUser, orgID uuid.UUID) ([]MemberView, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	if !authz.IsPlatformAdmin(caller) {
		role, err := s.store.MemberRole(ctx, orgID, caller.ID)
		if err != nil {
			return nil, apperr.Internal("failed to check membership", err)
		}
		if role == "" {
			return nil, apperr.Forbidden()
		}
	}
	out, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return nil, apperr.Internal("failed to load members", err)
	}
	if out == nil {
		out = []MemberView{}
	}
	return out, nil
}

func (s *Service) buildOrganization(meta Metadata, now time.Time) (*models.Organization, error) {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		return nil, apperr.Validation("organization name required")
	}
	if len(name) > 255 {
		return nil, apperr.Validation("organization name must be at most 255 characters")
	}
	sl := strings.ToLower(strings.TrimSpace(meta.Slug))
	if sl == "" {
		sl = slug.Create(name)
	} else if !slug.Valid(sl) {
		return nil, apperr.Validation("slug must be 2-64 chars, lowercase letters, numbers, hyphens only")
	}
	o := &models.Organization{
		ID:               uuid.New(),
		Name:             name,
		Slug:             sl,
		OrganizationType: meta.OrganizationType,
		Status:           meta.Status,
		KYCStatus:        models.KYCPending,
		SubscriptionType: strings.TrimSpace(meta.SubscriptionType),
		LicenseStatus:    strings.TrimSpace(meta.LicenseStatus),
		MaxUsers:         meta.MaxUsers,
		ContactEmail:     strings.TrimSpace(meta.ContactEmail),
		ContactPhone:     strings.TrimSpace(meta.ContactPhone),
		Address:          strings.TrimSpace(meta.Address),
		DistrictID:       meta.DistrictID,
		RegionID:         meta.RegionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if o.OrganizationType == "" {
		o.OrganizationType = models.OrgTypeFarmerOrg
	}
	if !o.OrganizationType.Valid() {
		return nil, apperr.Validation("invalid organization_type")
	}
	if o.Status == "" {
		o.Status = models.OrgStatusPending
	}
	if !o.Status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	if o.SubscriptionType == "" {
		o.SubscriptionType = DefaultSubscriptionType
	}
	if o.LicenseStatus == "" {
		o.LicenseStatus = DefaultLicenseStatus
	}
	if o.MaxUsers == 0 {
		o.MaxUsers = DefaultMaxUsers
	}
	if o.MaxUsers < 0 {
		return nil, apperr.Validation("max_users must be positive")
	}
	return o, nil
}

func (s *Service) buildUser(in NewUser, now time.Time) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("valid email required")
	}
	u := &models.User{
		ID:          uuid.New(),
		Email:       email,
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        strings.TrimSpace(in.Role),
		Status:      models.UserStatusPending,
		KYCStatus:   models.KYCPending,
		DistrictID:  in.DistrictID,
		Address:     strings.TrimSpace(in.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Password != "" {
		if len(in.Password) < utils.MinPasswordLength {
			return nil, apperr.Validation("password must be at least 6 characters")
		}
		hash, err := s.hash(in.Password)
		if err != nil {
			return nil, apperr.Internal("failed to hash password", err)
		}
		u.Password = hash
	}
	return u, nil
}

func (s *Service) provisioned(ctx context.Context, actor *authz.SessionUser, mode Mode, org *models.Organization, owner *models.Member) {
	s.metrics.Provisioned(string(mode))
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	s.audit.Record(ctx, audit.Event(actor, audit.ActionOrganizationProvision, audit.TargetOrganization, []uuid.UUID{org.ID}, 1))
	s.logger.Info("organization provisioned",
		zap.String("mode", string(mode)),
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("owner_id", owner.UserID.String()))
}

// storeError passes typed errors through and wraps everything else as Internal.
func (s *Service) storeError(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return apperr.Internal("failed to "+op, err)
}

func newMember(orgID, userID uuid.UUID, role models.MemberRole, now time.Time) *models.Member {
	return &models.Member{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      now,
	}
}

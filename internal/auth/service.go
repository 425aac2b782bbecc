package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/utils"
)

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// UserStore is the user persistence auth needs. *users.Repository satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// DefaultOrganizations creates a user's first organization. *organizations.Service satisfies it.
type DefaultOrganizations interface {
	ShouldCreateOrganization(ctx context.Context, userID uuid.UUID) (bool, error)
	ProvisionDefault(ctx context.Context, userID uuid.UUID, displayName string) (*models.Organization, bool, error)
}

// StatsInvalidator drops cached directory aggregates. *directory.Service satisfies it.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Role        string
}

// Session is a signed token and the user it was issued to.
type Session struct {
	Token        string               `json:"token"`
	User         models.UserPublic    `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
}

// Service registers users and issues tokens.
type Service struct {
	users  UserStore
	orgs   DefaultOrganizations
	stats  StatsInvalidator
	jwt    *JWTService
	logger *zap.Logger
}

// NewService creates an auth service. stats may be nil.
func NewService(users UserStore, orgs DefaultOrganizations, stats StatsInvalidator, jwt *JWTService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, orgs: orgs, stats: stats, jwt: jwt, logger: logger}
}

// Register creates a pending user and their default organization, then signs a token.
// A failed default organization does not undo the sign-up; Login retries it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	role := strings.TrimSpace(in.Role)
	if authz.PlatformAdminRoles.Has(role) {
		return nil, apperr.Validation("invalid role")
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, apperr.Validation("password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Validation("invalid password")
	}
	u := &models.User{
		Email:       in.Email,
		Password:    hash,
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        role,
		Status:      models.UserStatusPending,
		KYCStatus:   models.KYCPending,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, err
		}
		return nil, apperr.Internal("failed to create user", err)
	}
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}

	org := s.ensureDefault(ctx, u)
	return s.issue(u, org)
}

// Login checks credentials and signs a token. Banned and suspended accounts are refused.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, errBadCredentials
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, errBadCredentials
	}
	if u.Banned {
		return nil, &apperr.Error{Kind: apperr.KindForbidden, Message: "account is banned"}
	}
	if u.Status == models.UserStatusSuspended {
		return nil, &apperr.Error{Kind: apperr.KindForbidden, Message: "account is suspended"}
	}

	var org *models.Organization
	need, err := s.orgs.ShouldCreateOrganization(ctx, u.ID)
	if err != nil {
		s.logger.Warn("membership check failed", zap.String("user_id", u.ID.String()), zap.Error(err))
	} else if need {
		org = s.ensureDefault(ctx, u)
	}
	return s.issue(u, org)
}

func (s *Service) ensureDefault(ctx context.Context, u *models.User) *models.Organization {
	org, _, err := s.orgs.ProvisionDefault(ctx, u.ID, u.DisplayName())
	if err != nil {
		s.logger.Error("default organization not created", zap.String("user_id", u.ID.String()), zap.Error(err))
		return nil
	}
	return org
}

func (s *Service) issue(u *models.User, org *models.Organization) (*Session, error) {
	token, err := s.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}
	return &Session{Token: token, User: u.ToPublic(), Organization: org}, nil
}

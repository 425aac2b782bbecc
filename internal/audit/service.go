package audit

import (
	"context"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
)

// MaxListLimit caps one page of audit events.
const MaxListLimit = 200

// Lister reads stored events.
type Lister interface {
	List(ctx context.Context, f Filter) ([]models.AuditEvent, error)
}

// Service exposes the audit trail to platform admins.
type Service struct {
	store Lister
}

// NewService creates an audit service.
func NewService(store Lister) *Service {
	return &Service{store: store}
}

// List returns events for f. Limit defaults to 50 and is capped at MaxListLimit.
func (s *Service) List(ctx context.Context, session *authz.SessionUser, f Filter) ([]models.AuditEvent, error) {
	if err := authz.EnsurePlatformAdmin(session); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	events, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to load audit events", err)
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	return events, nil
}

package invitations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriconnect/admin-backend/internal/audit"
	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
)

type fakeStore struct {
	created  []*models.Invitation
	byID     map[uuid.UUID]*models.Invitation
	revoked  []uuid.UUID
	AcceptFn func(id, userID uuid.UUID, email string, now time.Time) (*models.Member, error)
}

func (f *fakeStore) Create(_ context.Context, inv *models.Invitation) error {
	f.created = append(f.created, inv)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Invitation, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListForOrganization(context.Context, uuid.UUID) ([]*models.Invitation, error) {
	return nil, nil
}

func (f *fakeStore) Revoke(_ context.Context, id uuid.UUID) error {
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *fakeStore) Accept(_ context.Context, id, userID uuid.UUID, email string, now time.Time) (*models.Member, error) {
	return f.AcceptFn(id, userID, email, now)
}

type roleMap map[uuid.UUID]models.MemberRole

func (r roleMap) MemberRole(_ context.Context, _, userID uuid.UUID) (models.MemberRole, error) {
	return r[userID], nil
}

type spyRecorder struct{ events []models.AuditEvent }

func (s *spyRecorder) Record(_ context.Context, e models.AuditEvent) { s.events = append(s.events, e) }

var _ audit.Recorder = (*spyRecorder)(nil)

func newTestService(store *fakeStore, roles roleMap, rec audit.Recorder) *Service {
	svc := NewService(store, roles, 48*time.Hour, rec, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestInviteByOrganizationAdmin(t *testing.T) {
	store := &fakeStore{}
	caller := &authz.SessionUser{ID: uuid.New()}
	svc := newTestService(store, roleMap{caller.ID: models.MemberRoleAdmin}, nil)

	inv, err := svc.Invite(context.Background(), caller, uuid.New(), "  Ama@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "ama@example.com", inv.Email)
	assert.Equal(t, models.MemberRoleMember, inv.Role)
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Equal(t, inv.CreatedAt.Add(48*time.Hour), inv.ExpiresAt)
	assert.Len(t, store.created, 1)
}

func TestInviteRejectsPlainMember(t *testing.T) {
	store := &fakeStore{}
	caller := &authz.SessionUser{ID: uuid.New()}
	svc := newTestService(store, roleMap{caller.ID: models.MemberRoleMember}, nil)

	_, err := svc.Invite(context.Background(), caller, uuid.New(), "ama@example.com", models.MemberRoleMember)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, store.created)
}

func TestInviteByPlatformAdminWithoutMembership(t *testing.T) {
	store := &fakeStore{}
	caller := &authz.SessionUser{ID: uuid.New(), Role: "admin"}
	svc := newTestService(store, roleMap{}, nil)

	_, err := svc.Invite(context.Background(), caller, uuid.New(), "ama@example.com", models.MemberRoleAdmin)
	require.NoError(t, err)
	assert.Len(t, store.created, 1)
}

func TestInviteRejectsOwnerRoleAndBadEmail(t *testing.T) {
	caller := &authz.SessionUser{ID: uuid.New(), Role: "admin"}
	svc := newTestService(&fakeStore{}, roleMap{}, nil)

	_, err := svc.Invite(context.Background(), caller, uuid.New(), "ama@example.com", models.MemberRoleOwner)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Invite(context.Background(), caller, uuid.New(), "not-an-email", models.MemberRoleMember)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAcceptRecordsAudit(t *testing.T) {
	orgID := uuid.New()
	caller := &authz.SessionUser{ID: uuid.New(), Email: "ama@example.com"}
	var gotEmail string
	store := &fakeStore{AcceptFn: func(id, userID uuid.UUID, email string, now time.Time) (*models.Member, error) {
		gotEmail = email
		return &models.Member{ID: uuid.New(), OrganizationID: orgID, UserID: userID, Role: models.MemberRoleMember, CreatedAt: now}, nil
	}}
	rec := &spyRecorder{}
	svc := newTestService(store, roleMap{}, rec)

	m, err := svc.Accept(context.Background(), caller, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, orgID, m.OrganizationID)
	assert.Equal(t, "ama@example.com", gotEmail)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionInvitationAccept, rec.events[0].Action)
}

func TestAcceptPassesTypedErrorsThrough(t *testing.T) {
	store := &fakeStore{AcceptFn: func(uuid.UUID, uuid.UUID, string, time.Time) (*models.Member, error) {
		return nil, ErrExpired
	}}
	rec := &spyRecorder{}
	svc := newTestService(store, roleMap{}, rec)

	_, err := svc.Accept(context.Background(), &authz.SessionUser{ID: uuid.New()}, uuid.New())
	assert.ErrorIs(t, err, ErrExpired)
	assert.Empty(t, rec.events)
}

func TestAcceptRequiresSession(t *testing.T) {
	svc := newTestService(&fakeStore{}, roleMap{}, nil)
	_, err := svc.Accept(context.Background(), nil, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRevokeChecksOrganizationRole(t *testing.T) {
	orgID := uuid.New()
	inv := &models.Invitation{ID: uuid.New(), OrganizationID: orgID, Status: models.InvitationPending}
	store := &fakeStore{byID: map[uuid.UUID]*models.Invitation{inv.ID: inv}}
	owner := &authz.SessionUser{ID: uuid.New()}
	stranger := &authz.SessionUser{ID: uuid.New()}
	svc := newTestService(store, roleMap{owner.ID: models.MemberRoleOwner}, nil)

	assert.ErrorIs(t, svc.Revoke(context.Background(), stranger, inv.ID), apperr.ErrForbidden)
	assert.Empty(t, store.revoked)

	require.NoError(t, svc.Revoke(context.Background(), owner, inv.ID))
	assert.Equal(t, []uuid.UUID{inv.ID}, store.revoked)

	assert.ErrorIs(t, svc.Revoke(context.Background(), owner, uuid.New()), apperr.ErrNotFound)
}

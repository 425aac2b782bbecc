package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/apperr"
)

// mockUserStore counts every write so tests can assert that nothing reached the store.
type mockUserStore struct {
	writes int

	ApproveManyFunc func(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error)
	SuspendManyFunc func(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error)
	BanManyFunc     func(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error)
	UpdateFunc      func(ctx context.Context, id uuid.UUID, p users.Patch, now time.Time) (*models.User, error)
}

func (m *mockUserStore) ApproveMany(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	m.writes++
	if m.ApproveManyFunc != nil {
		return m.ApproveManyFunc(ctx, ids, now)
	}
	return int64(len(ids)), nil
}

func (m *mockUserStore) SuspendMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error) {
	m.writes++
	if m.SuspendManyFunc != nil {
		return m.SuspendManyFunc(ctx, ids, reason, now)
	}
	return int64(len(ids)), nil
}

func (m *mockUserStore) BanMany(ctx context.Context, ids []uuid.UUID, reason string, now time.Time) (int64, error) {
	m.writes++
	if m.BanManyFunc != nil {
		return m.BanManyFunc(ctx, ids, reason, now)
	}
	return int64(len(ids)), nil
}

func (m *mockUserStore) Update(ctx context.Context, id uuid.UUID, p users.Patch, now time.Time) (*models.User, error) {
	m.writes++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, p, now)
	}
	return &models.User{ID: id}, nil
}

type mockOrgStore struct {
	writes int
	orgs   map[uuid.UUID]*models.Organization
}

func (m *mockOrgStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, apperr.NotFound("organization")
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrgStore) SetStatusMany(ctx context.Context, ids []uuid.UUID, status models.OrganizationStatus, now time.Time) (int64, error) {
	m.writes++
	var n int64
	for _, id := range ids {
		if o, ok := m.orgs[id]; ok {
			o.Status = status
			n++
		}
	}
	return n, nil
}

func (m *mockOrgStore) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	m.writes++
	var n int64
	for _, id := range ids {
		if _, ok := m.orgs[id]; ok {
			delete(m.orgs, id)
			n++
		}
	}
	return n, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateStats(context.Context) { c.calls++ }

var (
	adminUser = &authz.SessionUser{ID: uuid.New(), Admin: &authz.AdminClaims{Roles: []string{"userAc"}}}
	fixedNow  = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
)

func newTestService(u *mockUserStore, o *mockOrgStore, stats StatsInvalidator) *Service {
	if o == nil {
		o = &mockOrgStore{orgs: map[uuid.UUID]*models.Organization{}}
	}
	svc := NewService(u, o, stats, nil, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestNonAdminsAreRejectedBeforeTheStore(t *testing.T) {
	callers := []*authz.SessionUser{
		nil,
		{ID: uuid.New()},
		{ID: uuid.New(), Role: "member"},
		{ID: uuid.New(), Roles: []string{}},
		{ID: uuid.New(), Roles: []string{"owner", "farmer"}},
		{ID: uuid.New(), Admin: &authz.AdminClaims{}},
	}
	for _, caller := range callers {
		us := &mockUserStore{}
		os := &mockOrgStore{orgs: map[uuid.UUID]*models.Organization{}}
		svc := newTestService(us, os, nil)
		ids := []uuid.UUID{uuid.New()}
		ctx := context.Background()

		_, err := svc.ApproveUsers(ctx, caller, ids)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.SuspendUsers(ctx, caller, ids, "")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.DeleteUsers(ctx, caller, ids)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.ApproveOrganizations(ctx, caller, ids)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.SuspendOrganizations(ctx, caller, ids)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.DeleteOrganizations(ctx, caller, ids)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.ApproveOrganization(ctx, caller, ids[0])
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		name := "x"
		_, err = svc.UpdateUser(ctx, caller, ids[0], users.Patch{FullName: &name})
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		assert.Zero(t, us.writes)
		assert.Zero(t, os.writes)
	}
}

func TestApproveUsersDeduplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var got []uuid.UUID
	var gotNow time.Time
	us := &mockUserStore{ApproveManyFunc: func(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
		got, gotNow = ids, now
		return int64(len(ids)), nil
	}}
	stats := &countingInvalidator{}

	n, err := newTestService(us, nil, stats).ApproveUsers(context.Background(), adminUser, []uuid.UUID{a, b, a, uuid.Nil})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []uuid.UUID{a, b}, got)
	assert.Equal(t, fixedNow, gotNow)
	assert.Equal(t, 1, us.writes)
	assert.Equal(t, 1, stats.calls)
}

func TestEmptyIDsIsNoop(t *testing.T) {
	us := &mockUserStore{}
	n, err := newTestService(us, nil, nil).ApproveUsers(context.Background(), adminUser, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, us.writes)
}

func TestDeleteUsersSoftDeletes(t *testing.T) {
	var reason string
	us := &mockUserStore{BanManyFunc: func(ctx context.Context, ids []uuid.UUID, r string, now time.Time) (int64, error) {
		reason = r
		return int64(len(ids)), nil
	}}
	n, err := newTestService(us, nil, nil).DeleteUsers(context.Background(), adminUser, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "Account deleted by admin", reason)
}

func TestSuspendUsersPassesReason(t *testing.T) {
	var reason string
	us := &mockUserStore{SuspendManyFunc: func(ctx context.Context, ids []uuid.UUID, r string, now time.Time) (int64, error) {
		reason = r
		return 1, nil
	}}
	_, err := newTestService(us, nil, nil).SuspendUsers(context.Background(), adminUser, []uuid.UUID{uuid.New()}, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, "fraud review", reason)
}

func TestStoreFailureIsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	us := &mockUserStore{ApproveManyFunc: func(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
		return 0, cause
	}}
	_, err := newTestService(us, nil, nil).ApproveUsers(context.Background(), adminUser, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, apperr.PublicMessage(err), "connection refused")
}

func TestApproveOrganizationAlreadyActiveDoesNotWrite(t *testing.T) {
	id := uuid.New()
	os := &mockOrgStore{orgs: map[uuid.UUID]*models.Organization{id: {ID: id, Status: models.OrgStatusActive}}}
	svc := newTestService(&mockUserStore{}, os, nil)

	res, err := svc.ApproveOrganization(context.Background(), adminUser, id)
	require.NoError(t, err)
	assert.True(t, res.AlreadyActive)
	assert.Zero(t, os.writes)
}

func TestApproveOrganizationPending(t *testing.T) {
	id := uuid.New()
	os := &mockOrgStore{orgs: map[uuid.UUID]*models.Organization{id: {ID: id, Status: models.OrgStatusPending}}}
	svc := newTestService(&mockUserStore{}, os, nil)

	res, err := svc.ApproveOrganization(context.Background(), adminUser, id)
	require.NoError(t, err)
	assert.False(t, res.AlreadyActive)
	assert.Equal(t, models.OrgStatusActive, res.Organization.Status)
	assert.Equal(t, 1, os.writes)

	_, err = svc.ApproveOrganization(context.Background(), adminUser, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBulkOrganizationTransitionsInAnyOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	os := &mockOrgStore{orgs: map[uuid.UUID]*models.Organization{
		a: {ID: a, Status: models.OrgStatusPending},
		b: {ID: b, Status: models.OrgStatusActive},
	}}
	svc := newTestService(&mockUserStore{}, os, nil)
	ctx := context.Background()

	n, err := svc.SuspendOrganizations(ctx, adminUser, []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.ApproveOrganizations(ctx, adminUser, []uuid.UUID{a})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.OrgStatusActive, os.orgs[a].Status)

	n, err = svc.DeleteOrganizations(ctx, adminUser, []uuid.UUID{a, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, os.orgs, a)
}

func TestUpdateUser(t *testing.T) {
	svc := newTestService(&mockUserStore{UpdateFunc: func(ctx context.Context, id uuid.UUID, p users.Patch, now time.Time) (*models.User, error) {
		return nil, users.ErrNotFound
	}}, nil, nil)

	name := "Ama"
	_, err := svc.UpdateUser(context.Background(), adminUser, uuid.New(), users.Patch{FullName: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateUser(context.Background(), adminUser, uuid.New(), users.Patch{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUniqueIDs(t *testing.T) {
	a := uuid.New()
	assert.Equal(t, []uuid.UUID{a}, UniqueIDs([]uuid.UUID{a, a, uuid.Nil}))
	assert.Empty(t, UniqueIDs(nil))
}

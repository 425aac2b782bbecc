package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/queue"
)

type fakeEnqueuer struct {
	jobs []interface{}
	err  error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, t queue.JobType, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, payload)
	return nil
}

type fakeLister struct {
	ListFunc func(ctx context.Context, f Filter) ([]models.AuditEvent, error)
	calls    int
}

func (f *fakeLister) List(ctx context.Context, filter Filter) ([]models.AuditEvent, error) {
	f.calls++
	return f.ListFunc(ctx, filter)
}

var admin = &authz.SessionUser{ID: uuid.New(), Role: authz.RoleAdmin}

func TestQueueRecorderFillsIDAndTime(t *testing.T) {
	q := &fakeEnqueuer{}
	r := NewQueueRecorder(q, nil, nil)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Record(context.Background(), Event(admin, ActionUsersApprove, TargetUser, []uuid.UUID{uuid.New()}, 1))

	require.Len(t, q.jobs, 1)
	e := q.jobs[0].(models.AuditEvent)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, fixed, e.CreatedAt)
	require.NotNil(t, e.ActorID)
	assert.Equal(t, admin.ID, *e.ActorID)
}

func TestQueueRecorderSwallowsErrors(t *testing.T) {
	r := NewQueueRecorder(&fakeEnqueuer{err: errors.New("redis down")}, nil, nil)
	assert.NotPanics(t, func() {
		r.Record(context.Background(), Event(nil, ActionUsersDelete, TargetUser, nil, 0))
	})
}

func TestListQuery(t *testing.T) {
	actor := uuid.New()
	q, args, err := ListQuery(Filter{Action: ActionUsersSuspend, ActorID: actor, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+columns+" FROM audit_events WHERE action = $1 AND actor_id = $2 ORDER BY created_at DESC, id LIMIT 10 OFFSET 0", q)
	assert.Equal(t, []interface{}{ActionUsersSuspend, actor}, args)
}

func TestServiceRequiresAdmin(t *testing.T) {
	store := &fakeLister{ListFunc: func(ctx context.Context, f Filter) ([]models.AuditEvent, error) { return nil, nil }}
	svc := NewService(store)

	_, err := svc.List(context.Background(), &authz.SessionUser{ID: uuid.New(), Role: "farmer"}, Filter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Zero(t, store.calls)
}

func TestServiceClampsLimit(t *testing.T) {
	var got Filter
	store := &fakeLister{ListFunc: func(ctx context.Context, f Filter) ([]models.AuditEvent, error) {
		got = f
		return nil, nil
	}}
	events, err := NewService(store).List(context.Background(), admin, Filter{Limit: 10000})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Equal(t, uint64(MaxListLimit), got.Limit)
}

func TestRepositoryInsertIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	e := &models.AuditEvent{ID: uuid.New(), Action: ActionUsersApprove, TargetType: TargetUser, CreatedAt: time.Now()}
	mock.ExpectExec(`(?s)INSERT INTO audit_events .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(e.ID, e.ActorID, e.Action, e.TargetType, []uuid.UUID{}, int64(0), "", e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, NewRepository(mock).Insert(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package invitations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriconnect/admin-backend/internal/models"
)

var invitationCols = []string{"id", "organization_id", "email", "role", "status", "inviter_id", "expires_at", "created_at"}

func invitationRow(id, orgID uuid.UUID, status string, expires time.Time) *pgxmock.Rows {
	inviter := uuid.New()
	return pgxmock.NewRows(invitationCols).
		AddRow(id, orgID, "ama@example.com", "member", status, &inviter, expires, expires.Add(-7*24*time.Hour))
}

func TestAcceptCreatesMembership(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	id, orgID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT id, organization_id.*FOR UPDATE`).WithArgs(id).
		WillReturnRows(invitationRow(id, orgID, "pending", now.Add(time.Hour)))
	mock.ExpectExec(`INSERT INTO members`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE invitations SET status = 'accepted'`).WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	m, err := NewRepository(mock).Accept(context.Background(), id, userID, " AMA@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, orgID, m.OrganizationID)
	assert.Equal(t, userID, m.UserID)
	assert.Equal(t, models.MemberRoleMember, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptMarksExpiredAndCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT id, organization_id.*FOR UPDATE`).WithArgs(id).
		WillReturnRows(invitationRow(id, uuid.New(), "pending", now))
	mock.ExpectExec(`UPDATE invitations SET status = 'expired'`).WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err = NewRepository(mock).Accept(context.Background(), id, uuid.New(), "ama@example.com", now)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRejectsOtherEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT id, organization_id.*FOR UPDATE`).WithArgs(id).
		WillReturnRows(invitationRow(id, uuid.New(), "pending", now.Add(time.Hour)))
	mock.ExpectRollback()

	_, err = NewRepository(mock).Accept(context.Background(), id, uuid.New(), "kofi@example.com", now)
	assert.ErrorIs(t, err, ErrWrongEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRejectsUsedInvitation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT id, organization_id.*FOR UPDATE`).WithArgs(id).
		WillReturnRows(invitationRow(id, uuid.New(), "accepted", now.Add(time.Hour)))
	mock.ExpectRollback()

	_, err = NewRepository(mock).Accept(context.Background(), id, uuid.New(), "ama@example.com", now)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeOnlyPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE invitations SET status = 'revoked'`).WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, NewRepository(mock).Revoke(context.Background(), id), ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMemberCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a, b := uuid.New(), uuid.New()
	page := []OrganizationRow{{}, {}}
	page[0].ID, page[1].ID = a, b

	mock.ExpectQuery(`SELECT organization_id, COUNT\(\*\) FROM members WHERE organization_id = ANY\(\$1\) GROUP BY organization_id`).
		WithArgs([]uuid.UUID{a, b}).
		WillReturnRows(pgxmock.NewRows([]string{"organization_id", "count"}).AddRow(a, int64(3)))

	require.NoError(t, NewRepository(mock).mergeMemberCounts(context.Background(), page))
	assert.Equal(t, int64(3), page[0].MemberCount)
	assert.Zero(t, page[1].MemberCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users`).WillReturnRows(
		pgxmock.NewRows([]string{"total", "pending", "approved", "suspended", "rejected", "banned", "kyc_verified", "kyc_pending"}).
			AddRow(int64(10), int64(4), int64(3), int64(1), int64(1), int64(1), int64(3), int64(6)))
	mock.ExpectQuery(`FROM organizations`).WillReturnRows(
		pgxmock.NewRows([]string{"total", "pending", "active", "suspended"}).
			AddRow(int64(5), int64(2), int64(2), int64(1)))

	st, err := NewRepository(mock).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.TotalUsers)
	assert.Equal(t, int64(1), st.BannedUsers)
	assert.Equal(t, int64(2), st.ActiveOrganizations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

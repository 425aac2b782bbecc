package kyc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/users"
)

func TestInsertMapsMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	d := &models.KYCDocument{ID: uuid.New(), UserID: uuid.New(), DocumentType: "passport", FileName: "p.pdf",
		ContentType: "application/pdf", SizeBytes: 10, S3Key: "kyc/x/y.pdf", CreatedAt: time.Now()}
	mock.ExpectExec(`INSERT INTO kyc_documents`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "kyc_documents_user_id_fkey"})

	assert.ErrorIs(t, NewRepository(mock).Insert(context.Background(), d), users.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM kyc_documents`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, NewRepository(mock).Delete(context.Background(), id), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

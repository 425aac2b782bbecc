// Package kyc stores identity documents users submit for verification.
package kyc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/users"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/database"
)

const columns = `id, user_id, document_type, file_name, content_type, size_bytes, s3_key, created_at`

var ErrNotFound = apperr.NotFound("document")

// Repository persists document metadata. The bytes live in object storage.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a KYC repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*models.KYCDocument, error) {
	var d models.KYCDocument
	err := row.Scan(&d.ID, &d.UserID, &d.DocumentType, &d.FileName, &d.ContentType, &d.SizeBytes, &d.S3Key, &d.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Insert records an uploaded document.
func (r *Repository) Insert(ctx context.Context, d *models.KYCDocument) error {
	_, err := r.db.Exec(ctx, `INSERT INTO kyc_documents (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.UserID, d.DocumentType, d.FileName, d.ContentType, d.SizeBytes, d.S3Key, d.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return users.ErrNotFound
		}
		return fmt.Errorf("insert kyc document: %w", err)
	}
	return nil
}

// GetByID returns one document.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM kyc_documents WHERE id = $1`, id))
}

// ListForUser returns a user's documents, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.KYCDocument, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM kyc_documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.KYCDocument
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes a document row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM kyc_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

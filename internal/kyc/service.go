package kyc

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agriconnect/admin-backend/internal/authz"
	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/pkg/apperr"
	"github.com/agriconnect/admin-backend/pkg/storage"
)

// Document types a user may submit.
var DocumentTypes = map[string]bool{
	"national_id":           true,
	"passport":              true,
	"drivers_license":       true,
	"business_registration": true,
	"proof_of_address":      true,
}

// Store persists document metadata. *Repository satisfies it.
type Store interface {
	Insert(ctx context.Context, d *models.KYCDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.KYCDocument, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.KYCDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Objects is the object storage surface. *storage.S3 satisfies it.
type Objects interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is one document submitted by the caller.
type Upload struct {
	DocumentType string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// DocumentView is a document with a short-lived download URL, for reviewers.
type DocumentView struct {
	*models.KYCDocument
	DownloadURL string `json:"download_url"`
}

// Service handles KYC uploads and review access.
type Service struct {
	store   Store
	objects Objects
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a KYC service. Files larger than maxSize bytes are rejected.
func NewService(store Store, objects Objects, maxSize int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, objects: objects, maxSize: maxSize, logger: logger, now: time.Now}
}

// Submit stores the file and then its metadata. The object is removed again if the row cannot be written.
func (s *Service) Submit(ctx context.Context, caller *authz.SessionUser, in Upload) (*models.KYCDocument, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	docType := strings.ToLower(strings.TrimSpace(in.DocumentType))
	if !DocumentTypes[docType] {
		return nil, apperr.Validation("invalid document_type")
	}
	if in.Size <= 0 {
		return nil, apperr.Validation("file is empty")
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return nil, apperr.Validation("file is too large")
	}
	if !storage.ValidateKYCFileType(in.ContentType, in.FileName) {
		return nil, apperr.Validation("invalid file type: only pdf, jpg and png allowed")
	}
	contentType := storage.ContentTypeForFilename(in.FileName)
	if ct := strings.ToLower(in.ContentType); ct != "" {
		if _, ok := storage.AllowedKYCTypes[ct]; ok {
			contentType = ct
		}
	}

	doc := &models.KYCDocument{
		ID:           uuid.New(),
		UserID:       caller.ID,
		DocumentType: docType,
		FileName:     in.FileName,
		ContentType:  contentType,
		SizeBytes:    in.Size,
		CreatedAt:    s.now().UTC(),
	}
	doc.S3Key = storage.KYCKey(caller.ID.String(), doc.ID.String(), in.FileName)

	if err := s.objects.Upload(ctx, doc.S3Key, contentType, in.Body, in.Size); err != nil {
		return nil, apperr.Internal("failed to upload document", err)
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		if derr := s.objects.Delete(ctx, doc.S3Key); derr != nil {
			s.logger.Warn("orphaned kyc object", zap.String("key", doc.S3Key), zap.Error(derr))
		}
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("failed to save document", err)
	}
	s.logger.Info("kyc document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("user_id", caller.ID.String()),
		zap.String("document_type", docType))
	return doc, nil
}

// ListMine returns the caller's own documents.
func (s *Service) ListMine(ctx context.Context, caller *authz.SessionUser) ([]*models.KYCDocument, error) {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return nil, err
	}
	docs, err := s.store.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load documents", err)
	}
	if docs == nil {
		docs = []*models.KYCDocument{}
	}
	return docs, nil
}

// ListForUser returns a user's documents with download URLs. Platform admins only.
func (s *Service) ListForUser(ctx context.Context, caller *authz.SessionUser, userID uuid.UUID) ([]DocumentView, error) {
	if err := authz.EnsurePlatformAdmin(caller); err != nil {
		return nil, err
	}
	docs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load documents", err)
	}
	out := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		url, err := s.objects.PresignGet(ctx, d.S3Key)
		if err != nil {
			return nil, apperr.Internal("failed to sign download url", err)
		}
		out = append(out, DocumentView{KYCDocument: d, DownloadURL: url})
	}
	return out, nil
}

// Delete removes one of the caller's documents. Platform admins may delete any document.
func (s *Service) Delete(ctx context.Context, caller *authz.SessionUser, id uuid.UUID) error {
	if err := authz.EnsureAuthenticated(caller); err != nil {
		return err
	}
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return err
		}
		return apperr.Internal("failed to load document", err)
	}
	if doc.UserID != caller.ID && !authz.IsPlatformAdmin(caller) {
		// Someone else's document reads as missing.
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return err
		}
		return apperr.Internal("failed to delete document", err)
	}
	if err := s.objects.Delete(ctx, doc.S3Key); err != nil {
		s.logger.Warn("orphaned kyc object", zap.String("key", doc.S3Key), zap.Error(err))
	}
	return nil
}

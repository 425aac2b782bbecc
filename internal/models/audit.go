package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent records an administrative or provisioning action.
type AuditEvent struct {
	ID         uuid.UUID   `json:"id"`
	ActorID    *uuid.UUID  `json:"actor_id,omitempty"`
	Action     string      `json:"action"`
	TargetType string      `json:"target_type"`
	TargetIDs  []uuid.UUID `json:"target_ids"`
	Affected   int64       `json:"affected"`
	Reason     string      `json:"reason,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// KYCDocument is an identity document uploaded by a user for verification.
type KYCDocument struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	S3Key        string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

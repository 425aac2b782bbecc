package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state managed by platform admins.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusApproved  UserStatus = "approved"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusRejected  UserStatus = "rejected"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusSuspended, UserStatusRejected:
		return true
	}
	return false
}

// KYCStatus is the Know Your Customer verification state of a user or organization.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// Valid reports whether s is a known KYC status.
func (s KYCStatus) Valid() bool {
	switch s {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// BanReasonDeleted is recorded when an admin "deletes" a user. Users are never hard-deleted.
const BanReasonDeleted = "Account deleted by admin"

// User represents a platform user.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Password         string     `json:"-"`
	FullName         string     `json:"full_name"`
	PhoneNumber      string     `json:"phone_number,omitempty"`
	Role             string     `json:"role,omitempty"`
	Status           UserStatus `json:"status"`
	KYCStatus        KYCStatus  `json:"kyc_status"`
	Banned           bool       `json:"banned"`
	BanReason        string     `json:"ban_reason,omitempty"`
	SuspensionReason string     `json:"suspension_reason,omitempty"`
	DistrictID       *uuid.UUID `json:"district_id,omitempty"`
	Address          string     `json:"address,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role,omitempty"`
	Status    UserStatus `json:"status"`
	KYCStatus KYCStatus  `json:"kyc_status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Status:    u.Status,
		KYCStatus: u.KYCStatus,
		CreatedAt: u.CreatedAt,
	}
}

// DisplayName is the name used for derived values such as default organization names.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

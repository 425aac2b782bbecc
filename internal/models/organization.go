package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationType is the business category of a tenant.
type OrganizationType string

const (
	OrgTypeFarmerOrg OrganizationType = "farmer_org"
	OrgTypeSupplier  OrganizationType = "supplier"
	OrgTypeFinancial OrganizationType = "financial"
	OrgTypeBuyer     OrganizationType = "buyer"
)

// Valid reports whether t is a known organization type.
func (t OrganizationType) Valid() bool {
	switch t {
	case OrgTypeFarmerOrg, OrgTypeSupplier, OrgTypeFinancial, OrgTypeBuyer:
		return true
	}
	return false
}

// OrganizationStatus is the tenant lifecycle state.
type OrganizationStatus string

const (
	OrgStatusPending   OrganizationStatus = "pending"
	OrgStatusActive    OrganizationStatus = "active"
	OrgStatusSuspended OrganizationStatus = "suspended"
)

// Valid reports whether s is a known organization status.
func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrgStatusPending, OrgStatusActive, OrgStatusSuspended:
		return true
	}
	return false
}

// Organization represents a tenant.
type Organization struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	OrganizationType OrganizationType   `json:"organization_type"`
	Status           OrganizationStatus `json:"status"`
	KYCStatus        KYCStatus          `json:"kyc_status"`
	SubscriptionType string             `json:"subscription_type"`
	LicenseStatus    string             `json:"license_status"`
	MaxUsers         int                `json:"max_users"`
	ContactEmail     string             `json:"contact_email,omitempty"`
	ContactPhone     string             `json:"contact_phone,omitempty"`
	Address          string             `json:"address,omitempty"`
	DistrictID       *uuid.UUID         `json:"district_id,omitempty"`
	RegionID         *uuid.UUID         `json:"region_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// MemberRole is the role of a user in an organization.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Valid reports whether r is a known member role.
func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may invite or manage other members.
func (r MemberRole) CanManage() bool {
	return r == MemberRoleOwner || r == MemberRoleAdmin
}

// Member links a user to an organization with a role.
type Member struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           MemberRole `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Team is an optional grouping of members inside one organization.
type Team struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TeamMember places an organization member's user in a team.
type TeamMember struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"team_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

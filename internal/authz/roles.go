// Package authz collects caller roles and gates platform administration.
package authz

import (
	"strings"

	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/pkg/apperr"
)

// Platform admin roles. This is the only place the set is defined.
const (
	RoleAdmin        = "admin"
	RoleSupportAdmin = "supportAdmin"
	RoleUserAc       = "userAc"
)

// PlatformAdminRoles is the set of roles allowed to run administrative operations.
var PlatformAdminRoles = NewRoles(RoleAdmin, RoleSupportAdmin, RoleUserAc)

// AdminClaims is the nested role container some identity providers emit.
type AdminClaims struct {
	Roles []string `json:"roles,omitempty"`
}

// SessionUser is the authenticated caller as delivered by the identity layer. Roles may
// arrive in any of three shapes: Role, Roles or Admin.Roles.
type SessionUser struct {
	ID    uuid.UUID    `json:"id"`
	Email string       `json:"email"`
	Role  string       `json:"role,omitempty"`
	Roles []string     `json:"roles,omitempty"`
	Admin *AdminClaims `json:"admin,omitempty"`
}

// Roles is a role set. Matching is exact: "Admin" and " admin " are not "admin".
type Roles map[string]struct{}

// NewRoles builds a set from names, dropping blanks.
func NewRoles(names ...string) Roles {
	r := make(Roles, len(names))
	for _, n := range names {
		r.add(n)
	}
	return r
}

func (r Roles) add(name string) {
	if strings.TrimSpace(name) != "" {
		r[name] = struct{}{}
	}
}

// FromSessionUser collects role candidates from all three shapes once, at the boundary.
func FromSessionUser(u *SessionUser) Roles {
	r := Roles{}
	if u == nil {
		return r
	}
	r.add(u.Role)
	for _, n := range u.Roles {
		r.add(n)
	}
	if u.Admin != nil {
		for _, n := range u.Admin.Roles {
			r.add(n)
		}
	}
	return r
}

// Has reports whether name is in the set.
func (r Roles) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Intersects reports whether r and other share at least one role.
func (r Roles) Intersects(other Roles) bool {
	for n := range r {
		if _, ok := other[n]; ok {
			return true
		}
	}
	return false
}

// IsPlatformAdmin reports whether u holds any platform admin role.
func IsPlatformAdmin(u *SessionUser) bool {
	return FromSessionUser(u).Intersects(PlatformAdminRoles)
}

// EnsurePlatformAdmin returns apperr.Forbidden unless u holds a platform admin role.
// Every administrative operation calls it before touching the store.
func EnsurePlatformAdmin(u *SessionUser) error {
	if !IsPlatformAdmin(u) {
		return apperr.Forbidden()
	}
	return nil
}

// EnsureAuthenticated returns apperr.Unauthorized when there is no session user.
func EnsureAuthenticated(u *SessionUser) error {
	if u == nil || u.ID == uuid.Nil {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

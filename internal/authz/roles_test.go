package authz

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/agriconnect/admin-backend/pkg/apperr"
)

func TestFromSessionUserCollectsAllShapes(t *testing.T) {
	u := &SessionUser{
		Role:  "member",
		Roles: []string{"viewer", " "},
		Admin: &AdminClaims{Roles: []string{"supportAdmin"}},
	}
	r := FromSessionUser(u)

	assert.True(t, r.Has("member"))
	assert.True(t, r.Has("viewer"))
	assert.True(t, r.Has("supportAdmin"))
	assert.False(t, r.Has("supportadmin"))
	assert.Len(t, r, 3)
}

func TestEnsurePlatformAdminAccepts(t *testing.T) {
	accepted := []*SessionUser{
		{Role: "admin"},
		{Roles: []string{"member", "userAc"}},
		{Admin: &AdminClaims{Roles: []string{"supportAdmin"}}},
	}
	for _, u := range accepted {
		assert.NoError(t, EnsurePlatformAdmin(u), "%+v", u)
	}
}

func TestEnsurePlatformAdminRejects(t *testing.T) {
	rejected := []*SessionUser{
		nil,
		{},
		{Role: "member"},
		{Role: "owner", Roles: []string{}},
		{Roles: []string{"farmer", "buyer"}},
		{Admin: &AdminClaims{}},
		{Admin: &AdminClaims{Roles: []string{"superuser"}}},
		{Role: "ADMIN"},
		{Role: "Admin"},
		{Role: " admin "},
		{Roles: []string{"SUPPORTADMIN"}},
		{Admin: &AdminClaims{Roles: []string{"userac"}}},
	}
	for _, u := range rejected {
		err := EnsurePlatformAdmin(u)
		assert.True(t, errors.Is(err, apperr.ErrForbidden), "%+v", u)
		assert.Equal(t, "forbidden", apperr.PublicMessage(err))
	}
}

func TestEnsureAuthenticated(t *testing.T) {
	assert.Error(t, EnsureAuthenticated(nil))
	assert.Error(t, EnsureAuthenticated(&SessionUser{Role: "admin"}))
	assert.NoError(t, EnsureAuthenticated(&SessionUser{ID: uuid.New()}))
}

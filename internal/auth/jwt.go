package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agriconnect/admin-backend/internal/authz"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds JWT claims including user ID and every role shape the identity layer may emit.
type Claims struct {
	UserID uuid.UUID          `json:"user_id"`
	Email  string             `json:"email"`
	Role   string             `json:"role,omitempty"`
	Roles  []string           `json:"roles,omitempty"`
	Admin  *authz.AdminClaims `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// SessionUser converts the claims into the caller value used for authorization.
func (c *Claims) SessionUser() *authz.SessionUser {
	return &authz.SessionUser{
		ID:    c.UserID,
		Email: c.Email,
		Role:  c.Role,
		Roles: c.Roles,
		Admin: c.Admin,
	}
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// Generate creates a new JWT for the user.
func (s *JWTService) Generate(userID uuid.UUID, email, role string, extraRoles ...string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Roles:  extraRoles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateSession validates tokenString and returns the caller it identifies.
func (s *JWTService) ValidateSession(tokenString string) (*authz.SessionUser, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.SessionUser(), nil
}

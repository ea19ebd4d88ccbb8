// Package auth issues and validates the JWT tokens used by the API.
package auth

import (
	"errors"
	"time"

	"civicreport/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity claims carried by an access token
type Claims struct {
	UserID int64
	Role   models.Role
}

// Manager signs and validates HMAC tokens
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue generates a signed token carrying the user's id and role
func (m *Manager) Issue(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role.Name(),
		"exp":     now.Add(m.ttl).Unix(),
		"iat":     now.Unix(),
	})
	return token.SignedString(m.secret)
}

// Validate parses a token and returns its identity claims
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("invalid user id in token")
	}

	roleName, _ := claims["role"].(string)
	role, ok := roleFromName(roleName)
	if !ok {
		return nil, errors.New("invalid role in token")
	}

	return &Claims{UserID: int64(userID), Role: role}, nil
}

func roleFromName(name string) (models.Role, bool) {
	switch name {
	case models.RoleUser.Name():
		return models.RoleUser, true
	case models.RoleAdmin.Name():
		return models.RoleAdmin, true
	case models.RoleCurator.Name():
		return models.RoleCurator, true
	}
	return 0, false
}

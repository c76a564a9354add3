package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles of the food rescue network.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleDonor     UserRole = "donor"
	RoleReceiver  UserRole = "receiver"
	RoleVolunteer UserRole = "volunteer"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleReceiver, RoleVolunteer:
		return true
	}
	return false
}

// Actor is the caller of a workflow operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// JWTClaims represents the access token payload issued by the auth backend.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts claims into a workflow actor.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

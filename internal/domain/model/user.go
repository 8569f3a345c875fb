package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Roles lists every role a user may hold.
var Roles = []string{RoleUser, RoleAdmin}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity is what a verified bearer token asserts about its holder. The
// role is frozen at issuance and is not re-read from the users table.
type Identity struct {
	Username string    `json:"username"`
	Role     string    `json:"role"`
	TokenID  string    `json:"-"`
	Expires  time.Time `json:"-"`
}

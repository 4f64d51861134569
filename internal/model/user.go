package model

import "time"

// UserProfile is the account row of an authenticated principal.
type UserProfile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Roles     []string   `json:"roles"`
	Active    bool       `json:"is_active"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

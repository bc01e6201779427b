package domain

import "time"

// User represents a registered account of the system.
type User struct {
	ID           string
	Email        string
	Username     string
	Name         string
	PasswordHash string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the public-safe projection of a User. It never carries the password hash.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Identity projects the user onto its public fields.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Username: u.Username,
	}
}

// Author is the subset of a user embedded in posts and comments.
type Author struct {
	ID       string
	Username string
	Name     string
	Avatar   *string
}

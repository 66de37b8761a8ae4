package domain

import "time"

// User is an account in the identity store. PasswordHash is the argon2id
// verifier material; it never leaves the service layer.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2 encoded
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

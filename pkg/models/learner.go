package models

import (
	"time"
)

// Learner is an authenticated trainee. Learners are provisioned on first
// sign-in from the identity provider's claims.
type Learner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

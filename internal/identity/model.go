package identity

import "time"

// User represents a registered wallet owner.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// RegisterInput captures data required to onboard a user.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
}

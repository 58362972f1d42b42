package identity

import "context"

type UserRepository interface {
	// Create returns ErrEmailTaken when the email is already registered,
	// compared case-insensitively.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
}

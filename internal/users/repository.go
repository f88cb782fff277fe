package users

import "context"

// Repository defines data access for the credential store. Implementations
// must enforce email uniqueness and surface violations as a Conflict error,
// never as a partial write.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Insert(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

package users

import "time"

// User represents one account as stored in the credential store.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the outward-facing projection of a User. The password
// hash never appears here; the projection is written out explicitly so a
// schema change cannot leak a new column by accident.
type PublicUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public projects the user into its public shape.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateParams carries the optional fields of an account update. Nil
// fields are left untouched.
type UpdateParams struct {
	Name     *string
	Email    *string
	Password *string
}

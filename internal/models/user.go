package models

import "time"

// User is directory data: tenants and landlords share one table.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone" yaml:"phone"`
	Role      string    `json:"role" yaml:"role"` // tenant, landlord, admin
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// FullName renders the display name used in enriched booking views.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

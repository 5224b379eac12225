package models

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	Name          string   `gorm:"size:100;not null" json:"name"`
	Email         string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone         string   `gorm:"size:30" json:"phone"`
	Address       string   `gorm:"size:255" json:"address"`
	PasswordHash  string   `gorm:"size:255;not null" json:"-"`
	Role          UserRole `gorm:"size:20;not null;default:customer;index" json:"role"`
	EmailVerified bool     `gorm:"not null;default:false" json:"verified"`

	// Yearly quota. Remaining is debited by bookings and credited back on rejection.
	CylindersAllocated int `gorm:"not null" json:"cylindersAllocated"`
	CylindersRemaining int `gorm:"not null" json:"cylindersRemaining"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

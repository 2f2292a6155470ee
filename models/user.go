package models

import "time"

// UserRole matches the role ENUM in the database.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleFaculty UserRole = "FACULTY"
	RoleAdmin   UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	RollNumber   *string   `json:"roll_number,omitempty" db:"roll_number"`
	Branch       *string   `json:"branch,omitempty" db:"branch"`
	Semester     *int      `json:"semester,omitempty" db:"semester"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

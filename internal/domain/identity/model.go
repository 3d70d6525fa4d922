package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. Role is fixed at signup; there is no
// self-service promotion to ADMIN.
const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
	RoleAdmin   = "ADMIN"
)

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// User maps to the users table: a patient, a doctor, or an administrator.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

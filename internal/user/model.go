package user

import (
	"time"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
)

var (
	ErrNotFound                 = apperror.NotFound("User not found")
	ErrEmailAlreadyUsed         = apperror.BadRequest("User already exists with this email")
	ErrEmailInUse               = apperror.BadRequest("Email already in use")
	ErrInvalidCredentials       = apperror.Unauthorized("Invalid credentials")
	ErrCurrentPasswordIncorrect = apperror.Unauthorized("Current password is incorrect")
	ErrInvalidResetToken        = apperror.BadRequest("Invalid or expired reset token")

	// errStaleHash means the stored hash changed between read and write.
	errStaleHash = apperror.Conflict("password was changed concurrently")
)

// User is a member of staff who can sign in.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         auth.Role
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the user onto the authorization model.
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// ProfileChanges lists the profile columns to overwrite; nil means keep.
type ProfileChanges struct {
	FirstName *string
	LastName  *string
	Email     *string
}

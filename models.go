package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleAnonymous is a registered but unverified account
	RoleAnonymous UserRole = "ANONYMOUS"
	// RoleAuthenticated is a verified account (i.e. view, edit own profile)
	RoleAuthenticated UserRole = "AUTHENTICATED"
	// RoleManager can manage other accounts (i.e. lock, unlock, list)
	RoleManager UserRole = "MANAGER"
	// RoleAdmin has full privileges
	RoleAdmin UserRole = "ADMIN"
)

// User is the identity record
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Nickname            string     `bun:"nickname,notnull,unique" json:"nickname,omitempty"`
	Email               string     `bun:"email,notnull,unique" json:"email,omitempty"`
	HashedPassword      string     `bun:"hashed_password" json:"-"`
	Role                UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	EmailVerified       bool       `bun:"email_verified" json:"email_verified,omitempty"`
	VerificationToken   *string    `bun:"verification_token,nullzero" json:"-"`
	IsLocked            bool       `bun:"is_locked" json:"is_locked,omitempty"`
	FailedLoginAttempts int        `bun:"failed_login_attempts" json:"failed_login_attempts,omitempty"`
	FirstName           string     `bun:"first_name" json:"first_name,omitempty"`
	LastName            string     `bun:"last_name" json:"last_name,omitempty"`
	Bio                 string     `bun:"bio" json:"bio,omitempty"`
	ProfilePictureURL   string     `bun:"profile_picture_url" json:"profile_picture_url,omitempty"`
	LinkedInProfileURL  string     `bun:"linkedin_profile_url" json:"linkedin_profile_url,omitempty"`
	GithubProfileURL    string     `bun:"github_profile_url" json:"github_profile_url,omitempty"`
	IsProfessional      bool       `bun:"is_professional" json:"is_professional,omitempty"`
	LastLoginAt         *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// VerificationPending reports whether the record still has an unredeemed
// email verification token.
func (u *User) VerificationPending() bool {
	return !u.EmailVerified && u.VerificationToken != nil && *u.VerificationToken != ""
}

// SetVerificationToken stores a pending verification token on the record.
func (u *User) SetVerificationToken(token string) *User {
	u.VerificationToken = &token
	return u
}

// ClearVerificationToken removes the pending token, e.g. after redemption.
func (u *User) ClearVerificationToken() *User {
	u.VerificationToken = nil
	return u
}

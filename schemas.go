package accounts

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// profileURLRe matches http(s) URLs for the optional profile link fields.
var profileURLRe = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

// MaxPageLimit is the largest page size the validated boundary accepts.
const MaxPageLimit = 100

// CreateUserInput carries the registration payload. The requested Role is
// advisory only; the directory decides the effective role. A non-nil ID
// presets the record ID, used by imports that derive deterministic IDs.
type CreateUserInput struct {
	ID                 uuid.UUID `json:"-"`
	Email              string    `json:"email"`
	Password           string    `json:"password"`
	Nickname           string    `json:"nickname,omitempty"`
	FirstName          string    `json:"first_name,omitempty"`
	LastName           string    `json:"last_name,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	ProfilePictureURL  string    `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL string    `json:"linkedin_profile_url,omitempty"`
	GithubProfileURL   string    `json:"github_profile_url,omitempty"`
	Role               string    `json:"role,omitempty"`
}

func (r CreateUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(passwordStrengthRule)),
		validation.Field(&r.Nickname, validation.By(nicknameRule)),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.ProfilePictureURL, validation.Match(profileURLRe)),
		validation.Field(&r.LinkedInProfileURL, validation.Match(profileURLRe)),
		validation.Field(&r.GithubProfileURL, validation.Match(profileURLRe)),
		validation.Field(&r.Role, validation.By(roleRule)),
	)
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Email              *string `json:"email,omitempty"`
	Password           *string `json:"password,omitempty"`
	Nickname           *string `json:"nickname,omitempty"`
	FirstName          *string `json:"first_name,omitempty"`
	LastName           *string `json:"last_name,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL *string `json:"linkedin_profile_url,omitempty"`
	GithubProfileURL   *string `json:"github_profile_url,omitempty"`
	Role               *string `json:"role,omitempty"`
	IsProfessional     *bool   `json:"is_professional,omitempty"`
}

// Empty reports whether no field is set; updates require at least one.
func (r UpdateUserInput) Empty() bool {
	return r.Email == nil && r.Password == nil && r.Nickname == nil &&
		r.FirstName == nil && r.LastName == nil && r.Bio == nil &&
		r.ProfilePictureURL == nil && r.LinkedInProfileURL == nil &&
		r.GithubProfileURL == nil && r.Role == nil && r.IsProfessional == nil
}

func (r UpdateUserInput) Validate() error {
	if r.Empty() {
		return errors.New("at least one field must be provided for update")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.By(passwordStrengthRule)),
		validation.Field(&r.Nickname, validation.By(nicknameRule)),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.ProfilePictureURL, validation.Match(profileURLRe)),
		validation.Field(&r.LinkedInProfileURL, validation.Match(profileURLRe)),
		validation.Field(&r.GithubProfileURL, validation.Match(profileURLRe)),
		validation.Field(&r.Role, validation.By(roleRule)),
	)
}

// PageParams bounds list and search pagination at the validated boundary.
// The engines downstream trust these values as-is.
type PageParams struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

func (p PageParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Skip, validation.Min(0)),
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
	)
}

// stringValue unwraps the raw rule input, which ozzo hands over without
// dereferencing pointer fields.
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

func nicknameRule(value interface{}) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	if !ValidNickname(s) {
		return errors.New("must start with a letter, be 3-30 characters long, and contain only alphanumeric characters, underscores, or hyphens")
	}
	return nil
}

func passwordStrengthRule(value interface{}) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	return ValidatePasswordStrength(s)
}

func roleRule(value interface{}) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	if !IsValidRole(s) {
		return errors.New("must be one of ANONYMOUS, AUTHENTICATED, MANAGER, ADMIN")
	}
	return nil
}

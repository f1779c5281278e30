package accounts

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidation        = "VALIDATION_ERROR"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeDuplicateNickname = "DUPLICATE_NICKNAME"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeAccountLocked     = "ACCOUNT_LOCKED"
	TextCodePolicyViolation   = "POLICY_VIOLATION"
	TextCodeNicknameExhausted = "NICKNAME_EXHAUSTED"
	TextCodeHashingFailed     = "HASHING_FAILED"
	TextCodeMalformedHash     = "MALFORMED_HASH"
)

// ErrUserNotFound is the error we return for missing identity records.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrDuplicateEmail is returned when a record with the email already exists.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrDuplicateNickname is returned when the nickname is already taken.
var ErrDuplicateNickname = errors.New("nickname already taken", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateNickname).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for any login failure that must not
// reveal whether the account exists.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountLocked is returned when login is administratively blocked.
var ErrAccountLocked = errors.New("account is locked", errors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeForbidden)

// ErrNicknameExhausted is returned when random nickname generation keeps
// colliding past the configured retry bound.
var ErrNicknameExhausted = errors.New("unable to generate a unique nickname", errors.CategoryConflict).
	WithTextCode(TextCodeNicknameExhausted).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString is returned when asked to hash an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the sentinel for a failed password check.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrMalformedHash is returned when the stored credential material is not a
// valid bcrypt hash, as opposed to a plain mismatch.
var ErrMalformedHash = errors.New("stored password hash is malformed", errors.CategoryInternal).
	WithTextCode(TextCodeMalformedHash)

// NewValidationError builds a fresh validation failure carrying the field
// errors that triggered it.
func NewValidationError(msg string, meta map[string]any) error {
	err := errors.New(msg, errors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest)
	if len(meta) > 0 {
		return err.WithMetadata(meta)
	}
	return err
}

// NewPolicyViolation builds a fresh password policy failure naming the first
// violated rule.
func NewPolicyViolation(rule string) error {
	return errors.New(rule, errors.CategoryValidation).
		WithTextCode(TextCodePolicyViolation).
		WithCode(errors.CodeBadRequest)
}

// IsPolicyViolation reports whether err is a password strength failure.
func IsPolicyViolation(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodePolicyViolation
}

// IsValidationError reports whether err is a structural input failure.
func IsValidationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeValidation
}

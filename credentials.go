package accounts

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordSymbols is the punctuation set accepted by the strength policy.
const PasswordSymbols = "!@#$%^&*()-_=+[]{}|;:'\",.<>?/`~"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// VerificationTokenBytes is the entropy, in bytes, of generated
// email-verification tokens.
const VerificationTokenBytes = 16

// CredentialEngine hashes and verifies passwords using bcrypt. Callers must
// not log or persist plaintext passwords.
type CredentialEngine struct {
	Cost int
}

// NewCredentialEngine returns an engine with the given bcrypt cost, clamped
// to the range bcrypt supports. Zero or negative picks the default cost 12.
func NewCredentialEngine(cost int) *CredentialEngine {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &CredentialEngine{Cost: cost}
}

// Hash will generate a password hash
func (e *CredentialEngine) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), e.Cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password").
			WithTextCode(TextCodeHashingFailed)
	}
	return string(h), nil
}

// Compare will validate the given cleartext password matches the hashed
// password. A mismatch returns ErrMismatchedHashAndPassword; a hash that
// bcrypt cannot parse returns ErrMalformedHash instead of a silent false.
func (e *CredentialEngine) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return ErrMalformedHash
	}
	return nil
}

// ValidatePasswordStrength enforces the registration password policy and
// reports the first violated rule: length, then uppercase, lowercase, digit,
// symbol.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return NewPolicyViolation("password must be at least 8 characters long")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return NewPolicyViolation("password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return NewPolicyViolation("password must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return NewPolicyViolation("password must contain at least one number")
	}
	if !strings.ContainsAny(password, PasswordSymbols) {
		return NewPolicyViolation("password must contain at least one special character")
	}
	return nil
}

// GenerateVerificationToken returns a cryptographically random, URL-safe
// token used for email verification.
func GenerateVerificationToken() string {
	buf := make([]byte, VerificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy source
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

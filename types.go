package accounts

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds account management options
type Config interface {
	GetMaxLoginAttempts() int
	GetBcryptCost() int
	GetNicknameRetries() int
}

// SimpleConfig is a plain Config implementation with sane defaults.
type SimpleConfig struct {
	MaxLoginAttempts int
	BcryptCost       int
	NicknameRetries  int
}

func (c SimpleConfig) GetMaxLoginAttempts() int {
	if c.MaxLoginAttempts <= 0 {
		return DefaultMaxLoginAttempts
	}
	return c.MaxLoginAttempts
}

func (c SimpleConfig) GetBcryptCost() int {
	if c.BcryptCost <= 0 {
		return DefaultBcryptCost
	}
	return c.BcryptCost
}

func (c SimpleConfig) GetNicknameRetries() int {
	if c.NicknameRetries <= 0 {
		return DefaultNicknameRetries
	}
	return c.NicknameRetries
}

const (
	// DefaultMaxLoginAttempts is the number of consecutive failed logins
	// before an account is locked.
	DefaultMaxLoginAttempts = 5
	// DefaultBcryptCost is the bcrypt work factor used when none is configured.
	DefaultBcryptCost = 12
	// DefaultNicknameRetries bounds random nickname generation on collision.
	DefaultNicknameRetries = 1000
)

// VerificationSender dispatches the email verification notification for a
// freshly registered user. Implementations live outside this package (SMTP,
// queue, etc.); failures are logged by the caller and do not undo the
// registration.
type VerificationSender interface {
	SendVerification(ctx context.Context, user *User) error
}

// NoopVerificationSender discards verification notifications. Useful for
// bootstrap tooling and tests.
type NoopVerificationSender struct{}

func (NoopVerificationSender) SendVerification(ctx context.Context, user *User) error {
	return nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

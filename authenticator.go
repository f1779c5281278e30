package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Authenticator verifies credentials and drives the lockout state machine.
// Every login failure for a known account is counted atomically, and the
// account locks once the counter reaches the configured maximum.
type Authenticator struct {
	repo        RepositoryManager
	creds       *CredentialEngine
	logger      Logger
	maxAttempts int
}

// NewAuthenticator returns a new Authenticator over the given repositories.
func NewAuthenticator(repo RepositoryManager, config Config) *Authenticator {
	return &Authenticator{
		repo:        repo,
		creds:       NewCredentialEngine(config.GetBcryptCost()),
		logger:      defLogger{},
		maxAttempts: config.GetMaxLoginAttempts(),
	}
}

func (s *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Authenticator) WithCredentialEngine(creds *CredentialEngine) *Authenticator {
	if creds != nil {
		s.creds = creds
	}
	return s
}

// Login authenticates a user by nickname. An unknown nickname, an unverified
// account, and a wrong password all come back as ErrInvalidCredentials so
// the response does not reveal which one it was; only verified accounts
// accrue failed attempts. A locked account reports ErrAccountLocked without
// counting the attempt.
func (s *Authenticator) Login(ctx context.Context, nickname, password string) (*User, error) {
	var identity *User

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByNicknameTx(ctx, tx, nickname)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidCredentials
			}
			return err
		}

		if !user.EmailVerified {
			return ErrInvalidCredentials
		}

		if user.IsLocked {
			return ErrAccountLocked
		}

		if err := s.creds.Compare(password, user.HashedPassword); err != nil {
			if !errors.Is(err, ErrMismatchedHashAndPassword) {
				s.logger.Error("credential check failed for %s: %v", nickname, err)
				return err
			}

			tracked, err := s.repo.Users().TrackFailedLogin(ctx, tx, user.ID, s.maxAttempts)
			if err != nil {
				return err
			}
			if tracked.IsLocked {
				s.logger.Warn("account %s locked after %d failed attempts", nickname, tracked.FailedLoginAttempts)
			}
			return ErrInvalidCredentials
		}

		if err := s.repo.Users().TrackSuccessfulLogin(ctx, tx, user.ID, time.Now()); err != nil {
			return err
		}

		user.FailedLoginAttempts = 0
		now := time.Now()
		user.LastLoginAt = &now
		identity = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return identity, nil
}

// Unlock clears the lock and the failure counter, reporting whether the
// account was actually locked. Unlocking an account that is not locked is a
// no-op returning false.
func (s *Authenticator) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	var unlocked bool

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Users().GetByIdentifierTx(ctx, tx, id.String()); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		var err error
		unlocked, err = s.repo.Users().Unlock(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	return unlocked, nil
}

// ResetPassword replaces the stored credential and, in the same statement,
// unlocks the account and clears the failure counter. The new password is
// accepted as given; strength policy applies at registration only.
func (s *Authenticator) ResetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := s.creds.Hash(password)
	if err != nil {
		return err
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := s.repo.Users().ResetPassword(ctx, tx, id, hash)
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}
		return nil
	})
}

// IsAccountLocked reports the lock state for the account behind the email.
// An unknown email reads as not locked.
func (s *Authenticator) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return user.IsLocked, nil
}

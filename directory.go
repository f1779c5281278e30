package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Directory manages the lifecycle of identity records: registration with the
// bootstrap rule, partial updates, retrieval, listing, and removal.
type Directory struct {
	repo    RepositoryManager
	creds   *CredentialEngine
	sender  VerificationSender
	logger  Logger
	retries int
}

// NewDirectory returns a new Directory over the given repositories.
func NewDirectory(repo RepositoryManager, config Config) *Directory {
	return &Directory{
		repo:    repo,
		creds:   NewCredentialEngine(config.GetBcryptCost()),
		sender:  NoopVerificationSender{},
		logger:  defLogger{},
		retries: config.GetNicknameRetries(),
	}
}

func (d *Directory) WithLogger(logger Logger) *Directory {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// WithVerificationSender configures the notification channel used after
// registration. The default discards notifications.
func (d *Directory) WithVerificationSender(sender VerificationSender) *Directory {
	if sender != nil {
		d.sender = sender
	}
	return d
}

func (d *Directory) WithCredentialEngine(creds *CredentialEngine) *Directory {
	if creds != nil {
		d.creds = creds
	}
	return d
}

// Create registers a new user. The very first account in the directory comes
// up as a verified admin; every later account starts as an anonymous user
// holding a pending verification token. The notification goes out after the
// record is committed, and a send failure is logged without undoing the
// registration.
func (d *Directory) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, wrapValidation(err)
	}

	if _, err := d.repo.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !isNotFound(err) {
		d.logger.Error("registration email lookup failed: %v", err)
		return nil, err
	}

	nickname, err := d.resolveNickname(ctx, input.Nickname)
	if err != nil {
		return nil, err
	}

	hash, err := d.creds.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	record := &User{
		ID:                 input.ID,
		Nickname:           nickname,
		Email:              input.Email,
		HashedPassword:     hash,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Bio:                input.Bio,
		ProfilePictureURL:  input.ProfilePictureURL,
		LinkedInProfileURL: input.LinkedInProfileURL,
		GithubProfileURL:   input.GithubProfileURL,
	}

	err = d.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		total, err := d.repo.Users().CountAllTx(ctx, tx)
		if err != nil {
			return err
		}

		if total == 0 {
			record.Role = RoleAdmin
			record.EmailVerified = true
		} else {
			record.Role = RoleAnonymous
			record.SetVerificationToken(GenerateVerificationToken())
		}

		created, err := d.repo.Users().CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}

		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record.VerificationPending() {
		if err := d.sender.SendVerification(ctx, record); err != nil {
			d.logger.Error("verification send failed for %s: %v", record.Email, err)
		}
	}

	return record, nil
}

// resolveNickname keeps a caller supplied nickname as-is and otherwise draws
// random candidates until one is free, giving up after the configured number
// of attempts.
func (d *Directory) resolveNickname(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if _, err := d.repo.Users().GetByNickname(ctx, requested); err == nil {
			return "", ErrDuplicateNickname
		} else if !isNotFound(err) {
			return "", err
		}
		return requested, nil
	}

	for i := 0; i < d.retries; i++ {
		candidate := GenerateNickname()
		_, err := d.repo.Users().GetByNickname(ctx, candidate)
		if err == nil {
			continue
		}
		if isNotFound(err) {
			return candidate, nil
		}
		return "", err
	}

	return "", ErrNicknameExhausted
}

// Update applies a partial update to an existing record. A submitted
// password is re-hashed; email and nickname changes go through the same
// uniqueness checks as registration.
func (d *Directory) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, wrapValidation(err)
	}

	record, err := d.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != record.Email {
		if other, err := d.repo.Users().GetByEmail(ctx, *input.Email); err == nil && other.ID != id {
			return nil, ErrDuplicateEmail
		} else if err != nil && !isNotFound(err) {
			return nil, err
		}
		record.Email = *input.Email
	}

	if input.Nickname != nil && *input.Nickname != record.Nickname {
		if other, err := d.repo.Users().GetByNickname(ctx, *input.Nickname); err == nil && other.ID != id {
			return nil, ErrDuplicateNickname
		} else if err != nil && !isNotFound(err) {
			return nil, err
		}
		record.Nickname = *input.Nickname
	}

	if input.Password != nil {
		hash, err := d.creds.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		record.HashedPassword = hash
	}

	if input.FirstName != nil {
		record.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		record.LastName = *input.LastName
	}
	if input.Bio != nil {
		record.Bio = *input.Bio
	}
	if input.ProfilePictureURL != nil {
		record.ProfilePictureURL = *input.ProfilePictureURL
	}
	if input.LinkedInProfileURL != nil {
		record.LinkedInProfileURL = *input.LinkedInProfileURL
	}
	if input.GithubProfileURL != nil {
		record.GithubProfileURL = *input.GithubProfileURL
	}
	if input.Role != nil {
		record.Role = *input.Role
	}
	if input.IsProfessional != nil {
		record.IsProfessional = *input.IsProfessional
	}

	now := time.Now()
	record.UpdatedAt = &now

	err = d.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := d.repo.Users().UpdateTx(ctx, tx, record)
		if err != nil {
			return err
		}
		record = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Delete removes the record, reporting ErrUserNotFound when no row matched.
func (d *Directory) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := d.repo.Users().RemoveByID(ctx, id)
	if err != nil {
		d.logger.Error("user delete failed for %s: %v", id, err)
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

func (d *Directory) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := d.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (d *Directory) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	record, err := d.repo.Users().GetByNickname(ctx, nickname)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*User, error) {
	record, err := d.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

// GetByIdentifier resolves an id, email, or nickname to a record.
func (d *Directory) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	record, err := d.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns one page of records ordered by creation time.
func (d *Directory) List(ctx context.Context, page PageParams) ([]*User, error) {
	if err := page.Validate(); err != nil {
		return nil, wrapValidation(err)
	}
	return d.repo.Users().ListPage(ctx, page.Skip, page.Limit)
}

func (d *Directory) Count(ctx context.Context) (int, error) {
	return d.repo.Users().CountAll(ctx)
}

// wrapValidation lifts ozzo field errors into the shared error shape,
// keeping the per-field messages as metadata.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}

	if fields, ok := err.(validation.Errors); ok {
		meta := make(map[string]any, len(fields))
		for name, fieldErr := range fields {
			meta[name] = fieldErr.Error()
		}
		return NewValidationError("invalid input", meta)
	}

	return NewValidationError(err.Error(), nil)
}

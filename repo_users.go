package accounts

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"hashed_password" = ?,
	"failed_login_attempts" = 0,
	"is_locked" = FALSE
WHERE
	"usr"."id" = ?
RETURNING *;`

// TrackFailedLoginSQL increments the failure counter and trips the lock in a
// single statement so concurrent failures cannot lose updates.
var TrackFailedLoginSQL = `UPDATE "users" AS "usr"
SET
	"failed_login_attempts" = "failed_login_attempts" + 1,
	"is_locked" = CASE
		WHEN "failed_login_attempts" + 1 >= ? THEN TRUE
		ELSE "is_locked"
	END
WHERE
	"usr"."id" = ?
RETURNING *;`

// RedeemVerificationTokenSQL verifies, clears the token, and promotes the
// role in one statement so a token can only ever be redeemed once.
var RedeemVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"email_verified" = TRUE,
	"verification_token" = NULL,
	"user_role" = CASE
		WHEN "user_role" = 'ANONYMOUS' THEN 'AUTHENTICATED'
		ELSE "user_role"
	END
WHERE
	"usr"."id" = ?
	AND "usr"."verification_token" = ?
RETURNING *;`

var TrackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"last_login_at" = ?,
	"failed_login_attempts" = 0
WHERE
	"usr"."id" = ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByNickname(ctx context.Context, nickname string) (*User, error)
	GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.UpdateCriteria) (*User, error)

	RemoveByID(ctx context.Context, id uuid.UUID) (bool, error)
	ListPage(ctx context.Context, skip, limit int) ([]*User, error)
	CountAll(ctx context.Context) (int, error)
	CountAllTx(ctx context.Context, tx bun.IDB) (int, error)

	Search(ctx context.Context, filter UserFilter, skip, limit int) (int, []*User, error)

	TrackFailedLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, maxAttempts int) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
	ResetPassword(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (bool, error)
	Unlock(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error)
	RedeemVerificationToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	return a.GetByNicknameTx(ctx, a.db, nickname)
}

func (a *users) GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "nickname", nickname)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "email", email)
}

func (a *users) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return created, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

// GetByIdentifierTx resolves a free-form identifier against the columns it
// could plausibly name: a UUID tries id, an address tries email, and any
// value falls through to nickname.
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where("?TableAlias."+opt.column+" = ?", opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error) {
	return a.UpdateTx(ctx, a.db, record, criteria...)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.UpdateCriteria) (*User, error) {
	updated, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return updated, nil
}

func (a *users) RemoveByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (a *users) ListPage(ctx context.Context, skip, limit int) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC", "id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *users) CountAll(ctx context.Context) (int, error) {
	return a.CountAllTx(ctx, a.db)
}

func (a *users) CountAllTx(ctx context.Context, tx bun.IDB) (int, error) {
	return tx.NewSelect().Model((*User)(nil)).Count(ctx)
}

func (a *users) Search(ctx context.Context, filter UserFilter, skip, limit int) (int, []*User, error) {
	var records []*User
	q := a.db.NewSelect().Model(&records)
	q = applyUserFilter(q, filter)

	total, err := q.
		Order("created_at ASC", "id ASC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return 0, nil, err
	}

	return total, records, nil
}

func (a *users) TrackFailedLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, maxAttempts int) (*User, error) {
	record := &User{}
	err := tx.NewRaw(TrackFailedLoginSQL, maxAttempts, id.String()).Scan(ctx, record)
	if err != nil {
		if isNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	record := &User{}
	err := tx.NewRaw(TrackSuccessfulLoginSQL, at, id.String()).Scan(ctx, record)
	if err != nil && isNotFound(err) {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return err
}

func (a *users) ResetPassword(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (bool, error) {
	record := &User{}
	err := tx.NewRaw(ResetUserPasswordSQL, passwordHash, id.String()).Scan(ctx, record)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RedeemVerificationToken consumes a pending token. A token that does not
// match the record, including one already redeemed, comes back as nil with
// no error.
func (a *users) RedeemVerificationToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	record := &User{}
	err := tx.NewRaw(RedeemVerificationTokenSQL, id.String(), token).Scan(ctx, record)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Unlock(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_locked = FALSE").
		Set("failed_login_attempts = 0").
		Where("?TableAlias.id = ?", id.String()).
		Where("?TableAlias.is_locked = TRUE").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleAnonymous
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "nickname",
		value:  trimmed,
	})

	return options
}

// isNotFound matches both the generic repository's typed not-found error and
// the bare sql.ErrNoRows that raw scans return.
func isNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

// translateUniqueViolation maps a database uniqueness failure onto the typed
// duplicate errors so a losing concurrent insert fails deterministically.
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") {
		return err
	}

	switch {
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "nickname"):
		return ErrDuplicateNickname
	default:
		return err
	}
}

package accounts_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	accounts "github.com/mahibala-njit/user-management"
	"github.com/uptrace/bun"
)

// memUsers is an in-memory Users implementation mirroring the semantics of
// the SQL statements the real repository runs. Methods not listed here panic
// through the embedded nil interface, which surfaces any untested path.
type memUsers struct {
	accounts.Users

	mu      sync.Mutex
	records map[uuid.UUID]*accounts.User

	// allNicknamesTaken makes every nickname lookup succeed, to exercise
	// the generator giving up.
	allNicknamesTaken bool
	createErr         error
}

func newMemUsers(seed ...*accounts.User) *memUsers {
	m := &memUsers{records: map[uuid.UUID]*accounts.User{}}
	for _, u := range seed {
		m.add(u)
	}
	return m
}

func (m *memUsers) add(u *accounts.User) *accounts.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.records[u.ID] = &cp
	return &cp
}

func (m *memUsers) find(match func(*accounts.User) bool) (*accounts.User, error) {
	for _, u := range m.records {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memUsers) GetByNickname(ctx context.Context, nickname string) (*accounts.User, error) {
	return m.GetByNicknameTx(ctx, nil, nickname)
}

func (m *memUsers) GetByNicknameTx(ctx context.Context, tx bun.IDB, nickname string) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allNicknamesTaken {
		return &accounts.User{ID: uuid.New(), Nickname: nickname}, nil
	}
	return m.find(func(u *accounts.User) bool { return u.Nickname == nickname })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	return m.GetByEmailTx(ctx, nil, email)
}

func (m *memUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *accounts.User) bool { return u.Email == email })
}

func (m *memUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	return m.GetByIdentifierTx(ctx, nil, identifier, criteria...)
}

func (m *memUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, err := uuid.Parse(identifier); err == nil {
		if u, ok := m.records[id]; ok {
			cp := *u
			return &cp, nil
		}
	}
	return m.find(func(u *accounts.User) bool {
		return u.Email == identifier || u.Nickname == identifier
	})
}

func (m *memUsers) Create(ctx context.Context, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	return m.CreateTx(ctx, nil, record, criteria...)
}

func (m *memUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	for _, u := range m.records {
		if strings.EqualFold(u.Email, record.Email) {
			return nil, accounts.ErrDuplicateEmail
		}
		if u.Nickname == record.Nickname {
			return nil, accounts.ErrDuplicateNickname
		}
	}

	if record.Role == "" {
		record.Role = accounts.RoleAnonymous
	}
	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	return m.add(record), nil
}

func (m *memUsers) Update(ctx context.Context, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	return m.UpdateTx(ctx, nil, record, criteria...)
}

func (m *memUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	return m.add(record), nil
}

func (m *memUsers) RemoveByID(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *memUsers) ListPage(ctx context.Context, skip, limit int) ([]*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.sorted()
	if skip >= len(all) {
		return []*accounts.User{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (m *memUsers) sorted() []*accounts.User {
	all := make([]*accounts.User, 0, len(m.records))
	for _, u := range m.records {
		cp := *u
		all = append(all, &cp)
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && before(all[j], all[j-1]); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	return all
}

func before(a, b *accounts.User) bool {
	if a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt) {
		return a.CreatedAt.Before(*b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (m *memUsers) CountAll(ctx context.Context) (int, error) {
	return m.CountAllTx(ctx, nil)
}

func (m *memUsers) CountAllTx(ctx context.Context, tx bun.IDB) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memUsers) TrackFailedLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, maxAttempts int) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		u.IsLocked = true
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) TrackSuccessfulLogin(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.LastLoginAt = &at
	u.FailedLoginAttempts = 0
	return nil
}

func (m *memUsers) ResetPassword(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.records[id]
	if !ok {
		return false, nil
	}
	u.HashedPassword = passwordHash
	u.FailedLoginAttempts = 0
	u.IsLocked = false
	return true, nil
}

func (m *memUsers) Unlock(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.records[id]
	if !ok || !u.IsLocked {
		return false, nil
	}
	u.IsLocked = false
	u.FailedLoginAttempts = 0
	return true, nil
}

func (m *memUsers) RedeemVerificationToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return nil, nil
	}
	u, ok := m.records[id]
	if !ok || u.VerificationToken == nil || *u.VerificationToken != token {
		return nil, nil
	}

	u.EmailVerified = true
	u.VerificationToken = nil
	if u.Role == accounts.RoleAnonymous {
		u.Role = accounts.RoleAuthenticated
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Search(ctx context.Context, filter accounts.UserFilter, skip, limit int) (int, []*accounts.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*accounts.User
	for _, u := range m.sorted() {
		if filter.Username != nil && !strings.Contains(strings.ToLower(u.Nickname), strings.ToLower(*filter.Username)) {
			continue
		}
		if filter.Email != nil && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(*filter.Email)) {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.IsLocked != nil && u.IsLocked != *filter.IsLocked {
			continue
		}
		if filter.CreatedFrom != nil && (u.CreatedAt == nil || u.CreatedAt.Before(*filter.CreatedFrom)) {
			continue
		}
		if filter.CreatedTo != nil && (u.CreatedAt == nil || u.CreatedAt.After(*filter.CreatedTo)) {
			continue
		}
		matched = append(matched, u)
	}

	total := len(matched)
	if skip >= total {
		return total, []*accounts.User{}, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return total, matched[skip:end], nil
}

// get reads the stored record directly, bypassing the repository surface.
func (m *memUsers) get(id uuid.UUID) *accounts.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.records[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// testRepo satisfies RepositoryManager without a database. RunInTx hands the
// callback a zero transaction; memUsers never touches it.
type testRepo struct {
	users *memUsers
}

func newTestRepo(seed ...*accounts.User) *testRepo {
	return &testRepo{users: newMemUsers(seed...)}
}

func (r *testRepo) Validate() error { return nil }

func (r *testRepo) MustValidate() {}

func (r *testRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (r *testRepo) Users() accounts.Users { return r.users }

// capturingSender records verification notifications.
type capturingSender struct {
	sent []*accounts.User
	err  error
}

func (c *capturingSender) SendVerification(ctx context.Context, user *accounts.User) error {
	c.sent = append(c.sent, user)
	return c.err
}

package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// UserFilter is the typed filter specification for directory searches. Nil
// fields impose no constraint; set fields combine with logical AND.
type UserFilter struct {
	// Username matches nickname by case-insensitive substring.
	Username *string
	// Email matches by case-insensitive substring.
	Email *string
	// Role matches exactly.
	Role *UserRole
	// IsLocked matches exactly.
	IsLocked *bool
	// CreatedFrom is the inclusive lower bound on created_at (advanced search).
	CreatedFrom *time.Time
	// CreatedTo is the inclusive upper bound on created_at (advanced search).
	CreatedTo *time.Time
}

// applyUserFilter translates the filter spec into WHERE clauses. Each known
// filter kind is handled here; adding a field to UserFilter without a case
// is a bug.
func applyUserFilter(q *bun.SelectQuery, f UserFilter) *bun.SelectQuery {
	if f.Username != nil {
		q = q.Where("lower(?TableAlias.nickname) LIKE ?", "%"+strings.ToLower(*f.Username)+"%")
	}
	if f.Email != nil {
		q = q.Where("lower(?TableAlias.email) LIKE ?", "%"+strings.ToLower(*f.Email)+"%")
	}
	if f.Role != nil {
		q = q.Where("?TableAlias.user_role = ?", *f.Role)
	}
	if f.IsLocked != nil {
		q = q.Where("?TableAlias.is_locked = ?", *f.IsLocked)
	}
	if f.CreatedFrom != nil {
		q = q.Where("?TableAlias.created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("?TableAlias.created_at <= ?", *f.CreatedTo)
	}
	return q
}

// SearchResult is one page of a filtered directory search. Total counts the
// full filtered set, ignoring Skip and Limit.
type SearchResult struct {
	Total int     `json:"total"`
	Skip  int     `json:"skip"`
	Limit int     `json:"limit"`
	Items []*User `json:"items"`
}

// Links returns the pagination navigation links for this page rooted at
// basePath.
func (r SearchResult) Links(basePath string) map[string]string {
	return BuildPaginationLinks(basePath, r.Total, r.Skip, r.Limit)
}

// Searcher runs filtered queries over the user directory and produces
// navigable result pages.
type Searcher struct {
	repo   RepositoryManager
	logger Logger
}

// NewSearcher will create a new Searcher over the given repositories.
func NewSearcher(repo RepositoryManager) *Searcher {
	return &Searcher{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *Searcher) WithLogger(l Logger) *Searcher {
	if l != nil {
		s.logger = l
	}
	return s
}

// Search runs the filter over the directory and returns one page. Skip and
// limit arrive already validated by the input boundary; the engine treats
// them as bounds without re-checking.
func (s *Searcher) Search(ctx context.Context, filter UserFilter, skip, limit int) (*SearchResult, error) {
	total, items, err := s.repo.Users().Search(ctx, filter, skip, limit)
	if err != nil {
		s.logger.Error("user search failed: %v", err)
		return nil, err
	}

	if items == nil {
		items = []*User{}
	}

	return &SearchResult{
		Total: total,
		Skip:  skip,
		Limit: limit,
		Items: items,
	}, nil
}

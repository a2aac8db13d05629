package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// In-memory repository fakes mirroring the store semantics the SQL layer
// provides: newest-first listing, AND-composed filters, atomic comment
// appends, ErrNoRows for missing records.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == strings.ToLower(user.Email) {
			return fmt.Errorf("duplicate email")
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// add seeds a user directly, bypassing validation.
func (r *fakeUserRepo) add(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	user.Email = strings.ToLower(user.Email)
	clone := user
	r.users[user.ID] = &clone
	return user
}

type fakeIssueRepo struct {
	mu     sync.Mutex
	seq    int
	clock  time.Time
	issues map[string]*domain.Issue
	users  *fakeUserRepo
}

func newFakeIssueRepo(users *fakeUserRepo) *fakeIssueRepo {
	return &fakeIssueRepo{
		clock:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		issues: make(map[string]*domain.Issue),
		users:  users,
	}
}

func (r *fakeIssueRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	issue.ID = fmt.Sprintf("issue-%d", r.seq)
	issue.CreatedAt = r.tick()
	issue.UpdatedAt = issue.CreatedAt
	clone := *issue
	r.issues[issue.ID] = &clone
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.project(issue), nil
}

func (r *fakeIssueRepo) Update(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = issue.Title
	stored.Description = issue.Description
	stored.Category = issue.Category
	stored.Status = issue.Status
	stored.ImageURL = issue.ImageURL
	stored.UpdatedAt = r.tick()
	return nil
}

func (r *fakeIssueRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.issues, id)
	return nil
}

func (r *fakeIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		if filter.Category != nil && issue.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && issue.Status != *filter.Status {
			continue
		}
		if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
			needle := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			if !strings.Contains(strings.ToLower(issue.Title), needle) &&
				!strings.Contains(strings.ToLower(issue.Description), needle) {
				continue
			}
		}
		result = append(result, *r.project(issue))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeIssueRepo) ListAll(ctx context.Context) ([]domain.Issue, error) {
	return r.ListWithFilter(ctx, repository.IssueFilter{})
}

func (r *fakeIssueRepo) Stats(_ context.Context) (*repository.IssueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.IssueStats{ByCategory: make(map[domain.IssueCategory]int64)}
	for _, issue := range r.issues {
		stats.Total++
		stats.ByCategory[issue.Category]++
		switch issue.Status {
		case domain.StatusReported:
			stats.Reported++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusFixed:
			stats.Fixed++
		}
	}
	return stats, nil
}

func (r *fakeIssueRepo) project(issue *domain.Issue) *domain.Issue {
	clone := *issue
	if r.users != nil {
		if user, ok := r.users.users[issue.ReporterID]; ok {
			ref := user.Ref()
			clone.Reporter = &ref
		}
	}
	return &clone
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	clock    time.Time
	comments map[string][]domain.AdminComment
	users    *fakeUserRepo
}

func newFakeCommentRepo(users *fakeUserRepo) *fakeCommentRepo {
	return &fakeCommentRepo{
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		comments: make(map[string][]domain.AdminComment),
		users:    users,
	}
}

func (r *fakeCommentRepo) Append(_ context.Context, comment *domain.AdminComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.clock = r.clock.Add(time.Second)
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.AddedAt = r.clock
	r.comments[comment.IssueID] = append(r.comments[comment.IssueID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByIssue(_ context.Context, issueID string) ([]domain.AdminComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.comments[issueID]
	result := make([]domain.AdminComment, len(stored))
	copy(result, stored)
	for i := range result {
		if user, ok := r.users.users[result[i].AuthorID]; ok {
			ref := user.Ref()
			result[i].Author = &ref
		}
	}
	return result, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter captures public listing parameters. Empty fields impose no
// restriction; supplied fields are ANDed together.
type IssueFilter struct {
	Category   *domain.IssueCategory
	Status     *domain.IssueStatus
	SearchTerm *string
}

// IssueStats aggregates dashboard counts.
type IssueStats struct {
	Total      int64                          `json:"totalIssues"`
	Reported   int64                          `json:"reportedIssues"`
	InProgress int64                          `json:"inProgressIssues"`
	Fixed      int64                          `json:"fixedIssues"`
	ByCategory map[domain.IssueCategory]int64 `json:"categoryStats"`
}

// IssueRepository encapsulates issue persistence. Read paths join the
// reporter so responses can embed it without a second round-trip.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Update(ctx context.Context, issue *domain.Issue) error
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
	Stats(ctx context.Context) (*IssueStats, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `i.id, i.title, i.description, i.category, i.status, i.image_url,
               i.latitude, i.longitude, i.reporter_id, i.created_at, i.updated_at,
               u.id, u.name, u.email`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, status, image_url, latitude, longitude, reporter_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Status,
		issue.ImageURL,
		issue.Latitude,
		issue.Longitude,
		issue.ReporterID,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM issues i JOIN users u ON u.id = i.reporter_id
        WHERE i.id=$1`, issueColumns)

	var issue domain.Issue
	var reporter domain.UserRef
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Status,
		&issue.ImageURL,
		&issue.Latitude,
		&issue.Longitude,
		&issue.ReporterID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&reporter.ID,
		&reporter.Name,
		&reporter.Email,
	); err != nil {
		return nil, err
	}
	issue.Reporter = &reporter
	return &issue, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, status=$4, image_url=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Status,
		issue.ImageURL,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("i.category=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("i.status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(i.title) LIKE %s OR LOWER(i.description) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`
        SELECT %s FROM issues i JOIN users u ON u.id = i.reporter_id
        WHERE %s ORDER BY i.created_at DESC`, issueColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListAll(ctx context.Context) ([]domain.Issue, error) {
	return r.ListWithFilter(ctx, IssueFilter{})
}

func (r *issueRepository) Stats(ctx context.Context) (*IssueStats, error) {
	stats := &IssueStats{ByCategory: make(map[domain.IssueCategory]int64)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.IssueStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case domain.StatusReported:
			stats.Reported = count
		case domain.StatusInProgress:
			stats.InProgress = count
		case domain.StatusFixed:
			stats.Fixed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM issues GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var category domain.IssueCategory
		var count int64
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = count
	}
	return stats, catRows.Err()
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var reporter domain.UserRef
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Status,
			&issue.ImageURL,
			&issue.Latitude,
			&issue.Longitude,
			&issue.ReporterID,
			&issue.CreatedAt,
			&issue.UpdatedAt,
			&reporter.ID,
			&reporter.Name,
			&reporter.Email,
		); err != nil {
			return nil, err
		}
		issue.Reporter = &reporter
		result = append(result, issue)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CommentRepository manages admin comments owned by an issue. Append is a
// single-row insert, so two concurrent appends on the same issue both land.
type CommentRepository interface {
	Append(ctx context.Context, comment *domain.AdminComment) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.AdminComment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Append(ctx context.Context, comment *domain.AdminComment) error {
	const query = `
        INSERT INTO issue_comments (issue_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.IssueID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.ID, &comment.AddedAt)
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.AdminComment, error) {
	const query = `
        SELECT c.id, c.issue_id, c.author_id, c.body, c.created_at, u.id, u.name, u.email
        FROM issue_comments c JOIN users u ON u.id = c.author_id
        WHERE c.issue_id=$1 ORDER BY c.created_at ASC, c.id ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminComment
	for rows.Next() {
		var comment domain.AdminComment
		var author domain.UserRef
		if err := rows.Scan(
			&comment.ID,
			&comment.IssueID,
			&comment.AuthorID,
			&comment.Body,
			&comment.AddedAt,
			&author.ID,
			&author.Name,
			&author.Email,
		); err != nil {
			return nil, err
		}
		comment.Author = &author
		result = append(result, comment)
	}
	return result, rows.Err()
}

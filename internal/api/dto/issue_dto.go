package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UpdateIssueRequest carries the owner-mutable fields; absent fields are left
// unchanged.
type UpdateIssueRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Category    *domain.IssueCategory `json:"category"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Comment string `json:"comment"`
}

// UserRef embeds the reporter or comment author in issue responses.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommentResponse is an entry in an issue's comment thread.
type CommentResponse struct {
	Comment string    `json:"comment"`
	AddedBy *UserRef  `json:"addedBy"`
	AddedAt time.Time `json:"addedAt"`
}

// IssueResponse is the full issue projection.
type IssueResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      domain.IssueCategory `json:"category"`
	Status        domain.IssueStatus   `json:"status"`
	ImageURL      *string              `json:"imageUrl"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
	User          *UserRef             `json:"user"`
	AdminComments []CommentResponse    `json:"adminComments"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewIssueResponse maps a domain issue to its response shape.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:            issue.ID,
		Title:         issue.Title,
		Description:   issue.Description,
		Category:      issue.Category,
		Status:        issue.Status,
		ImageURL:      issue.ImageURL,
		Latitude:      issue.Latitude,
		Longitude:     issue.Longitude,
		AdminComments: make([]CommentResponse, 0, len(issue.Comments)),
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
	if issue.Reporter != nil {
		resp.User = &UserRef{ID: issue.Reporter.ID, Name: issue.Reporter.Name, Email: issue.Reporter.Email}
	}
	for _, comment := range issue.Comments {
		entry := CommentResponse{Comment: comment.Body, AddedAt: comment.AddedAt}
		if comment.Author != nil {
			entry.AddedBy = &UserRef{ID: comment.Author.ID, Name: comment.Author.Name, Email: comment.Author.Email}
		}
		resp.AdminComments = append(resp.AdminComments, entry)
	}
	return resp
}

// NewIssueListResponse maps a slice of issues.
func NewIssueListResponse(issues []domain.Issue) []IssueResponse {
	items := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, NewIssueResponse(&issues[i]))
	}
	return items
}

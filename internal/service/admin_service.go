package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const (
	statsCacheKey = "admin:stats"
	statsCacheTTL = 30 * time.Second

	commentPreviewLen = 80
)

// AdminService enforces the admin-only issue lifecycle: status reassignment,
// comment appends, the full listing and the dashboard stats.
type AdminService struct {
	issues     repository.IssueRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	cache      *persistence.Cache
	logger     *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	IssueRepo   repository.IssueRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Cache       *persistence.Cache
	Logger      *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		issues:     deps.IssueRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
	}
}

// SetStatus overwrites an issue's status. Any of the three values may be set
// at any time, including moving a FIXED issue back to REPORTED; the check is
// membership only. Setting the current status again is a no-op that still
// succeeds.
func (s *AdminService) SetStatus(ctx context.Context, caller *auth.Principal, issueID string, status domain.IssueStatus) (*domain.Issue, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status value")
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	oldStatus := issue.Status
	issue.Status = status
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	if oldStatus != status {
		s.publish(ctx, events.Event{
			Type:    events.EventIssueStatusChanged,
			IssueID: issue.ID,
			ActorID: caller.User.ID,
			Payload: events.IssueStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: status,
			},
		})
	}
	return s.getWithComments(ctx, issueID)
}

// AddComment appends a comment to the issue's thread. Prior comments and
// their order are never touched.
func (s *AdminService) AddComment(ctx context.Context, caller *auth.Principal, issueID, body string) (*domain.Issue, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment is required")
	}

	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, err
	}

	comment := &domain.AdminComment{
		IssueID:  issueID,
		AuthorID: caller.User.ID,
		Body:     body,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, err
	}

	preview := body
	if len(preview) > commentPreviewLen {
		preview = preview[:commentPreviewLen]
	}
	s.publish(ctx, events.Event{
		Type:    events.EventIssueCommentAdded,
		IssueID: issueID,
		ActorID: caller.User.ID,
		Payload: events.IssueCommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: preview,
		},
	})
	return s.getWithComments(ctx, issueID)
}

// ListAll returns every issue, newest first, with comment threads resolved.
func (s *AdminService) ListAll(ctx context.Context, caller *auth.Principal) ([]domain.Issue, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	issues, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		comments, err := s.comments.ListByIssue(ctx, issues[i].ID)
		if err != nil {
			return nil, err
		}
		issues[i].Comments = comments
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, nil
}

// Stats returns the dashboard counts, served from the Redis cache when warm.
// Every issue mutation invalidates the cache, so a short TTL only bounds
// staleness against writers outside this process.
func (s *AdminService) Stats(ctx context.Context, caller *auth.Principal) (*repository.IssueStats, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	var cached repository.IssueStats
	if found, err := s.cache.Get(ctx, statsCacheKey, &cached); err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	} else if found {
		return &cached, nil
	}

	stats, err := s.issues.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

func (s *AdminService) getWithComments(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.Comments = comments
	return issue, nil
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func (s *AdminService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

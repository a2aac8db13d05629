package service

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/storage"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// DefaultNearbyRadiusMeters applies when a proximity query omits the radius.
const DefaultNearbyRadiusMeters = 5000.0

// IssueService coordinates the reporting workflows: creation with photo
// upload, public listing/filtering/search, proximity lookup, and owner-only
// mutation.
type IssueService struct {
	issues     repository.IssueRepository
	comments   repository.CommentRepository
	store      storage.ObjectStore
	dispatcher events.Dispatcher
	cache      *persistence.Cache
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo   repository.IssueRepository
	CommentRepo repository.CommentRepository
	ObjectStore storage.ObjectStore
	Dispatcher  events.Dispatcher
	Cache       *persistence.Cache
	Logger      *zap.Logger
}

// IssueCreateInput describes issue creation payload. ImagePath points at the
// multipart temp file; it is removed after a successful upload.
type IssueCreateInput struct {
	Title            string
	Description      string
	Category         domain.IssueCategory
	Latitude         float64
	Longitude        float64
	ImagePath        string
	ImageContentType string
}

// IssueUpdateInput carries the owner-mutable fields. Nil or empty values
// leave the stored field unchanged.
type IssueUpdateInput struct {
	Title       *string
	Description *string
	Category    *domain.IssueCategory
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		comments:   deps.CommentRepo,
		store:      deps.ObjectStore,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
	}
}

// Create validates and stores a new issue for the reporter, uploading the
// photo first when one was attached.
func (s *IssueService) Create(ctx context.Context, reporterID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if title == "" || description == "" || input.Category == "" {
		return nil, apperrors.NewValidationError("title, description and category are required")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return nil, apperrors.NewValidationError("title cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLen {
		return nil, apperrors.NewValidationError("description cannot exceed 1000 characters")
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category")
	}
	if !geo.ValidCoordinates(input.Latitude, input.Longitude) {
		return nil, apperrors.NewValidationError("latitude and longitude must be valid coordinates")
	}

	var imageURL *string
	if input.ImagePath != "" {
		if s.store == nil {
			s.logger.Warn("image attached but object storage disabled; storing issue without image")
		} else {
			url, err := s.store.UploadFile(ctx, input.ImagePath, input.ImageContentType)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			imageURL = &url
		}
		if err := os.Remove(input.ImagePath); err != nil {
			s.logger.Warn("failed to remove upload temp file", zap.String("path", input.ImagePath), zap.Error(err))
		}
	}

	issue := &domain.Issue{
		Title:       title,
		Description: description,
		Category:    input.Category,
		Status:      domain.StatusReported,
		ImageURL:    imageURL,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ReporterID:  reporterID,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		ActorID: reporterID,
		Payload: events.IssueCreatedPayload{
			Title:     issue.Title,
			Category:  issue.Category,
			Latitude:  issue.Latitude,
			Longitude: issue.Longitude,
		},
	})
	return s.issues.GetByID(ctx, issue.ID)
}

// List returns issues matching the optional category/status/search
// constraints, newest first. Omitted constraints impose no restriction.
func (s *IssueService) List(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status")
	}
	issues, err := s.issues.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, nil
}

// ListNearby returns issues whose location lies within radiusMeters
// great-circle distance of the point, ordered by increasing distance.
// Proximity is always evaluated against the full store; there is no spatial
// index at this scale, so the scan is O(total issues) per call.
func (s *IssueService) ListNearby(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Issue, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return nil, apperrors.NewValidationError("latitude and longitude must be valid coordinates")
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}

	all, err := s.issues.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	origin := geo.Point{Lat: lat, Lng: lng}
	type scored struct {
		issue    domain.Issue
		distance float64
	}
	matches := make([]scored, 0, len(all))
	for _, issue := range all {
		d := geo.Distance(origin, geo.Point{Lat: issue.Latitude, Lng: issue.Longitude})
		if d <= radiusMeters {
			matches = append(matches, scored{issue: issue, distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]domain.Issue, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.issue)
	}
	return result, nil
}

// Get fetches a single issue with its reporter and comment thread resolved.
func (s *IssueService) Get(ctx context.Context, issueID string) (*domain.Issue, error) {
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

// Update applies owner-supplied changes to title, description or category.
// Only the owning user may update; absent fields are left unchanged.
func (s *IssueService) Update(ctx context.Context, callerID, issueID string, input IssueUpdateInput) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != callerID {
		return nil, apperrors.NewForbidden("not authorized to update this issue")
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		title := strings.TrimSpace(*input.Title)
		if utf8.RuneCountInString(title) > domain.MaxTitleLen {
			return nil, apperrors.NewValidationError("title cannot exceed 100 characters")
		}
		issue.Title = title
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		description := strings.TrimSpace(*input.Description)
		if utf8.RuneCountInString(description) > domain.MaxDescriptionLen {
			return nil, apperrors.NewValidationError("description cannot exceed 1000 characters")
		}
		issue.Description = description
	}
	if input.Category != nil && *input.Category != "" {
		if !input.Category.Valid() {
			return nil, apperrors.NewValidationError("invalid category")
		}
		issue.Category = *input.Category
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return s.Get(ctx, issueID)
}

// Delete removes an issue permanently. Only the owning user may delete;
// comments go with the issue.
func (s *IssueService) Delete(ctx context.Context, callerID, issueID string) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return err
	}
	if issue.ReporterID != callerID {
		return apperrors.NewForbidden("not authorized to delete this issue")
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:    events.EventIssueDeleted,
		IssueID: issueID,
		ActorID: callerID,
	})
	return nil
}

func (s *IssueService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

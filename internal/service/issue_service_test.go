package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

type issueFixture struct {
	users    *fakeUserRepo
	issues   *fakeIssueRepo
	comments *fakeCommentRepo
	service  *IssueService
	reporter domain.User
	other    domain.User
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	users := newFakeUserRepo()
	issues := newFakeIssueRepo(users)
	comments := newFakeCommentRepo(users)

	svc := NewIssueService(IssueDependencies{
		IssueRepo:   issues,
		CommentRepo: comments,
		Cache:       persistence.NewCache(nil),
		Logger:      zap.NewNop(),
	})

	return &issueFixture{
		users:    users,
		issues:   issues,
		comments: comments,
		service:  svc,
		reporter: users.add(domain.User{Name: "Asha", Email: "asha@example.com", Role: domain.RoleUser}),
		other:    users.add(domain.User{Name: "Vik", Email: "vik@example.com", Role: domain.RoleUser}),
	}
}

func (f *issueFixture) createIssue(t *testing.T, title string, category domain.IssueCategory, lat, lng float64) *domain.Issue {
	t.Helper()
	issue, err := f.service.Create(context.Background(), f.reporter.ID, IssueCreateInput{
		Title:       title,
		Description: "description of " + title,
		Category:    category,
		Latitude:    lat,
		Longitude:   lng,
	})
	require.NoError(t, err)
	return issue
}

func TestCreateIssue(t *testing.T) {
	f := newIssueFixture(t)

	issue, err := f.service.Create(context.Background(), f.reporter.ID, IssueCreateInput{
		Title:       "Pothole",
		Description: "Large pothole on Main St",
		Category:    domain.CategoryRoad,
		Latitude:    28.6139,
		Longitude:   77.2090,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, domain.StatusReported, issue.Status)
	assert.Equal(t, f.reporter.ID, issue.ReporterID)
	require.NotNil(t, issue.Reporter)
	assert.Equal(t, "Asha", issue.Reporter.Name)
	assert.Nil(t, issue.ImageURL)
}

func TestCreateIssueValidation(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	longTitle := make([]byte, domain.MaxTitleLen+1)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	tests := []struct {
		name  string
		input IssueCreateInput
	}{
		{"missing title", IssueCreateInput{Description: "d", Category: domain.CategoryRoad, Latitude: 1, Longitude: 1}},
		{"missing description", IssueCreateInput{Title: "t", Category: domain.CategoryRoad, Latitude: 1, Longitude: 1}},
		{"missing category", IssueCreateInput{Title: "t", Description: "d", Latitude: 1, Longitude: 1}},
		{"unknown category", IssueCreateInput{Title: "t", Description: "d", Category: "Sewage", Latitude: 1, Longitude: 1}},
		{"title too long", IssueCreateInput{Title: string(longTitle), Description: "d", Category: domain.CategoryRoad, Latitude: 1, Longitude: 1}},
		{"latitude out of range", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryRoad, Latitude: 91, Longitude: 1}},
		{"longitude out of range", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryRoad, Latitude: 1, Longitude: 181}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, f.reporter.ID, tt.input)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
		})
	}
}

func TestListFilterComposition(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	road := f.createIssue(t, "Pothole", domain.CategoryRoad, 28.61, 77.20)
	garbage := f.createIssue(t, "Overflowing bin", domain.CategoryGarbage, 28.62, 77.21)
	water := f.createIssue(t, "Burst pipe", domain.CategoryWater, 28.63, 77.22)

	// Mark the water issue fixed directly in the store.
	stored, err := f.issues.GetByID(ctx, water.ID)
	require.NoError(t, err)
	stored.Status = domain.StatusFixed
	require.NoError(t, f.issues.Update(ctx, stored))

	t.Run("no constraints returns everything newest first", func(t *testing.T) {
		all, err := f.service.List(ctx, repository.IssueFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, water.ID, all[0].ID)
		assert.Equal(t, garbage.ID, all[1].ID)
		assert.Equal(t, road.ID, all[2].ID)
	})

	t.Run("category only", func(t *testing.T) {
		cat := domain.CategoryRoad
		got, err := f.service.List(ctx, repository.IssueFilter{Category: &cat})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, road.ID, got[0].ID)
	})

	t.Run("status only", func(t *testing.T) {
		st := domain.StatusFixed
		got, err := f.service.List(ctx, repository.IssueFilter{Status: &st})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, water.ID, got[0].ID)
	})

	t.Run("category and status compose with AND", func(t *testing.T) {
		cat := domain.CategoryWater
		st := domain.StatusReported
		got, err := f.service.List(ctx, repository.IssueFilter{Category: &cat, Status: &st})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("text search matches title or description case-insensitively", func(t *testing.T) {
		q := "POTHOLE"
		got, err := f.service.List(ctx, repository.IssueFilter{SearchTerm: &q})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, road.ID, got[0].ID)
	})

	t.Run("empty search imposes no restriction", func(t *testing.T) {
		q := "   "
		got, err := f.service.List(ctx, repository.IssueFilter{SearchTerm: &q})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("invalid enum values are rejected", func(t *testing.T) {
		cat := domain.IssueCategory("Sewage")
		_, err := f.service.List(ctx, repository.IssueFilter{Category: &cat})
		require.Error(t, err)
		assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	})
}

func TestListNearby(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	// Pothole at Connaught Place; the query point sits roughly 15m away.
	pothole := f.createIssue(t, "Pothole", domain.CategoryRoad, 28.6139, 77.2090)
	far := f.createIssue(t, "Streetlight out", domain.CategoryElectricity, 28.7041, 77.1025)

	t.Run("returns issues within radius ordered by distance", func(t *testing.T) {
		got, err := f.service.ListNearby(ctx, 28.6140, 77.2091, 1000)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pothole.ID, got[0].ID)
	})

	t.Run("a large radius includes both, nearest first", func(t *testing.T) {
		got, err := f.service.ListNearby(ctx, 28.6140, 77.2091, 50000)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, pothole.ID, got[0].ID)
		assert.Equal(t, far.ID, got[1].ID)
	})

	t.Run("a one meter radius excludes an issue hundreds of meters away", func(t *testing.T) {
		// ~500m south of the pothole.
		got, err := f.service.ListNearby(ctx, 28.6094, 77.2090, 1)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("zero radius falls back to the 5km default", func(t *testing.T) {
		got, err := f.service.ListNearby(ctx, 28.6140, 77.2091, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pothole.ID, got[0].ID)
	})

	t.Run("invalid coordinates rejected", func(t *testing.T) {
		_, err := f.service.ListNearby(ctx, 91, 77.2091, 1000)
		require.Error(t, err)
		assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	})
}

func TestUpdateIssue(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "Pothole", domain.CategoryRoad, 28.61, 77.20)

	t.Run("owner can update supplied fields only", func(t *testing.T) {
		title := "Deep pothole"
		updated, err := f.service.Update(ctx, f.reporter.ID, issue.ID, IssueUpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Deep pothole", updated.Title)
		assert.Equal(t, issue.Description, updated.Description)
		assert.Equal(t, issue.Category, updated.Category)
	})

	t.Run("empty strings leave fields unchanged", func(t *testing.T) {
		empty := ""
		updated, err := f.service.Update(ctx, f.reporter.ID, issue.ID, IssueUpdateInput{Title: &empty})
		require.NoError(t, err)
		assert.Equal(t, "Deep pothole", updated.Title)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		title := "hijack"
		_, err := f.service.Update(ctx, f.other.ID, issue.ID, IssueUpdateInput{Title: &title})
		require.Error(t, err)
		assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)
	})

	t.Run("unknown issue is not found", func(t *testing.T) {
		title := "x"
		_, err := f.service.Update(ctx, f.reporter.ID, "missing", IssueUpdateInput{Title: &title})
		require.Error(t, err)
		assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		cat := domain.IssueCategory("Sewage")
		_, err := f.service.Update(ctx, f.reporter.ID, issue.ID, IssueUpdateInput{Category: &cat})
		require.Error(t, err)
		assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	})
}

func TestDeleteIssue(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	issue := f.createIssue(t, "Pothole", domain.CategoryRoad, 28.61, 77.20)

	t.Run("non-owner is forbidden", func(t *testing.T) {
		err := f.service.Delete(ctx, f.other.ID, issue.ID)
		require.Error(t, err)
		assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)
	})

	t.Run("owner deletes permanently", func(t *testing.T) {
		require.NoError(t, f.service.Delete(ctx, f.reporter.ID, issue.ID))
		_, err := f.service.Get(ctx, issue.ID)
		require.Error(t, err)
		assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
	})

	t.Run("deleting again is not found", func(t *testing.T) {
		err := f.service.Delete(ctx, f.reporter.ID, issue.ID)
		require.Error(t, err)
		assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
	})
}

package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssuesHandler manages the public and owner-facing issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// List GET /api/issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	var filter repository.IssueFilter
	if category := c.Query("category"); category != "" {
		cat := domain.IssueCategory(category)
		filter.Category = &cat
	}
	if status := c.Query("status"); status != "" {
		st := domain.IssueStatus(status)
		filter.Status = &st
	}
	if q := c.Query("q"); q != "" {
		filter.SearchTerm = &q
	}

	issues, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIssueListResponse(issues))
}

// Nearby GET /api/issues/nearby. Registered before the /:id route so the
// literal path segment is not captured as an id.
func (h *IssuesHandler) Nearby(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		return apperrors.NewValidationError("latitude and longitude are required")
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		return apperrors.NewValidationError("latitude and longitude are required")
	}

	radius := service.DefaultNearbyRadiusMeters
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("radius must be a positive number of meters")
		}
		radius = parsed
	}

	issues, err := h.service.ListNearby(c.Context(), lat, lng, radius)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIssueListResponse(issues))
}

// Get GET /api/issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIssueResponse(issue))
}

// Create POST /api/issues. Accepts a multipart form with an optional image,
// which lands in a temp file and is removed after the upload.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	lat, err := strconv.ParseFloat(c.FormValue("latitude"), 64)
	if err != nil {
		return apperrors.NewValidationError("latitude and longitude are required")
	}
	lng, err := strconv.ParseFloat(c.FormValue("longitude"), 64)
	if err != nil {
		return apperrors.NewValidationError("latitude and longitude are required")
	}

	input := service.IssueCreateInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    domain.IssueCategory(c.FormValue("category")),
		Latitude:    lat,
		Longitude:   lng,
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		tempPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveFile(file, tempPath); err != nil {
			return apperrors.MapError(err)
		}
		input.ImagePath = tempPath
		input.ImageContentType = file.Header.Get("Content-Type")
	}

	issue, err := h.service.Create(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewIssueResponse(issue))
}

// Update PUT /api/issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	issue, err := h.service.Update(c.Context(), principal.User.ID, c.Params("id"), service.IssueUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIssueResponse(issue))
}

// Delete DELETE /api/issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.Delete(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "issue deleted successfully"})
}

package domain

import "time"

// IssueCategory enumerates the kinds of civic problems users can report.
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "Road"
	CategoryGarbage     IssueCategory = "Garbage"
	CategoryWater       IssueCategory = "Water"
	CategoryElectricity IssueCategory = "Electricity"
	CategoryOther       IssueCategory = "Other"
)

// Categories lists every valid category.
func Categories() []IssueCategory {
	return []IssueCategory{CategoryRoad, CategoryGarbage, CategoryWater, CategoryElectricity, CategoryOther}
}

// Valid reports whether the category is a known value.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryRoad, CategoryGarbage, CategoryWater, CategoryElectricity, CategoryOther:
		return true
	}
	return false
}

// IssueStatus enumerates lifecycle states for issues. The nominal flow is
// REPORTED -> IN_PROGRESS -> FIXED, but admins may set any value at any time,
// including re-opening a FIXED issue.
type IssueStatus string

const (
	StatusReported   IssueStatus = "REPORTED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusFixed      IssueStatus = "FIXED"
)

// Statuses lists every valid status.
func Statuses() []IssueStatus {
	return []IssueStatus{StatusReported, StatusInProgress, StatusFixed}
}

// Valid reports whether the status is a known value.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusReported, StatusInProgress, StatusFixed:
		return true
	}
	return false
}

// Limits on user-supplied issue fields.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
)

// Issue is the aggregate for reported civic problems. Location is always a
// well-formed point; Reporter is populated on read paths that join users.
type Issue struct {
	ID          string
	Title       string
	Description string
	Category    IssueCategory
	Status      IssueStatus
	ImageURL    *string
	Latitude    float64
	Longitude   float64
	ReporterID  string
	Reporter    *UserRef
	Comments    []AdminComment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AdminComment is an append-only note attached to an issue by an admin.
// Comments have no identity outside their parent issue: they are created with
// it, deleted with it, and only ever exposed inside its projection.
type AdminComment struct {
	ID       string
	IssueID  string
	Body     string
	AuthorID string
	Author   *UserRef
	AddedAt  time.Time
}

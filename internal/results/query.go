package results

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/unique3900/devtul/internal/database/models"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultSort     = "severity"
)

// Query is the validated filter/sort/pagination state for one results request.
// Filters combine with AND; values within a filter combine with OR.
type Query struct {
	Page     int
	PageSize int
	SortBy   string // severity, url, date
	Search   string

	ProjectID *uuid.UUID
	ScanID    *uuid.UUID // takes precedence over ProjectID

	SeverityFilters   []string // display vocabulary (critical, serious, ...)
	ComplianceFilters []string // tag intersection
	ScanTypeFilters   []string // UI tokens (security, accessibility, ...)
	CategoryFilters   []string // stored category column values

	IncludeResolved bool
}

// Normalize clamps pagination to sane bounds and fills defaults.
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSort
	}
}

// ParseQuery builds a Query from HTTP query parameters. Malformed numeric or
// id parameters are rejected here, before anything touches the store.
func ParseQuery(values url.Values) (Query, map[string]string) {
	errs := make(map[string]string)
	q := Query{
		SortBy: values.Get("sortBy"),
		Search: values.Get("search"),

		SeverityFilters:   values["severityFilters"],
		ComplianceFilters: values["complianceFilters"],
		ScanTypeFilters:   values["scanTypeFilters"],
		CategoryFilters:   values["categoryFilters"],
	}

	q.Page = DefaultPage
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["page"] = "page must be an integer"
		} else {
			q.Page = n
		}
	}

	q.PageSize = DefaultPageSize
	if raw := values.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["pageSize"] = "pageSize must be an integer"
		} else {
			q.PageSize = n
		}
	}

	if raw := values.Get("projectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs["projectId"] = "projectId must be a valid id"
		} else {
			q.ProjectID = &id
		}
	}

	if raw := values.Get("scanId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs["scanId"] = "scanId must be a valid id"
		} else {
			q.ScanID = &id
		}
	}

	if raw := values.Get("includeResolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs["includeResolved"] = "includeResolved must be a boolean"
		} else {
			q.IncludeResolved = b
		}
	}

	if len(errs) > 0 {
		return Query{}, errs
	}

	q.Normalize()
	return q, nil
}

// ResultView is one ScanResult shaped for the API. Severity carries the
// display vocabulary; Category is the severity display name, which is a
// different field from the stored free-text category column (exposed as
// IssueCategory). ScanType collapses to "security" or "wcag".
type ResultView struct {
	ID            string      `json:"id"`
	ScanID        string      `json:"scanId"`
	URL           string      `json:"url"`
	Message       string      `json:"message"`
	Help          string      `json:"help,omitempty"`
	Element       string      `json:"element,omitempty"`
	ElementPath   string      `json:"elementPath,omitempty"`
	Severity      string      `json:"severity"`
	Impact        string      `json:"impact,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	ScanType      string      `json:"scanType"`
	Category      string      `json:"category"`
	IssueCategory string      `json:"issueCategory,omitempty"`
	IsResolved    bool        `json:"isResolved"`
	Details       interface{} `json:"details,omitempty"`
	CreatedAt     string      `json:"createdAt"`
}

// Summary aggregates per-severity counts over the entire filtered set,
// independent of pagination.
type Summary struct {
	Critical int64 `json:"critical"`
	Serious  int64 `json:"serious"`
	Moderate int64 `json:"moderate"`
	Minor    int64 `json:"minor"`
	Info     int64 `json:"info"`
	Total    int64 `json:"total"`
}

// Response is the results envelope.
type Response struct {
	Results      []ResultView `json:"results"`
	Summary      Summary      `json:"summary"`
	TotalPages   int          `json:"totalPages"`
	TotalResults int64        `json:"totalResults"`
}

// displayScanType collapses the rich scan-type enum into the two-way display
// field carried on each result row.
func displayScanType(t models.ScanType) string {
	if t == models.ScanTypeSecurity {
		return "security"
	}
	return "wcag"
}

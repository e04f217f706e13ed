package api

import (
	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/models"
)

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Date             string   `json:"date" example:"2024-03-10" validate:"required"`
	Title            string   `json:"title" example:"Quiet Sunday" validate:"required"`
	Content          string   `json:"content" example:"Walked by the river." validate:"required"`
	Category         string   `json:"category,omitempty" example:"Personal"`
	PrimaryMoodID    int64    `json:"primary_mood_id" example:"1" validate:"required"`
	SecondaryMoodIDs []int64  `json:"secondary_mood_ids,omitempty"`
	TagIDs           []int64  `json:"tag_ids,omitempty"`
	Tags             []string `json:"tags,omitempty" example:"Reflection,Nature"`
}

func (req EntryRequest) input() (journal.EntryInput, error) {
	in := journal.EntryInput{
		Title:            req.Title,
		Content:          req.Content,
		Category:         req.Category,
		PrimaryMoodID:    req.PrimaryMoodID,
		SecondaryMoodIDs: req.SecondaryMoodIDs,
		TagIDs:           req.TagIDs,
		TagNames:         req.Tags,
	}
	if req.Date == "" {
		return in, nil
	}
	day, err := models.ParseDay(req.Date)
	if err != nil {
		return in, err
	}
	in.Date = day
	return in, nil
}

// EntryDTO is a single entry with its calendar day rendered as YYYY-MM-DD.
type EntryDTO struct {
	*models.JournalEntry
	Date string `json:"date" example:"2024-03-10"`
	ETag string `json:"etag" example:"9f86d08..."`
}

func entryDTO(e *models.JournalEntry) EntryDTO {
	return EntryDTO{JournalEntry: e, Date: models.FormatDay(e.Date), ETag: journal.ETag(e)}
}

func entryDTOs(entries []models.JournalEntry) []EntryDTO {
	out := make([]EntryDTO, len(entries))
	for i := range entries {
		out[i] = entryDTO(&entries[i])
	}
	return out
}

// EntryListResponse wraps paginated or filtered entry listings.
type EntryListResponse struct {
	Entries []EntryDTO `json:"entries" validate:"required"`
	Total   int        `json:"total" example:"42" validate:"required"`
	Page    int        `json:"page,omitempty" example:"1"`
	Size    int        `json:"size,omitempty" example:"20"`
}

// TagRequest is the request body for creating a tag.
type TagRequest struct {
	Name string `json:"name" example:"Gardening" validate:"required"`
}

// MissedDaysResponse lists calendar days without an entry.
type MissedDaysResponse struct {
	Days  []string `json:"days" example:"2024-03-11"`
	Count int      `json:"count" example:"1"`
}

// AnalyticsResponse is the analytics report for a period.
type AnalyticsResponse = analytics.Report

// ExportRequest selects the days to export.
type ExportRequest struct {
	From string `json:"from" example:"2024-03-01" validate:"required"`
	To   string `json:"to" example:"2024-03-31" validate:"required"`
}

// ExportResponse describes a written export document.
type ExportResponse struct {
	Path    string `json:"path" example:"exports/Journal_2024-03-01_to_2024-03-31.md"`
	Entries int    `json:"entries" example:"12"`
}

// SettingsRequest is the request body for updating settings.
type SettingsRequest struct {
	Theme string `json:"theme" example:"Dark" validate:"required"`
}

// SettingsResponse reports user preferences and the lock state.
type SettingsResponse struct {
	Theme         string `json:"theme" example:"Light"`
	HasCredential bool   `json:"has_credential"`
	IsLocked      bool   `json:"is_locked"`
}

// CredentialRequest carries a passcode.
type CredentialRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// SessionResponse is returned after a successful unlock.
type SessionResponse struct {
	Token string `json:"token" example:"2f1c0d1e-..."`
}

package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// Field limits shared with the storage schema.
const (
	MaxTitleLength    = 500
	MaxCategoryLength = 200
	MaxSecondaryMoods = 2
	MaxTagNameLength  = 100
)

// EntryInput carries the user-editable fields of an entry. Tags may be given by
// id, by name, or both; unknown names become new user tags.
type EntryInput struct {
	Date             time.Time `json:"date"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Category         string    `json:"category"`
	PrimaryMoodID    int64     `json:"primary_mood_id"`
	SecondaryMoodIDs []int64   `json:"secondary_mood_ids"`
	TagIDs           []int64   `json:"tag_ids"`
	TagNames         []string  `json:"tag_names"`
}

func (in EntryInput) normalize() EntryInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if !in.Date.IsZero() {
		in.Date = models.Day(in.Date)
	}
	return in
}

// Validate checks the input against the entry field rules.
func (in EntryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Category, validation.RuneLength(0, MaxCategoryLength)),
		validation.Field(&in.PrimaryMoodID, validation.Required),
		validation.Field(&in.SecondaryMoodIDs, validation.Length(0, MaxSecondaryMoods)),
		validation.Field(&in.TagNames, validation.Each(validation.RuneLength(0, MaxTagNameLength))),
	)
}

func (in EntryInput) secondary(i int) *int64 {
	if i >= len(in.SecondaryMoodIDs) {
		return nil
	}
	id := in.SecondaryMoodIDs[i]
	return &id
}

func (in EntryInput) entry(tags []models.Tag) models.JournalEntry {
	return models.JournalEntry{
		Date:             in.Date,
		Title:            in.Title,
		Content:          in.Content,
		Category:         in.Category,
		PrimaryMoodID:    in.PrimaryMoodID,
		SecondaryMood1ID: in.secondary(0),
		SecondaryMood2ID: in.secondary(1),
		Tags:             tags,
	}
}

// InputFromEntry returns the input that would recreate e.
func InputFromEntry(e *models.JournalEntry) EntryInput {
	in := EntryInput{
		Date:          e.Date,
		Title:         e.Title,
		Content:       e.Content,
		Category:      e.Category,
		PrimaryMoodID: e.PrimaryMoodID,
		TagIDs:        e.TagIDs(),
	}
	for _, id := range []*int64{e.SecondaryMood1ID, e.SecondaryMood2ID} {
		if id != nil {
			in.SecondaryMoodIDs = append(in.SecondaryMoodIDs, *id)
		}
	}
	return in
}

// validationErr wraps err so that callers can match apperr.ErrValidation and
// still reach the field errors with errors.As.
func validationErr(err error) error {
	return fmt.Errorf("journal: %w: %w", apperr.ErrValidation, err)
}

// FieldErrors extracts per-field messages from a validation error, if any.
func FieldErrors(err error) map[string]string {
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for field, fe := range ve {
		out[field] = fe.Error()
	}
	return out
}

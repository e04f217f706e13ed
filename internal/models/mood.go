package models

// MoodCategory groups moods for distribution reporting.
type MoodCategory string

const (
	MoodPositive MoodCategory = "Positive"
	MoodNeutral  MoodCategory = "Neutral"
	MoodNegative MoodCategory = "Negative"
)

// MoodCategories lists the reported categories in display order.
var MoodCategories = []MoodCategory{MoodPositive, MoodNeutral, MoodNegative}

// Mood is a seeded, read-only emotional label.
type Mood struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Category MoodCategory `json:"category"`
	Emoji    string       `json:"emoji,omitempty"`
}

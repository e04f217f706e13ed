package models

import "time"

// JournalEntry is the record for a single calendar day.
// Mood and tag relations are always resolved by the store before an entry is returned.
type JournalEntry struct {
	ID               int64     `json:"id"`
	Date             time.Time `json:"date"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	WordCount        int       `json:"word_count"`
	Category         string    `json:"category,omitempty"`
	PrimaryMoodID    int64     `json:"primary_mood_id"`
	SecondaryMood1ID *int64    `json:"secondary_mood1_id,omitempty"`
	SecondaryMood2ID *int64    `json:"secondary_mood2_id,omitempty"`

	PrimaryMood    *Mood `json:"primary_mood,omitempty"`
	SecondaryMood1 *Mood `json:"secondary_mood1,omitempty"`
	SecondaryMood2 *Mood `json:"secondary_mood2,omitempty"`
	Tags           []Tag `json:"tags"`
}

// TagIDs returns the ids of the entry's tags in association order.
func (e *JournalEntry) TagIDs() []int64 {
	ids := make([]int64, 0, len(e.Tags))
	for _, t := range e.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// TagNames returns the names of the entry's tags in association order.
func (e *JournalEntry) TagNames() []string {
	names := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Moods returns the resolved moods, primary first.
func (e *JournalEntry) Moods() []*Mood {
	var out []*Mood
	for _, m := range []*Mood{e.PrimaryMood, e.SecondaryMood1, e.SecondaryMood2} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

package models

// Tag is a label attached to entries. Prebuilt tags are seeded and cannot be deleted.
type Tag struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsPrebuilt bool   `json:"is_prebuilt"`
}

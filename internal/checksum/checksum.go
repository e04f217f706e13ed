// Package checksum computes content digests used for file change detection and
// entry ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/starford/dagaz/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Entry returns a digest over the persisted state of e. Any write bumps UpdatedAt,
// so two reads with equal digests saw the same version of the entry.
func Entry(e *models.JournalEntry) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(strconv.FormatInt(e.ID, 10))
	write(models.FormatDay(e.Date))
	write(e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	write(e.Title)
	write(e.Content)
	return hex.EncodeToString(h.Sum(nil))
}

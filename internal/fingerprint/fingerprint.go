// Package fingerprint derives the content identity of an intervention.
//
// The identifier is a 32-bit FNV-1a hash rendered as 8 lowercase hex digits.
// It is persisted and shown to users, so the field order, separators and
// category order are a fixed contract. No collision handling is attempted:
// at thousands of records the 32-bit space is an accepted trade-off, and a
// collision silently merges two items into one intervention.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/insightdelivered/closure-importer/internal/models"
)

const sep = "|"

// NormalizeBreakdown renders b as "key=value" pairs in canonical category
// order, with 0 for absent categories. Categories outside the canonical list
// are not part of the identity.
func NormalizeBreakdown(b models.Breakdown) string {
	parts := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		parts[i] = string(c) + "=" + strconv.FormatInt(b[c], 10)
	}
	return strings.Join(parts, sep)
}

// Fingerprint hashes the defining fields of an intervention.
func Fingerprint(date string, workType models.WorkType, clientID string, totalCents int64, normalizedBreakdown string) string {
	base := strings.Join([]string{
		date,
		string(workType),
		clientID,
		strconv.FormatInt(totalCents, 10),
		normalizedBreakdown,
	}, sep)

	h := fnv.New32a()
	h.Write([]byte(base))
	return fmt.Sprintf("%08x", h.Sum32())
}

// ForItem returns the fingerprint of a parsed work item.
func ForItem(it *models.WorkItem) string {
	return Fingerprint(it.Date, it.Type, it.ClientID, it.TotalCents, NormalizeBreakdown(it.Breakdown))
}

package etl

import (
	"fmt"
	"strings"

	"github.com/noah-isme/registration-etl/internal/models"
)

// Deduplicate keeps one record per lower-cased email. A later record replaces
// the kept one when it has no more empty fields; the survivor takes the
// position of the first occurrence. Records without an email pass through.
func Deduplicate(records []models.RawRecord, sink EventSink) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(records))
	positions := make(map[string]int, len(records))

	for _, rec := range records {
		email := strings.ToLower(strings.TrimSpace(rec.Get(models.ColumnEmail)))
		if email == "" {
			out = append(out, rec)
			continue
		}

		pos, seen := positions[email]
		if !seen {
			positions[email] = len(out)
			out = append(out, rec)
			continue
		}

		kept := out[pos]
		if rec.EmptyFields() <= kept.EmptyFields() {
			out[pos] = rec
		}
		Emit(sink, PhaseDedup, EventDuplicateDetected, fmt.Sprintf("Removed duplicate: %s", email), map[string]interface{}{
			KeyEmail:   email,
			KeyRow:     rec.Row,
			KeyKeptRow: out[pos].Row,
		})
	}

	return out
}

package invoice

import (
	"fmt"
	"time"
)

// InvoiceNumberFormat is the legally mandated invoice number layout:
// LYQ-{4-digit year}-{5-digit zero-padded sequence}, e.g. LYQ-2026-00001.
const InvoiceNumberFormat = "LYQ-%04d-%05d"

// InvoiceSequence is the singleton counter backing invoice numbering.
// Sequence values are gapless and strictly increasing within a year and
// reset on year rollover. Callers must hold an exclusive lock on the
// record for the full read-modify-write (see SequenceRepository).
type InvoiceSequence struct {
	ID              string    `db:"id"`
	CurrentYear     int       `db:"current_year"`
	CurrentSequence int64     `db:"current_sequence"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Next advances the counter and returns the formatted invoice number for
// the year of the given time. Crossing into a new calendar year resets the
// sequence to 1 regardless of where the previous year's counter ended.
func (s *InvoiceSequence) Next(now time.Time) string {
	year := now.UTC().Year()
	if s.CurrentYear != year {
		s.CurrentYear = year
		s.CurrentSequence = 0
	}
	s.CurrentSequence++
	s.UpdatedAt = now.UTC()
	return fmt.Sprintf(InvoiceNumberFormat, s.CurrentYear, s.CurrentSequence)
}

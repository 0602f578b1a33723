package ledger

import "time"

// FormatVersion tags the book layout written by this release.
const FormatVersion = "2024.11.07"

// Meta describes a book and its open period. MonthFrom and MonthUntil are
// first-of-month dates.
type Meta struct {
	Version       string    `json:"version"`
	SchemaVersion int       `json:"schema_version"`
	BookID        string    `json:"book_id"`
	Standard      string    `json:"standard"`
	Company       string    `json:"company"`
	MonthFrom     time.Time `json:"month_from"`
	MonthUntil    time.Time `json:"month_until"`
}

package models

import (
	"strings"
	"time"
)

// Record is one institution from the registry file.
// ID and RegistryNumber carry the same value in the current file format.
type Record struct {
	ID             string
	RegistryNumber string
	Name           string
	City           string
}

// SkipReason classifies why a data row did not produce a Record.
type SkipReason string

const (
	SkipShortRow              SkipReason = "short_row"
	SkipMissingRegistryNumber SkipReason = "missing_registry_number"
	SkipMissingName           SkipReason = "missing_name"
)

// Snapshot is the immutable result of one registry load. It is built once
// and shared read-only by every concurrent search.
type Snapshot struct {
	Records  []Record
	Source   string
	LoadedAt time.Time
	Checksum uint64
	Skipped  map[SkipReason]int
	// Err is set when the source could not be read; Records is then empty.
	Err error

	folded []string
}

// NewSnapshot builds a snapshot over records, precomputing the lower-cased
// names the matcher compares against.
func NewSnapshot(records []Record, source string, loadedAt time.Time) *Snapshot {
	folded := make([]string, len(records))
	for i := range records {
		folded[i] = strings.ToLower(records[i].Name)
	}
	return &Snapshot{
		Records:  records,
		Source:   source,
		LoadedAt: loadedAt,
		Skipped:  map[SkipReason]int{},
		folded:   folded,
	}
}

// FoldedName returns the lower-cased name of the i-th record.
func (s *Snapshot) FoldedName(i int) string {
	return s.folded[i]
}

// Len returns the number of records, tolerating a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// SkippedTotal returns the number of data rows dropped during the load.
func (s *Snapshot) SkippedTotal() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

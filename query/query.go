// Package query matches user input against the records of a file name index.
package query

import (
	"slices"
	"strings"

	"github.com/lexandro/filesearch-mcp/index"
)

// Match reports whether the record's file name matches pattern.
func Match(record index.Record, pattern Pattern) bool {
	return pattern.MatchName(record.FileName)
}

// Query returns the records matching pattern, ordered by file name. Names are
// compared byte by byte; records with equal names keep their index order.
// An empty pattern matches nothing.
func Query(records []index.Record, pattern Pattern) []index.Record {
	if pattern.Empty() {
		return nil
	}
	results := Filter(records, pattern)
	SortByName(results)
	return results
}

// Filter returns the records matching pattern, preserving their order.
func Filter(records []index.Record, pattern Pattern) []index.Record {
	var results []index.Record
	for _, record := range records {
		if Match(record, pattern) {
			results = append(results, record)
		}
	}
	return results
}

// Refine narrows results, computed for prev, down to the records matching next.
// It filters in place and keeps the existing order. The second return value is
// false when next does not narrow prev; results is then returned untouched and the
// caller has to query the full index again.
func Refine(results []index.Record, prev Pattern, next Pattern) ([]index.Record, bool) {
	if !next.Narrows(prev) {
		return results, false
	}
	narrowed := slices.DeleteFunc(results, func(record index.Record) bool {
		return !Match(record, next)
	})
	return narrowed, true
}

// SortByName stable-sorts records by file name in byte order.
func SortByName(records []index.Record) {
	slices.SortStableFunc(records, func(a, b index.Record) int {
		return strings.Compare(a.FileName, b.FileName)
	})
}

package index

import (
	"path/filepath"
	"strings"
)

// Record is a single entry of the file name index.
// Records are immutable once created: FileName is always the last segment of FilePath.
type Record struct {
	FileName   string // Final path segment of FilePath
	FilePath   string // Absolute file path
	ProjectKey string // Key of the owning project, unique within a group
}

// NewRecord creates a record for the file at filePath owned by projectKey.
func NewRecord(filePath string, projectKey string) Record {
	return Record{
		FileName:   filepath.Base(filePath),
		FilePath:   filePath,
		ProjectKey: projectKey,
	}
}

// Storable reports whether the record can be written to the flat index file.
// Fields must be non-empty and must not contain tabs or line breaks.
func (r Record) Storable() bool {
	for _, field := range []string{r.FileName, r.FilePath, r.ProjectKey} {
		if field == "" || strings.ContainsAny(field, "\t\r\n") {
			return false
		}
	}
	return true
}

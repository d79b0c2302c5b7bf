package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the index file inside a group's config folder.
const FileName = "filesearch"

var (
	// ErrNotIndexed is returned by Read when no index file exists yet for the group.
	ErrNotIndexed = errors.New("files not indexed yet")
	// ErrIndexWriteFailed wraps any I/O failure while writing the index file.
	ErrIndexWriteFailed = errors.New("index write failed")
)

// maxLineBytes bounds a single index line (name + absolute path + key).
const maxLineBytes = 64 * 1024

// Store reads and writes the flat, tab-delimited index file of one group.
// Each line holds "file_name<TAB>file_path<TAB>project_key".
type Store struct {
	Path string
}

// NewStore returns the store for the group whose config folder is configDir.
func NewStore(configDir string) *Store {
	return &Store{Path: filepath.Join(configDir, FileName)}
}

// ReadResult holds the records parsed from an index file.
type ReadResult struct {
	Records   []Record
	Malformed int // lines skipped because they did not hold three non-empty fields
}

// WriteResult reports what Write persisted.
type WriteResult struct {
	Written  int
	Rejected int // records skipped because a field held a tab or line break
}

// Write replaces the index file with records. The data is flushed and synced to a
// temporary file which is then renamed over the target, so a reader observes
// either the previous or the complete new index. On failure the previous file is
// left in place and the returned error wraps ErrIndexWriteFailed.
func (s *Store) Write(records []Record) (WriteResult, error) {
	var result WriteResult

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return result, fmt.Errorf("%w: creating %s: %v", ErrIndexWriteFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+FileName+"-*")
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if err := writeLines(tmp, records, &result); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return result, fmt.Errorf("%w: %s: %v", ErrIndexWriteFailed, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return result, fmt.Errorf("%w: closing %s: %v", ErrIndexWriteFailed, tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return result, fmt.Errorf("%w: replacing %s: %v", ErrIndexWriteFailed, s.Path, err)
	}
	return result, nil
}

// writeLines serializes records to f and syncs it to disk.
func writeLines(f *os.File, records []Record, result *WriteResult) error {
	writer := bufio.NewWriter(f)
	for _, record := range records {
		if !record.Storable() {
			result.Rejected++
			continue
		}
		line := record.FileName + "\t" + record.FilePath + "\t" + record.ProjectKey + "\n"
		if _, err := writer.WriteString(line); err != nil {
			return err
		}
		result.Written++
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Read parses the whole index file. Empty lines are skipped; malformed and
// overlong lines are skipped and counted. A missing file returns ErrNotIndexed.
// An I/O error mid-file returns the records parsed so far along with the error.
func (s *Store) Read() (*ReadResult, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotIndexed
		}
		return nil, fmt.Errorf("opening index %s: %w", s.Path, err)
	}
	defer f.Close()

	result := &ReadResult{}
	reader := bufio.NewReaderSize(f, maxLineBytes)
	for {
		line, overlong, err := readLine(reader)
		switch {
		case overlong:
			result.Malformed++
		case line != "":
			if record, ok := parseLine(line); ok {
				result.Records = append(result.Records, record)
			} else {
				result.Malformed++
			}
		}
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("reading index %s: %w", s.Path, err)
		}
	}
}

// readLine returns the next line without its terminator. A line that does not fit
// in the reader's buffer is consumed and reported as overlong.
func readLine(reader *bufio.Reader) (string, bool, error) {
	overlong := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			overlong = true
			continue
		}
		if overlong {
			return "", true, err
		}
		line := strings.TrimSuffix(string(chunk), "\n")
		return strings.TrimSuffix(line, "\r"), false, err
	}
}

func parseLine(line string) (Record, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return Record{}, false
	}
	for _, field := range fields {
		if field == "" {
			return Record{}, false
		}
	}
	return Record{FileName: fields[0], FilePath: fields[1], ProjectKey: fields[2]}, true
}

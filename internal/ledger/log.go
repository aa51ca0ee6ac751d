package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Log is the durable mirror of the in-memory ledger: an append-only
// file with one JSON-serialized event per line.
//
// On open, the existing file is scanned to recover the last assigned
// event id, so a reopened ledger resumes numbering instead of reusing
// ids. A truncated final line (crash mid-write) is tolerated and
// ignored; corruption anywhere else is an error.
type Log struct {
	f      *os.File
	path   string
	lastID int64
}

// OpenLog opens (or creates) a durable governance log and returns the
// events already in it.
func OpenLog(path string) (*Log, []Event, error) {
	events, lastID, err := scanLog(path)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open governance log: %w", err)
	}

	return &Log{f: f, path: path, lastID: lastID}, events, nil
}

// scanLog reads all events from an existing log file. Returns no error
// if the file does not exist yet.
func scanLog(path string) ([]Event, int64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("scan governance log: %w", err)
	}
	defer f.Close()

	var events []Event
	var lastID int64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			// A torn final line means the process died mid-append; the
			// event was never acknowledged, so dropping it is safe.
			if isLastLine(scanner) {
				break
			}
			return nil, 0, fmt.Errorf("governance log %s line %d is corrupt: %w", path, lineNo, err)
		}
		if e.ID <= lastID {
			return nil, 0, fmt.Errorf("governance log %s line %d: event id %d is not monotonic (last was %d)", path, lineNo, e.ID, lastID)
		}
		lastID = e.ID
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan governance log: %w", err)
	}
	return events, lastID, nil
}

// isLastLine reports whether the scanner has no further lines.
func isLastLine(scanner *bufio.Scanner) bool {
	return !scanner.Scan()
}

// Append writes one event as a single line and syncs it to disk. This
// is the only synchronous I/O point in the core.
func (l *Log) Append(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal governance event %d: %w", e.ID, err)
	}
	data = append(data, '\n')
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("append governance event %d: %w", e.ID, err)
	}
	l.lastID = e.ID
	return nil
}

// Sync flushes the log to stable storage.
func (l *Log) Sync() error {
	return l.f.Sync()
}

// LastID returns the highest event id persisted so far.
func (l *Log) LastID() int64 { return l.lastID }

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Close closes the underlying file.
func (l *Log) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

// ReadLog reads every event from a governance log without opening it
// for append. Used by the archive importer and the replay CLI.
func ReadLog(path string) ([]Event, error) {
	events, _, err := scanLog(path)
	return events, err
}

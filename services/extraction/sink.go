package extraction

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"civicsearch-backend/services/extraction/normalize"
)

// Sink is the durable, restart-safe output stream for one target: one
// canonical record per line, append-only, flushed per record so a crash
// loses at most the line in flight. The deduplicator lives here too; its
// seen-set is seeded from whatever the file already holds, which is what
// makes re-runs idempotent.
type Sink struct {
	mu   sync.Mutex
	f    *os.File
	seen map[string]struct{}
	path string
}

func OpenSink(path string) (*Sink, error) {
	seen, err := seedSeen(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &Sink{f: f, seen: seen, path: path}, nil
}

// seedSeen scans an existing output file for previously written
// identifiers. Unparseable lines are skipped, not fatal: a torn final
// line from a crash must not block resume.
func seedSeen(path string) (map[string]struct{}, error) {
	seen := map[string]struct{}{}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return seen, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var line struct {
			Identifier string `json:"identifier"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			slog.Warn("skipping unparseable output line while seeding dedup", "path", path, "err", err)
			continue
		}
		if line.Identifier != "" {
			seen[line.Identifier] = struct{}{}
		}
	}
	return seen, scanner.Err()
}

// Write appends the record unless its identifier has been seen before.
// Returns whether the record was actually written.
func (s *Sink) Write(rec normalize.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[rec.Identifier]; dup {
		return false, nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	_, err = s.f.Write(append(line, '\n'))
	if err != nil {
		return false, err
	}
	err = s.f.Sync()
	if err != nil {
		return false, err
	}

	s.seen[rec.Identifier] = struct{}{}
	return true, nil
}

// Seen reports how many distinct identifiers the sink knows about,
// including ones seeded from a previous run.
func (s *Sink) Seen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *Sink) Close() error {
	return s.f.Close()
}

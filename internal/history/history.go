// Package history keeps an append-only journal of generation runs so users
// can see what they generated before without opening the session store.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/cfpgen/internal/profile"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Journal persists generation entries to a plain text file.
type Journal struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a journal that writes to path.
func New(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: ensure dir: %w", err)
	}
	return &Journal{path: path, now: time.Now}, nil
}

// Path returns the file backing this journal.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Append writes a single entry. Write failures are dropped; the journal is
// informational and must never break a generation.
func (j *Journal) Append(level Level, message string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s\n", j.now().UTC().Format(time.RFC3339), string(level), message)
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Generated records one generation run.
func (j *Journal) Generated(sessionID string, p profile.Profile, count int) {
	conference := p.Conference
	if conference == "" {
		conference = "-"
	}
	track := p.Track
	if track == "" {
		track = "-"
	}
	j.Append(LevelInfo, fmt.Sprintf("generated %d ideas for %q conference=%q track=%q format=%s audience=%s session=%s",
		count, p.Name, conference, track, p.Format, p.Audience, sessionID))
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries in the file.
func (j *Journal) Tail(maxLines int) ([]string, int) {
	if j == nil || maxLines <= 0 {
		return nil, 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	file, err := os.Open(j.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}

// Info appends an informational entry.
func (j *Journal) Info(format string, args ...any) {
	j.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (j *Journal) Warn(format string, args ...any) {
	j.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (j *Journal) Error(format string, args ...any) {
	j.Append(LevelError, fmt.Sprintf(format, args...))
}

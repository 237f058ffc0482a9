// Package auditlog persists audit entries as JSON Lines with daily and
// size-based rotation plus retention cleanup.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/port/outbound"
)

// filePattern matches rotated log names: audit-YYYY-MM-DD.jsonl or
// audit-YYYY-MM-DD-N.jsonl.
var filePattern = regexp.MustCompile(`^audit-(\d{4}-\d{2}-\d{2})(?:-(\d+))?\.jsonl$`)

// Config holds file-store settings. Zero values select the defaults.
type Config struct {
	// Dir is the directory audit files are written to.
	Dir string
	// RetentionDays is how long rotated files are kept (default 7).
	RetentionDays int
	// MaxFileSizeMB caps a single file before suffix rotation (default 100).
	MaxFileSizeMB int
	// RecentSize is the number of entries kept in memory for ReadRecent
	// (default 1000).
	RecentSize int
}

// FileStore writes one JSON line per entry to date-stamped files. A file
// that outgrows the size cap rolls to the next numeric suffix within the
// same day; files older than the retention window are deleted hourly.
type FileStore struct {
	dir           string
	maxFileSize   int64
	retentionDays int

	mu     sync.Mutex
	file   *os.File
	date   string
	size   int64
	suffix int
	closed bool
	recent *ring
	cancel context.CancelFunc
	logger *slog.Logger
}

var _ outbound.AuditStore = (*FileStore)(nil)

// NewFileStore opens today's file, deletes expired files, and starts the
// hourly retention sweep.
func NewFileStore(cfg Config, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 100
	}
	if cfg.RecentSize <= 0 {
		cfg.RecentSize = 1000
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &FileStore{
		dir:           cfg.Dir,
		maxFileSize:   int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		retentionDays: cfg.RetentionDays,
		recent:        newRing(cfg.RecentSize),
		cancel:        cancel,
		logger:        logger,
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := s.openLocked(today, s.highestSuffix(today)); err != nil {
		cancel()
		return nil, fmt.Errorf("open audit file: %w", err)
	}

	s.sweep()
	go s.sweepLoop(ctx)
	return s, nil
}

// Write appends one entry, rotating by date and size as needed. Each line
// hits the OS before Write returns; there is no internal buffer to lose on
// crash.
func (s *FileStore) Write(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("audit store closed")
	}

	date := entry.Timestamp.Time().UTC().Format("2006-01-02")
	if date != s.date {
		if err := s.rotateLocked(date, 0); err != nil {
			return fmt.Errorf("date rotation: %w", err)
		}
	}
	if s.size >= s.maxFileSize {
		if err := s.rotateLocked(s.date, s.suffix+1); err != nil {
			return fmt.Errorf("size rotation: %w", err)
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	n, err := s.file.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	s.size += int64(n)
	s.recent.add(entry)
	return nil
}

// ReadRecent returns up to n entries, newest first.
func (s *FileStore) ReadRecent(n int) []audit.Entry {
	return s.recent.last(n)
}

// Close syncs and releases the current file and stops the retention sweep.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()

	if s.file == nil {
		return nil
	}
	_ = s.file.Sync()
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *FileStore) filename(date string, suffix int) string {
	if suffix == 0 {
		return fmt.Sprintf("audit-%s.jsonl", date)
	}
	return fmt.Sprintf("audit-%s-%d.jsonl", date, suffix)
}

// openLocked opens or creates the file for date/suffix and adopts its size.
func (s *FileStore) openLocked(date string, suffix int) error {
	path := filepath.Join(s.dir, s.filename(date, suffix))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", path, err)
	}

	s.file = f
	s.date = date
	s.suffix = suffix
	s.size = info.Size()
	return nil
}

func (s *FileStore) rotateLocked(date string, suffix int) error {
	if s.file != nil {
		_ = s.file.Sync()
		_ = s.file.Close()
		s.file = nil
	}
	return s.openLocked(date, suffix)
}

// highestSuffix finds the largest existing suffix for a date so restarts
// keep appending to the newest file instead of an already rotated one.
func (s *FileStore) highestSuffix(date string) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	highest := 0
	for _, e := range entries {
		d, n, ok := parseFilename(e.Name())
		if ok && d == date && n > highest {
			highest = n
		}
	}
	return highest
}

func parseFilename(name string) (date string, suffix int, ok bool) {
	m := filePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, false
		}
		suffix = n
	}
	return m[1], suffix, true
}

// sweep deletes files older than the retention window.
func (s *FileStore) sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("audit retention: read directory failed",
			"dir", s.dir, "error", err)
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, e := range entries {
		date, _, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		fileDate, err := time.Parse("2006-01-02", date)
		if err != nil || !fileDate.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Error("audit retention: delete failed",
				"file", e.Name(), "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info("audit retention sweep completed", "deleted", deleted)
	}
}

func (s *FileStore) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Files lists the store's audit files in chronological order.
func (s *FileStore) Files() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	type fileInfo struct {
		name   string
		date   string
		suffix int
	}
	var files []fileInfo
	for _, e := range entries {
		date, suffix, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		files = append(files, fileInfo{name: e.Name(), date: date, suffix: suffix})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].date != files[j].date {
			return files[i].date < files[j].date
		}
		return files[i].suffix < files[j].suffix
	})
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names
}

// ring is a fixed-size buffer of the latest entries.
type ring struct {
	mu      sync.RWMutex
	entries []audit.Entry
	head    int
	count   int
}

func newRing(size int) *ring {
	return &ring{entries: make([]audit.Entry, size)}
}

func (r *ring) add(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

func (r *ring) last(n int) []audit.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]audit.Entry, n)
	for i := 0; i < n; i++ {
		idx := (r.head - 1 - i + len(r.entries)) % len(r.entries)
		out[i] = r.entries[idx]
	}
	return out
}

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voice-cart/internal/domain"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// FileSource watches a directory for dropped recordings. Plain .txt files are
// treated as already-transcribed orders.
type FileSource struct {
	dir       string
	interval  time.Duration
	processed map[string]bool
	failures  map[string]int
	logger    *slog.Logger
	mu        sync.Mutex
}

// maxReadAttempts bounds how many polls an unreadable entry is retried for
// before it is skipped for good.
const maxReadAttempts = 3

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		interval:  500 * time.Millisecond,
		processed: make(map[string]bool),
		failures:  make(map[string]int),
		logger:    logger,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		data, err := f.checkForNewFile()
		if err != nil {
			f.logger.Warn("scanning audio dir", "dir", f.dir, "error", err)
		} else if data != nil {
			return data, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExtensions[ext] && ext != ".txt" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			attempt := f.failures[path] + 1
			f.failures[path] = attempt
			if attempt >= maxReadAttempts {
				f.processed[path] = true
				delete(f.failures, path)
			}
			f.logger.Warn("skipping unreadable file", "path", path, "attempt", attempt, "error", err)
			continue
		}

		f.processed[path] = true
		delete(f.failures, path)
		if err := os.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking file processed", "path", path, "error", err)
		}

		if ext == ".txt" {
			text := strings.TrimSpace(string(data))
			if text == "" {
				continue
			}
			return []byte(domain.TextCommandPrefix + text), nil
		}

		return data, nil
	}

	return nil, nil
}

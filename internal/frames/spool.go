package frames

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"cardwatch/internal/detect"
	"cardwatch/internal/logging"
)

// SpoolSource tails a spool directory that the external detector writes one
// JSON file per frame into. Files are consumed in name order and removed
// after they are handed off.
type SpoolSource struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	started bool
}

// NewSpoolSource constructs a source over the given spool directory.
func NewSpoolSource(dir string, logger *slog.Logger) *SpoolSource {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SpoolSource{dir: dir, logger: logger}
}

// Start begins watching the spool directory. Files already present are
// drained first so a restart picks up where the detector left off.
func (s *SpoolSource) Start(ctx context.Context) (<-chan detect.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, fmt.Errorf("spool source: already started")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool source: create dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("spool source: watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("spool source: watch %s: %w", s.dir, err)
	}
	s.watcher = watcher
	s.started = true

	out := make(chan detect.Frame, 16)
	go s.run(ctx, watcher, out)
	return out, nil
}

// Close stops the underlying watcher.
func (s *SpoolSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *SpoolSource) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- detect.Frame) {
	defer close(out)

	s.drain(ctx, out)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isFrameFile(event.Name) {
				continue
			}
			// Drain rather than dispatching the single event so bursts
			// arrive in sequence order.
			s.drain(ctx, out)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("spool watcher error", "error", err)
		}
	}
}

func (s *SpoolSource) drain(ctx context.Context, out chan<- detect.Frame) {
	for _, path := range s.pending() {
		frame, err := readFrameFile(path)
		if err != nil {
			// Likely a partial write; leave it for the next event.
			s.logger.Warn("skipping unreadable frame file", "path", path, "error", err)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- frame:
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove consumed frame file", "path", path, "error", err)
		}
	}
}

func (s *SpoolSource) pending() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to list spool directory", "dir", s.dir, "error", err)
		return nil
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isFrameFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths
}

func isFrameFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, ".json")
}

func readFrameFile(path string) (detect.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return detect.Frame{}, err
	}
	var frame detect.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return detect.Frame{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return frame, nil
}

var _ Source = (*SpoolSource)(nil)

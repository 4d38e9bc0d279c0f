package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cardwatch/internal/detect"
)

// ReplaySource replays a directory of recorded frame files in name order.
// It is used for offline runs and tests; the channel closes once every
// frame has been delivered.
type ReplaySource struct {
	dir      string
	interval time.Duration
}

// NewReplaySource constructs a replay over dir. A non-zero interval paces
// delivery to simulate a live feed.
func NewReplaySource(dir string, interval time.Duration) *ReplaySource {
	return &ReplaySource{dir: dir, interval: interval}
}

func (r *ReplaySource) Start(ctx context.Context) (<-chan detect.Frame, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("replay source: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isFrameFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(r.dir, entry.Name()))
	}
	sort.Strings(paths)

	out := make(chan detect.Frame)
	go func() {
		defer close(out)
		for _, path := range paths {
			frame, err := readFrameFile(path)
			if err != nil {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- frame:
			}
			if r.interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(r.interval):
				}
			}
		}
	}()
	return out, nil
}

func (r *ReplaySource) Close() error { return nil }

var _ Source = (*ReplaySource)(nil)

package frames

import (
	"context"

	"cardwatch/internal/detect"
)

// Source delivers detection frames to the orchestrator. Start may be called
// once; the returned channel closes when the source is exhausted or the
// context is cancelled.
type Source interface {
	Start(ctx context.Context) (<-chan detect.Frame, error)
	Close() error
}

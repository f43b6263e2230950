package evidence

import (
	"context"
	"errors"
)

// ErrUnknownKind is returned by a Store asked for a kind it does not hold.
// The engine treats it as a broken query definition rather than a
// transient outage.
var ErrUnknownKind = errors.New("unknown evidence kind")

// Store is the evidence store adapter consumed by the engine.
// Implementations must be safe for concurrent reads.
type Store interface {
	// FetchNodes returns at most limit nodes of kind matching every filter,
	// most recent first. limit <= 0 means no cap.
	FetchNodes(ctx context.Context, kind Kind, filters FilterSet, limit int) ([]Node, error)
}

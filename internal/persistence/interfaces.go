// Package persistence defines the boundary through which computed confluence
// results leave the process. The engine never depends on it; storage is an
// external collaborator and scoring stays correct with no store at all.
package persistence

import (
	"context"

	"github.com/marketweave/confluence/internal/composite"
)

// ResultStore persists composite results for later inspection or alerting.
type ResultStore interface {
	// Save writes one result. Implementations must tolerate repeated saves of
	// identical results: scoring is idempotent and callers may retry.
	Save(ctx context.Context, result *composite.Result) error
	Close() error
}

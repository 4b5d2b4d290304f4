package records

import (
	"context"
	"errors"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
)

// Store errors returned by System implementations.
var (
	// ErrNotFound indicates no record exists under the requested id.
	ErrNotFound = errors.New("records: not found")

	// ErrInvalidID indicates an empty or malformed record id.
	ErrInvalidID = errors.New("records: invalid id")
)

// System is the durable mapping from document id to Record.
// Every implementation is safe for concurrent use; read-modify-write
// sequences are serialised by the caller.
type System interface {
	// Put persists rec under rec.ID, replacing any prior record atomically.
	Put(ctx context.Context, rec *Record) error

	// Get returns the record stored under id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes the record stored under id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every record matching the filter, in no particular order.
	List(ctx context.Context, filter Filter) ([]Record, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

package app

import (
	"context"
	"time"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// Store is the uniform record adapter contract. Implementations hold no
// business rules: sentinel filtering and ordering are part of the contract,
// everything else lives above.
type Store interface {
	// GetAll returns every reservation except the sentinel, newest-created
	// first.
	GetAll(ctx context.Context) ([]domain.Reservation, error)
	// Get returns one reservation by id; the sentinel reads as not found.
	Get(ctx context.Context, id string) (domain.Reservation, error)
	// BookedTimes returns the non-cancelled time labels for one
	// (date, staff) pair, sentinel excluded.
	BookedTimes(ctx context.Context, date, staffName string) ([]string, error)
	Create(ctx context.Context, rec domain.Reservation) error
	UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
	// GetSentinel returns the sentinel record, or nil when it was never
	// written.
	GetSentinel(ctx context.Context) (*domain.Reservation, error)
	// UpsertSentinel creates or replaces the sentinel record.
	UpsertSentinel(ctx context.Context, rec domain.Reservation) error
	Ping(ctx context.Context) error
}

// Mirror is the optimistic side of the in-memory reservation list. The
// realtime reconciler implements it; booking writes go through the same
// id-keyed merge the change feed uses.
type Mirror interface {
	UpsertLocal(domain.Reservation)
	RemoveLocal(id string)
	Reload([]domain.Reservation)
	// Lookup reads the mirrored record for id, so status transitions can
	// resolve against local state when the store is unreachable.
	Lookup(id string) (domain.Reservation, bool)
}

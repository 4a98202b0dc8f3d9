package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// SentinelStore is the slice of the record adapter the gate needs.
type SentinelStore interface {
	GetSentinel(ctx context.Context) (*domain.Reservation, error)
	UpsertSentinel(ctx context.Context, rec domain.Reservation) error
}

// ShopGate is the global switch for accepting new reservations, persisted
// as the sentinel record's status: cancelled means closed, anything else
// (including an absent record) means open.
type ShopGate struct {
	store  SentinelStore
	logger *log.Logger

	mu   sync.Mutex
	open bool
}

func NewShopGate(store SentinelStore, logger *log.Logger) *ShopGate {
	if logger == nil {
		logger = log.Default()
	}
	return &ShopGate{store: store, logger: logger, open: true}
}

// Refresh reads the sentinel and resets local state from it.
func (g *ShopGate) Refresh(ctx context.Context) error {
	rec, err := g.store.GetSentinel(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	open := true
	if rec != nil && rec.EffectiveStatus() == domain.StatusCancelled {
		open = false
	}
	g.mu.Lock()
	g.open = open
	g.mu.Unlock()
	return nil
}

func (g *ShopGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Toggle flips local state optimistically and upserts the sentinel. A
// failed write reverts the flip; the gate never diverges silently.
func (g *ShopGate) Toggle(ctx context.Context) (bool, error) {
	g.mu.Lock()
	newState := !g.open
	g.open = newState
	g.mu.Unlock()

	status := domain.StatusPending // open
	if !newState {
		status = domain.StatusCancelled // closed
	}

	if err := g.store.UpsertSentinel(ctx, domain.NewSentinel(status)); err != nil {
		g.mu.Lock()
		g.open = !newState
		g.mu.Unlock()
		g.logger.Printf("shopgate: toggle persist failed: %v", err)
		return !newState, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return newState, nil
}

// ApplyRemote consumes sentinel change events from the reconciler.
func (g *ShopGate) ApplyRemote(status domain.Status) {
	g.mu.Lock()
	g.open = status != domain.StatusCancelled
	g.mu.Unlock()
}

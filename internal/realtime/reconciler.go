// Package realtime keeps the in-memory reservation list consistent with the
// store's change-event feed and fans the result out to connected dashboard
// viewers.
package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// ErrNotConnected reports an operation that needs a live subscription.
var ErrNotConnected = errors.New("realtime: not connected")

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Stream is the change-event source, implemented by the store adapter.
// The returned channel closes when the subscription drops.
type Stream interface {
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error)
}

// Sink receives reconciled output for connected viewers: every non-sentinel
// change event, plus deduplicated new-booking alerts.
type Sink interface {
	BroadcastChange(domain.ChangeEvent)
	NotifyNewReservation(domain.Reservation)
}

// GateSink receives the shop open/closed flips carried by sentinel events.
type GateSink interface {
	ApplyRemote(domain.Status)
}

// Reconciler merges the remote change feed into an id-keyed in-memory list.
// The booking service applies its optimistic writes through the same merge,
// so a local write racing its own remote echo can never leave a duplicate.
type Reconciler struct {
	stream Stream
	sink   Sink
	gate   GateSink
	logger *log.Logger

	state    atomic.Int32
	notifyOn atomic.Bool
	viewers  atomic.Int32

	mu    sync.Mutex
	list  []domain.Reservation
	known map[string]struct{}

	connMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(stream Stream, sink Sink, gate GateSink, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		stream: stream,
		sink:   sink,
		gate:   gate,
		logger: logger,
		known:  make(map[string]struct{}),
	}
}

func (r *Reconciler) State() State {
	return State(r.state.Load())
}

// SetNotifications flips the alert preference. The handle is read live by
// the event loop, so a running subscription sees the change without being
// reopened.
func (r *Reconciler) SetNotifications(on bool) {
	r.notifyOn.Store(on)
}

func (r *Reconciler) NotificationsEnabled() bool {
	return r.notifyOn.Load()
}

// ViewerAttached marks one admin viewer as watching the list screen.
// Insert alerts fire only while at least one viewer is attached.
func (r *Reconciler) ViewerAttached() {
	r.viewers.Add(1)
}

func (r *Reconciler) ViewerDetached() {
	r.viewers.Add(-1)
}

// Connect opens a fresh subscription, tearing down any stale one first so
// the same event is never delivered twice through two live channels.
func (r *Reconciler) Connect(ctx context.Context) error {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	r.teardownLocked()

	r.state.Store(int32(StateConnecting))
	subCtx, cancel := context.WithCancel(ctx)
	ch, err := r.stream.Subscribe(subCtx)
	if err != nil {
		cancel()
		r.state.Store(int32(StateDisconnected))
		return err
	}

	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.state.Store(int32(StateConnected))

	go func() {
		defer close(done)
		for ev := range ch {
			r.Apply(ev)
		}
		// The channel closing means the subscription dropped; the flip to
		// disconnected must not be swallowed.
		r.state.Store(int32(StateDisconnected))
		r.logger.Printf("realtime: subscription closed")
	}()
	return nil
}

// Close tears the subscription down and marks the reconciler disconnected.
func (r *Reconciler) Close() {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	r.teardownLocked()
	r.state.Store(int32(StateDisconnected))
}

func (r *Reconciler) teardownLocked() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
		r.done = nil
	}
}

// Apply merges one change event. Sentinel events are routed to the gate
// only: they never enter the list, never reach viewers and never alert.
func (r *Reconciler) Apply(ev domain.ChangeEvent) {
	if ev.IsSentinel() {
		status := domain.StatusPending
		if ev.New != nil {
			status = ev.New.EffectiveStatus()
		}
		if r.gate != nil {
			r.gate.ApplyRemote(status)
		}
		return
	}

	switch ev.Op {
	case domain.OpInsert:
		if ev.New == nil {
			return
		}
		r.applyInsert(*ev.New)
	case domain.OpUpdate:
		if ev.New == nil {
			return
		}
		r.applyUpdate(*ev.New)
		r.broadcast(ev)
	case domain.OpDelete:
		if ev.Old == nil {
			return
		}
		r.applyDelete(ev.Old.ID)
		r.broadcast(ev)
	}
}

func (r *Reconciler) applyInsert(rec domain.Reservation) {
	r.mu.Lock()
	if r.indexOfLocked(rec.ID) >= 0 {
		// Optimistic write already holds this id; the remote echo is
		// dropped whole, including its alert.
		r.mu.Unlock()
		return
	}
	_, alreadyKnown := r.known[rec.ID]
	r.list = append([]domain.Reservation{rec}, r.list...)
	r.known[rec.ID] = struct{}{}
	r.mu.Unlock()

	r.broadcast(domain.ChangeEvent{Op: domain.OpInsert, New: &rec})
	if !alreadyKnown && r.notifyOn.Load() && r.viewers.Load() > 0 && r.sink != nil {
		r.sink.NotifyNewReservation(rec)
	}
}

func (r *Reconciler) applyUpdate(rec domain.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(rec.ID); i >= 0 {
		r.list[i] = rec
	}
}

func (r *Reconciler) applyDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(id); i >= 0 {
		r.list = append(r.list[:i], r.list[i+1:]...)
	}
}

func (r *Reconciler) broadcast(ev domain.ChangeEvent) {
	if r.sink != nil {
		r.sink.BroadcastChange(ev)
	}
}

// UpsertLocal applies an optimistic local write through the same id-keyed
// merge the remote feed uses. No alert fires for the caller's own write.
func (r *Reconciler) UpsertLocal(rec domain.Reservation) {
	if rec.IsSentinel() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(rec.ID); i >= 0 {
		r.list[i] = rec
		return
	}
	r.list = append([]domain.Reservation{rec}, r.list...)
	r.known[rec.ID] = struct{}{}
}

// RemoveLocal is the optimistic counterpart of a delete or a rolled-back
// create.
func (r *Reconciler) RemoveLocal(id string) {
	r.applyDelete(id)
}

// Reload replaces the list after a full fetch and captures the known-id
// snapshot used to suppress duplicate alerts for records the reload already
// contained.
func (r *Reconciler) Reload(records []domain.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = make([]domain.Reservation, len(records))
	copy(r.list, records)
	r.known = make(map[string]struct{}, len(records))
	for _, rec := range records {
		r.known[rec.ID] = struct{}{}
	}
}

// Lookup returns the mirrored record for id, if the list holds one. The
// booking service resolves status transitions against the mirror first so
// a store outage cannot block the optimistic path.
func (r *Reconciler) Lookup(id string) (domain.Reservation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfLocked(id); i >= 0 {
		return r.list[i], true
	}
	return domain.Reservation{}, false
}

// snapshot copies the current list, newest first.
func (r *Reconciler) snapshot() []domain.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Reservation, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Reconciler) indexOfLocked(id string) int {
	for i := range r.list {
		if r.list[i].ID == id {
			return i
		}
	}
	return -1
}

package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

type fakeSink struct {
	mu      sync.Mutex
	changes []domain.ChangeEvent
	alerts  []domain.Reservation
}

func (s *fakeSink) BroadcastChange(ev domain.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, ev)
}

func (s *fakeSink) NotifyNewReservation(rec domain.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, rec)
}

func (s *fakeSink) alertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type fakeGate struct {
	mu     sync.Mutex
	status []domain.Status
}

func (g *fakeGate) ApplyRemote(st domain.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = append(g.status, st)
}

type fakeStream struct {
	mu  sync.Mutex
	chs []chan domain.ChangeEvent
	err error
}

func (s *fakeStream) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan domain.ChangeEvent, 16)
	s.mu.Lock()
	s.chs = append(s.chs, ch)
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func record(id string) domain.Reservation {
	return domain.Reservation{
		ID:            id,
		ClientName:    "client " + id,
		StaffName:     "Jeilson Aprijo",
		ScheduledDate: "10/05/2025",
		ScheduledTime: "10:00",
		Status:        domain.StatusPending,
	}
}

func newTestReconciler() (*Reconciler, *fakeSink, *fakeGate) {
	sink := &fakeSink{}
	gate := &fakeGate{}
	r := NewReconciler(&fakeStream{}, sink, gate, nil)
	r.SetNotifications(true)
	r.ViewerAttached()
	return r, sink, gate
}

func TestApply_InsertIdempotent(t *testing.T) {
	t.Parallel()

	r, sink, _ := newTestReconciler()
	rec := record("b1")
	ev := domain.ChangeEvent{Op: domain.OpInsert, New: &rec}

	r.Apply(ev)
	r.Apply(ev)

	if got := len(r.snapshot()); got != 1 {
		t.Fatalf("expected 1 entry after duplicate insert, got %d", got)
	}
	if sink.alertCount() != 1 {
		t.Fatalf("expected exactly one alert, got %d", sink.alertCount())
	}
}

func TestApply_InsertPrepends(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestReconciler()
	first, second := record("b1"), record("b2")
	r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &first})
	r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &second})

	list := r.snapshot()
	if len(list) != 2 || list[0].ID != "b2" || list[1].ID != "b1" {
		t.Fatalf("expected newest-first ordering, got %+v", list)
	}
}

func TestApply_UpdateReplacesInPlace(t *testing.T) {
	t.Parallel()

	r, sink, _ := newTestReconciler()
	r.Reload([]domain.Reservation{record("b1"), record("b2")})

	updated := record("b2")
	updated.Status = domain.StatusCompleted
	r.Apply(domain.ChangeEvent{Op: domain.OpUpdate, New: &updated})

	list := r.snapshot()
	if list[1].ID != "b2" || list[1].Status != domain.StatusCompleted {
		t.Fatalf("expected in-place replacement, got %+v", list)
	}
	if sink.alertCount() != 0 {
		t.Fatalf("updates must not alert")
	}
}

func TestApply_DeleteRemoves(t *testing.T) {
	t.Parallel()

	r, sink, _ := newTestReconciler()
	r.Reload([]domain.Reservation{record("b1"), record("b2")})

	old := record("b1")
	r.Apply(domain.ChangeEvent{Op: domain.OpDelete, Old: &old})

	list := r.snapshot()
	if len(list) != 1 || list[0].ID != "b2" {
		t.Fatalf("expected b1 removed, got %+v", list)
	}
	if sink.alertCount() != 0 {
		t.Fatalf("deletes must not alert")
	}
}

func TestApply_SentinelRoutedToGateOnly(t *testing.T) {
	t.Parallel()

	r, sink, gate := newTestReconciler()

	closed := domain.NewSentinel(domain.StatusCancelled)
	r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &closed})

	if len(r.snapshot()) != 0 {
		t.Fatalf("sentinel must never enter the list")
	}
	if sink.alertCount() != 0 || len(sink.changes) != 0 {
		t.Fatalf("sentinel must not reach viewers")
	}
	gate.mu.Lock()
	defer gate.mu.Unlock()
	if len(gate.status) != 1 || gate.status[0] != domain.StatusCancelled {
		t.Fatalf("expected the gate to see cancelled, got %+v", gate.status)
	}
}

func TestApply_SentinelDeleteReadsAsOpen(t *testing.T) {
	t.Parallel()

	r, _, gate := newTestReconciler()

	old := domain.NewSentinel(domain.StatusCancelled)
	r.Apply(domain.ChangeEvent{Op: domain.OpDelete, Old: &old})

	gate.mu.Lock()
	defer gate.mu.Unlock()
	if len(gate.status) != 1 || gate.status[0] != domain.StatusPending {
		t.Fatalf("a sentinel event without a new snapshot means open, got %+v", gate.status)
	}
}

func TestApply_KnownIDSuppressesAlertAfterReload(t *testing.T) {
	t.Parallel()

	r, sink, _ := newTestReconciler()
	rec := record("b1")
	r.Reload([]domain.Reservation{rec})

	// Simulate the list diverging (viewer-local removal) followed by the
	// live echo of the same insert: no second alert.
	r.RemoveLocal("b1")
	r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &rec})

	if sink.alertCount() != 0 {
		t.Fatalf("reloaded ids must never re-alert, got %d alerts", sink.alertCount())
	}
	if len(r.snapshot()) != 1 {
		t.Fatalf("record should still merge into the list")
	}
}

func TestApply_NoAlertWithoutViewerOrPreference(t *testing.T) {
	t.Parallel()

	t.Run("viewer detached", func(t *testing.T) {
		r, sink, _ := newTestReconciler()
		r.ViewerDetached()
		rec := record("b1")
		r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &rec})
		if sink.alertCount() != 0 {
			t.Fatalf("no viewer attached, no alert")
		}
	})

	t.Run("notifications off", func(t *testing.T) {
		r, sink, _ := newTestReconciler()
		r.SetNotifications(false)
		rec := record("b1")
		r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &rec})
		if sink.alertCount() != 0 {
			t.Fatalf("preference off, no alert")
		}
	})
}

func TestUpsertLocal_SharesMergeWithRemoteEcho(t *testing.T) {
	t.Parallel()

	r, sink, _ := newTestReconciler()

	rec := record("b1")
	r.UpsertLocal(rec)

	// The remote echo of our own write is dropped without an alert.
	r.Apply(domain.ChangeEvent{Op: domain.OpInsert, New: &rec})

	if got := len(r.snapshot()); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	if sink.alertCount() != 0 {
		t.Fatalf("own writes must not alert")
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestReconciler()
	rec := record("b1")
	r.UpsertLocal(rec)

	got, ok := r.Lookup("b1")
	if !ok {
		t.Fatalf("expected b1 in the mirror")
	}
	if got.ID != rec.ID {
		t.Fatalf("expected %s, got %s", rec.ID, got.ID)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("unknown id must miss")
	}
}

func TestConnect_StateMachine(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	r := NewReconciler(stream, &fakeSink{}, &fakeGate{}, nil)

	if r.State() != StateDisconnected {
		t.Fatalf("expected disconnected before connect")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if r.State() != StateConnected {
		t.Fatalf("expected connected, got %s", r.State())
	}

	r.Close()
	if r.State() != StateDisconnected {
		t.Fatalf("expected disconnected after close, got %s", r.State())
	}
}

func TestConnect_SubscribeFailure(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{err: errors.New("boom")}
	r := NewReconciler(stream, &fakeSink{}, &fakeGate{}, nil)

	if err := r.Connect(context.Background()); err == nil {
		t.Fatalf("expected subscribe error")
	}
	if r.State() != StateDisconnected {
		t.Fatalf("failed connect must leave the reconciler disconnected")
	}
}

func TestConnect_TearsDownStaleSubscription(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	r := NewReconciler(stream, &fakeSink{}, &fakeGate{}, nil)

	ctx := context.Background()
	if err := r.Connect(ctx); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := r.Connect(ctx); err != nil {
		t.Fatalf("second connect: %v", err)
	}

	stream.mu.Lock()
	n := len(stream.chs)
	stream.mu.Unlock()
	if n != 2 {
		t.Fatalf("expected two subscriptions opened, got %d", n)
	}
	if r.State() != StateConnected {
		t.Fatalf("expected connected after reconnect")
	}
	r.Close()
}

func TestEventLoop_DropFlipsState(t *testing.T) {
	t.Parallel()

	stream := &fakeStream{}
	r := NewReconciler(stream, &fakeSink{}, &fakeGate{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Dropping the upstream context closes the channel; the reconciler
	// must observe the flip on its own.
	cancel()

	deadline := time.After(2 * time.Second)
	for r.State() != StateDisconnected {
		select {
		case <-deadline:
			t.Fatalf("reconciler never flipped to disconnected")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
	"github.com/gabrieldeelay/jnducorte2/internal/testutil"
)

func testReservation(id string) domain.Reservation {
	return domain.Reservation{
		ID:            id,
		ClientName:    "Carlos Souza",
		ClientPhone:   "27999290483",
		ServiceLabel:  "Corte + Barba",
		StaffName:     "Jeilson Aprijo",
		ScheduledDate: "10/05/2025",
		ScheduledTime: "10:00",
		Price:         decimal.RequireFromString("60"),
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
		Status:        domain.StatusPending,
	}
}

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Create then Get round-trips including the price", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		want := testReservation("b1")
		if err := repo.Create(ctx, want); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.Get(ctx, "b1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.ClientName != want.ClientName || got.ScheduledDate != want.ScheduledDate {
			t.Fatalf("unexpected reservation: %+v", got)
		}
		if !got.Price.Equal(want.Price) {
			t.Fatalf("expected price %s, got %s", want.Price, got.Price)
		}
		if got.CompletedAt != nil {
			t.Fatalf("expected nil completedAt")
		}

		if _, err := repo.Get(ctx, "missing"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("second active write for the same slot loses", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.Create(ctx, testReservation("b1")); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.Create(ctx, testReservation("b2")); err != domain.ErrSlotTaken {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}

		// A cancelled occupant frees the slot again.
		if err := repo.UpdateStatus(ctx, "b1", domain.StatusCancelled, nil); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := repo.Create(ctx, testReservation("b2")); err != nil {
			t.Fatalf("expected the freed slot to accept, got %v", err)
		}
	})

	t.Run("BookedTimes skips cancelled and the sentinel", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		active := testReservation("b1")
		cancelled := testReservation("b2")
		cancelled.ScheduledTime = "11:00"
		cancelled.Status = domain.StatusCancelled
		testutil.InsertReservation(t, ctx, pool, active)
		testutil.InsertReservation(t, ctx, pool, cancelled)
		if err := repo.UpsertSentinel(ctx, domain.NewSentinel(domain.StatusCancelled)); err != nil {
			t.Fatalf("upsert sentinel: %v", err)
		}

		times, err := repo.BookedTimes(ctx, "10/05/2025", "Jeilson Aprijo")
		if err != nil {
			t.Fatalf("booked times: %v", err)
		}
		if len(times) != 1 || times[0] != "10:00" {
			t.Fatalf("expected [10:00], got %v", times)
		}
	})

	t.Run("GetAll excludes the sentinel, newest first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		older := testReservation("b1")
		newer := testReservation("b2")
		newer.ScheduledTime = "11:00"
		newer.CreatedAt = older.CreatedAt.Add(time.Minute)
		testutil.InsertReservation(t, ctx, pool, older)
		testutil.InsertReservation(t, ctx, pool, newer)
		if err := repo.UpsertSentinel(ctx, domain.NewSentinel(domain.StatusPending)); err != nil {
			t.Fatalf("upsert sentinel: %v", err)
		}

		all, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatalf("get all: %v", err)
		}
		if len(all) != 2 || all[0].ID != "b2" || all[1].ID != "b1" {
			t.Fatalf("expected [b2 b1], got %+v", all)
		}
	})

	t.Run("UpdateStatus stamps completed_at", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertReservation(t, ctx, pool, testReservation("b1"))

		done := time.Now().UTC().Truncate(time.Millisecond)
		if err := repo.UpdateStatus(ctx, "b1", domain.StatusCompleted, &done); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := repo.Get(ctx, "b1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != domain.StatusCompleted {
			t.Fatalf("expected completed, got %s", got.Status)
		}
		if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
			t.Fatalf("expected completedAt %v, got %v", done, got.CompletedAt)
		}

		if err := repo.UpdateStatus(ctx, "missing", domain.StatusCancelled, nil); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("Delete removes the row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertReservation(t, ctx, pool, testReservation("b1"))

		if err := repo.Delete(ctx, "b1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.Get(ctx, "b1"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, "b1"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound on re-delete, got %v", err)
		}
	})

	t.Run("sentinel upsert and read", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		rec, err := repo.GetSentinel(ctx)
		if err != nil {
			t.Fatalf("get sentinel: %v", err)
		}
		if rec != nil {
			t.Fatalf("expected no sentinel yet, got %+v", rec)
		}

		if err := repo.UpsertSentinel(ctx, domain.NewSentinel(domain.StatusCancelled)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := repo.UpsertSentinel(ctx, domain.NewSentinel(domain.StatusPending)); err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		rec, err = repo.GetSentinel(ctx)
		if err != nil {
			t.Fatalf("get sentinel: %v", err)
		}
		if rec == nil || rec.EffectiveStatus() != domain.StatusPending {
			t.Fatalf("expected pending sentinel, got %+v", rec)
		}

		// The sentinel never leaks into reservation reads.
		all, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatalf("get all: %v", err)
		}
		if len(all) != 0 {
			t.Fatalf("expected no reservations, got %+v", all)
		}
	})

	t.Run("writes survive a schema without completed_at", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := pool.Exec(ctx, `ALTER TABLE bookings DROP COLUMN completed_at`); err != nil {
			t.Fatalf("drop column: %v", err)
		}
		t.Cleanup(func() {
			if _, err := pool.Exec(context.Background(), `ALTER TABLE bookings ADD COLUMN completed_at TIMESTAMPTZ`); err != nil {
				t.Fatalf("restore column: %v", err)
			}
		})

		if err := repo.Create(ctx, testReservation("b1")); err != nil {
			t.Fatalf("create against the old schema: %v", err)
		}

		// The retried statement still runs through the unique index.
		if err := repo.Create(ctx, testReservation("b2")); err != domain.ErrSlotTaken {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}

		done := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, "b1", domain.StatusCompleted, &done); err != nil {
			t.Fatalf("update against the old schema: %v", err)
		}

		// Get selects completed_at, so read the status back directly.
		var status string
		if err := pool.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, "b1").Scan(&status); err != nil {
			t.Fatalf("read back: %v", err)
		}
		if status != string(domain.StatusCompleted) {
			t.Fatalf("expected completed, got %q", status)
		}
	})
}

func TestChangeFeed_DeliversRowChanges(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)
	testutil.TruncateAll(t, context.Background(), pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feed := NewChangeFeed(pool, nil)
	ch, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := repo.Create(ctx, testReservation("b1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Op != domain.OpInsert || ev.RecordID() != "b1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.New == nil || !ev.New.Price.Equal(decimal.RequireFromString("60")) {
			t.Fatalf("expected the row payload, got %+v", ev.New)
		}
	case <-ctx.Done():
		t.Fatalf("no insert event before timeout")
	}

	if err := repo.Delete(ctx, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Op != domain.OpDelete || ev.RecordID() != "b1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("no delete event before timeout")
	}
}

// Package sqlite is the on-device fallback store used when no Postgres
// DSN is configured. It keeps the same contract as the Postgres
// repository, minus the change feed: a single-process store has nothing
// to reconcile against.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	client_name TEXT NOT NULL,
	client_phone TEXT NOT NULL,
	service_label TEXT NOT NULL,
	staff_name TEXT NOT NULL,
	scheduled_date TEXT NOT NULL,
	scheduled_time TEXT NOT NULL,
	price TEXT NOT NULL,
	created_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT '',
	completed_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_slot_idx
ON bookings (staff_name, scheduled_date, scheduled_time)
WHERE status <> 'cancelled' AND id <> 'SHOP_STATUS_SETTINGS';
`

type Store struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the database at path. ":memory:"
// works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const reservationColumns = `id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var (
		rec         domain.Reservation
		priceStr    string
		createdAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.ClientName,
		&rec.ClientPhone,
		&rec.ServiceLabel,
		&rec.StaffName,
		&rec.ScheduledDate,
		&rec.ScheduledTime,
		&priceStr,
		&createdAt,
		&rec.Status,
		&completedAt,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	if rec.Price, err = decimal.NewFromString(priceStr); err != nil {
		return domain.Reservation{}, fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Reservation{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if completedAt.Valid {
		done, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return domain.Reservation{}, fmt.Errorf("parse completed_at %q: %w", completedAt.String, err)
		}
		rec.CompletedAt = &done
	}
	return rec, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE id <> ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, domain.SentinelID)
	if err != nil {
		return nil, fmt.Errorf("get all bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("get all bookings: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get all bookings: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE id = ? AND id <> ?`
	rec, err := scanReservation(s.db.QueryRowContext(ctx, query, id, domain.SentinelID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get booking: %w", err)
	}
	return rec, nil
}

func (s *Store) BookedTimes(ctx context.Context, date, staffName string) ([]string, error) {
	const query = `
SELECT scheduled_time FROM bookings
WHERE scheduled_date = ? AND staff_name = ? AND id <> ? AND status <> 'cancelled'`

	rows, err := s.db.QueryContext(ctx, query, date, staffName, domain.SentinelID)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("booked times: %w", err)
		}
		out = append(out, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, rec domain.Reservation) error {
	const stmt = `
INSERT INTO bookings (id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.ClientName,
		rec.ClientPhone,
		rec.ServiceLabel,
		rec.StaffName,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.Price.String(),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(rec.EffectiveStatus()),
		completedAtArg(rec.CompletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error {
	const stmt = `UPDATE bookings SET status = ?, completed_at = ? WHERE id = ? AND id <> ?`

	res, err := s.db.ExecContext(ctx, stmt, string(status), completedAtArg(completedAt), id, domain.SentinelID)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND id <> ?`, id, domain.SentinelID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (s *Store) GetSentinel(ctx context.Context) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM bookings WHERE id = ?`
	rec, err := scanReservation(s.db.QueryRowContext(ctx, query, domain.SentinelID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sentinel: %w", err)
	}
	return &rec, nil
}

func (s *Store) UpsertSentinel(ctx context.Context, rec domain.Reservation) error {
	const stmt = `
INSERT INTO bookings (id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET status = excluded.status`

	_, err := s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.ClientName,
		rec.ClientPhone,
		rec.ServiceLabel,
		rec.StaffName,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.Price.String(),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(rec.EffectiveStatus()),
	)
	if err != nil {
		return fmt.Errorf("upsert sentinel: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Seed inserts a sample reservation into an empty store so a fresh local
// setup shows a populated agenda.
func (s *Store) Seed(ctx context.Context, rec domain.Reservation) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id <> ?`, domain.SentinelID).Scan(&count); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.Create(ctx, rec)
}

func completedAtArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

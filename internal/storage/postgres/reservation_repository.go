package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// ReservationRepository persists reservations in the bookings table.
//
// Prices travel as text on both sides of the wire: pgx cannot scan NUMERIC
// into shopspring decimals directly, so selects cast to ::text and writes
// cast back with CAST(.. AS numeric).
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price::text, created_at, COALESCE(status, ''), completed_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		rec      domain.Reservation
		priceStr string
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
		&rec.CreatedAt,
		&rec.Status,
		&rec.CompletedAt,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	rec.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("parse price %q: %w", priceStr, err)
	}
	return rec, nil
}

func (r *ReservationRepository) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM bookings
WHERE id <> $1
ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, domain.SentinelID)
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

func (r *ReservationRepository) Get(ctx context.Context, id string) (domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM bookings
WHERE id = $1 AND id <> $2`

	rec, err := scanReservation(r.pool.QueryRow(ctx, query, id, domain.SentinelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get booking: %w", err)
	}
	return rec, nil
}

func (r *ReservationRepository) BookedTimes(ctx context.Context, date, staffName string) ([]string, error) {
	const query = `
SELECT scheduled_time
FROM bookings
WHERE scheduled_date = $1 AND staff_name = $2
  AND id <> $3
  AND COALESCE(NULLIF(status, ''), 'pending') <> 'cancelled'`

	rows, err := r.pool.Query(ctx, query, date, staffName, domain.SentinelID)
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

func (r *ReservationRepository) Create(ctx context.Context, rec domain.Reservation) error {
	const stmt = `
INSERT INTO bookings (id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS numeric), $9, $10, $11)`

	const stmtLegacy = `
INSERT INTO bookings (id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS numeric), $9, $10)`

	args := []any{
		rec.ID,
		rec.ClientName,
		rec.ClientPhone,
		rec.ServiceLabel,
		rec.StaffName,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.Price.String(),
		rec.CreatedAt,
		string(rec.EffectiveStatus()),
	}

	_, err := r.pool.Exec(ctx, stmt, append(args, rec.CompletedAt)...)
	if isUndefinedColumn(err) {
		// Older deployments predate completed_at. Retry without it so a
		// lagging schema never blocks writes.
		_, err = r.pool.Exec(ctx, stmtLegacy, args...)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error {
	const stmt = `
UPDATE bookings SET status = $2, completed_at = $3 WHERE id = $1 AND id <> $4`

	const stmtLegacy = `
UPDATE bookings SET status = $2 WHERE id = $1 AND id <> $3`

	tag, err := r.pool.Exec(ctx, stmt, id, string(status), completedAt, domain.SentinelID)
	if isUndefinedColumn(err) {
		tag, err = r.pool.Exec(ctx, stmtLegacy, id, string(status), domain.SentinelID)
	}
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	const stmt = `DELETE FROM bookings WHERE id = $1 AND id <> $2`

	tag, err := r.pool.Exec(ctx, stmt, id, domain.SentinelID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) GetSentinel(ctx context.Context) (*domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM bookings
WHERE id = $1`

	rec, err := scanReservation(r.pool.QueryRow(ctx, query, domain.SentinelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sentinel: %w", err)
	}
	return &rec, nil
}

func (r *ReservationRepository) UpsertSentinel(ctx context.Context, rec domain.Reservation) error {
	const stmt = `
INSERT INTO bookings (id, client_name, client_phone, service_label, staff_name,
scheduled_date, scheduled_time, price, created_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS numeric), $9, $10)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

	_, err := r.pool.Exec(ctx, stmt,
		rec.ID,
		rec.ClientName,
		rec.ClientPhone,
		rec.ServiceLabel,
		rec.StaffName,
		rec.ScheduledDate,
		rec.ScheduledTime,
		rec.Price.String(),
		rec.CreatedAt,
		string(rec.EffectiveStatus()),
	)
	if err != nil {
		return fmt.Errorf("upsert sentinel: %w", err)
	}
	return nil
}

func (r *ReservationRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42703"
}

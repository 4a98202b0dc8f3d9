package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

const changeChannel = "booking_changes"

// ChangeFeed streams row changes from the bookings table. A trigger calls
// pg_notify with the op and the affected row serialized as JSON; the feed
// holds one dedicated connection in LISTEN mode and decodes each payload
// into a domain change event.
type ChangeFeed struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewChangeFeed(pool *pgxpool.Pool, logger *log.Logger) *ChangeFeed {
	if logger == nil {
		logger = log.Default()
	}
	return &ChangeFeed{pool: pool, logger: logger}
}

// Subscribe starts listening and returns the event channel. The channel is
// closed when the connection drops or ctx ends; callers reconnect by
// subscribing again.
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", changeChannel, err)
	}

	ch := make(chan domain.ChangeEvent)
	go func() {
		defer close(ch)
		defer conn.Release()

		for {
			note, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Printf("changefeed: listen dropped: %v", err)
				}
				return
			}
			ev, err := decodeChange([]byte(note.Payload))
			if err != nil {
				f.logger.Printf("changefeed: bad payload: %v", err)
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// rowJSON mirrors row_to_json output for the bookings table.
type rowJSON struct {
	ID            string          `json:"id"`
	ClientName    string          `json:"client_name"`
	ClientPhone   string          `json:"client_phone"`
	ServiceLabel  string          `json:"service_label"`
	StaffName     string          `json:"staff_name"`
	ScheduledDate string          `json:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     time.Time       `json:"created_at"`
	Status        domain.Status   `json:"status"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

func (r *rowJSON) toDomain() *domain.Reservation {
	if r == nil {
		return nil
	}
	return &domain.Reservation{
		ID:            r.ID,
		ClientName:    r.ClientName,
		ClientPhone:   r.ClientPhone,
		ServiceLabel:  r.ServiceLabel,
		StaffName:     r.StaffName,
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		Price:         r.Price,
		CreatedAt:     r.CreatedAt,
		Status:        r.Status,
		CompletedAt:   r.CompletedAt,
	}
}

func decodeChange(payload []byte) (domain.ChangeEvent, error) {
	var raw struct {
		Op  string   `json:"op"`
		New *rowJSON `json:"new"`
		Old *rowJSON `json:"old"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode change payload: %w", err)
	}

	op := domain.ChangeOp(raw.Op)
	switch op {
	case domain.OpInsert, domain.OpUpdate, domain.OpDelete:
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unknown change op %q", raw.Op)
	}
	ev := domain.ChangeEvent{Op: op, New: raw.New.toDomain(), Old: raw.Old.toDomain()}
	if ev.RecordID() == "" {
		return domain.ChangeEvent{}, fmt.Errorf("change payload without a row")
	}
	return ev, nil
}

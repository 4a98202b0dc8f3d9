package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// SentinelID is the one reserved id in the bookings table. The record
// carrying it stores the shop open/closed state and must be treated as
// configuration, never as a booking: it is excluded from every listing,
// search and availability computation.
const SentinelID = "SHOP_STATUS_SETTINGS"

// Display layouts for the scheduled date and time columns. The store keeps
// them as formatted strings; everything that compares or orders reservations
// goes through ScheduledAt instead.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// Reservation is the only persisted entity. JSON field names are the wire
// contract shared with the store and every consumer.
type Reservation struct {
	ID            string          `json:"id"`
	ClientName    string          `json:"clientName"`
	ClientPhone   string          `json:"clientPhone"`
	ServiceLabel  string          `json:"serviceLabel"`
	StaffName     string          `json:"staffName"`
	ScheduledDate string          `json:"scheduledDate"`
	ScheduledTime string          `json:"scheduledTime"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     time.Time       `json:"createdAt"`
	Status        Status          `json:"status,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

func (r Reservation) IsSentinel() bool {
	return r.ID == SentinelID
}

// EffectiveStatus treats a missing status as pending. Rows written before the
// status column existed carry no value.
func (r Reservation) EffectiveStatus() Status {
	if r.Status == "" {
		return StatusPending
	}
	return r.Status
}

// ScheduledAt combines the display date and time strings into a single
// instant in loc.
func (r Reservation) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, r.ScheduledDate+" "+r.ScheduledTime, loc)
}

// ScheduledDay parses only the date part.
func (r Reservation) ScheduledDay(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.ScheduledDate, loc)
}

// NewSentinel builds the sentinel body written on every shop gate toggle.
// The filler fields keep older consumers of the bookings table happy; only
// the id and status carry meaning.
func NewSentinel(status Status) Reservation {
	return Reservation{
		ID:            SentinelID,
		ClientName:    "SYSTEM_SETTINGS",
		ClientPhone:   "00000000000",
		ServiceLabel:  "Shop Status Control",
		StaffName:     "System",
		ScheduledDate: "01/01/2099",
		ScheduledTime: "00:00",
		Price:         decimal.Zero,
		Status:        status,
	}
}

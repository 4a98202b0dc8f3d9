// Package finance computes realized and pending revenue over a calendar
// window. Attribution follows the effective-date rule: a completed record
// counts on its completion day, everything else on its scheduled day.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/catalog"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

type Window string

const (
	WindowToday  Window = "today"
	WindowLast7  Window = "last7"
	WindowLast30 Window = "last30"
	WindowCustom Window = "custom"
)

// Range carries the optional custom bounds. A nil From opens the window to
// the far past, a nil To to the far future, so future pending bookings stay
// visible without an explicit end date.
type Range struct {
	From *time.Time
	To   *time.Time
}

type StaffRevenue struct {
	StaffName string          `json:"staffName"`
	Realized  decimal.Decimal `json:"realized"`
	// Share is the percentage of the window's realized total, one decimal
	// place.
	Share decimal.Decimal `json:"share"`
}

type Summary struct {
	Window         Window          `json:"window"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Realized       decimal.Decimal `json:"realized"`
	Pending        decimal.Decimal `json:"pending"`
	CompletedCount int             `json:"completedCount"`
	PendingCount   int             `json:"pendingCount"`
	PerStaff       []StaffRevenue  `json:"perStaff"`
}

var (
	farPast   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	farFuture = time.Date(2999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Bounds resolves a window selector into an inclusive [from, to] full-day
// range in loc.
func Bounds(w Window, custom Range, now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := startOfDay(now.In(loc))
	switch w {
	case WindowLast7:
		return today.AddDate(0, 0, -6), endOfDay(today)
	case WindowLast30:
		return today.AddDate(0, 0, -29), endOfDay(today)
	case WindowCustom:
		from := farPast.In(loc)
		to := farFuture.In(loc)
		if custom.From != nil {
			from = startOfDay(custom.From.In(loc))
		}
		if custom.To != nil {
			to = custom.To.In(loc)
		}
		return from, endOfDay(to)
	default: // WindowToday
		return today, endOfDay(today)
	}
}

// EffectiveDate returns the day a record is attributed to. A booking
// scheduled in the past but completed later belongs to the completion day.
// Records whose scheduled date cannot be parsed fall outside every window.
func EffectiveDate(r domain.Reservation, loc *time.Location) (time.Time, bool) {
	if r.EffectiveStatus() == domain.StatusCompleted && r.CompletedAt != nil {
		return startOfDay(r.CompletedAt.In(loc)), true
	}
	day, err := r.ScheduledDay(loc)
	if err != nil {
		return time.Time{}, false
	}
	return startOfDay(day), true
}

// Summarize partitions the reservation list over the window. The sentinel
// and cancelled records never count. The per-staff share denominator floors
// at 1 so an empty window yields zero shares instead of a division by zero.
func Summarize(records []domain.Reservation, w Window, custom Range, now time.Time, loc *time.Location) Summary {
	from, to := Bounds(w, custom, now, loc)

	sum := Summary{
		Window:   w,
		From:     from,
		To:       to,
		Realized: decimal.Zero,
		Pending:  decimal.Zero,
	}
	byStaff := make(map[string]decimal.Decimal, len(catalog.Staffs))

	for _, r := range records {
		if r.IsSentinel() {
			continue
		}
		day, ok := EffectiveDate(r, loc)
		if !ok || day.Before(from) || day.After(to) {
			continue
		}
		switch r.EffectiveStatus() {
		case domain.StatusCompleted:
			sum.Realized = sum.Realized.Add(r.Price)
			sum.CompletedCount++
			byStaff[r.StaffName] = byStaff[r.StaffName].Add(r.Price)
		case domain.StatusPending:
			sum.Pending = sum.Pending.Add(r.Price)
			sum.PendingCount++
		}
	}

	denom := sum.Realized
	if denom.LessThanOrEqual(decimal.Zero) {
		denom = decimal.NewFromInt(1)
	}

	for _, staff := range catalog.Staffs {
		realized := byStaff[staff.Name]
		sum.PerStaff = append(sum.PerStaff, StaffRevenue{
			StaffName: staff.Name,
			Realized:  realized,
			Share:     realized.Div(denom).Mul(decimal.NewFromInt(100)).Round(1),
		})
	}
	return sum
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

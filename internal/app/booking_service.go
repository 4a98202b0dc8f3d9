package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/gabrieldeelay/jnducorte2/internal/availability"
	"github.com/gabrieldeelay/jnducorte2/internal/catalog"
	"github.com/gabrieldeelay/jnducorte2/internal/clock"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

const minPhoneDigits = 8

// BookingService orchestrates reservation creation, status transitions and
// the client self-service search.
type BookingService struct {
	store  Store
	mirror Mirror
	clock  clock.Clock
	loc    *time.Location
	logger *log.Logger
}

func NewBookingService(store Store, mirror Mirror, clk clock.Clock, loc *time.Location, logger *log.Logger) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BookingService{
		store:  store,
		mirror: mirror,
		clock:  clk,
		loc:    loc,
		logger: logger,
	}
}

type CreateInput struct {
	ClientName  string
	ClientPhone string
	ServiceIDs  []string
	StaffID     string
	Date        string // dd/mm/yyyy
	Time        string // HH:MM
}

// Create validates the draft, prices it and persists a pending reservation.
// Validation failures reject before any I/O. Availability is NOT re-checked
// here; the store's conditional write is what loses the race, surfacing
// ErrSlotTaken.
func (s *BookingService) Create(ctx context.Context, in CreateInput) (domain.Reservation, error) {
	services, staff, err := s.validate(in)
	if err != nil {
		return domain.Reservation{}, err
	}

	rec := domain.Reservation{
		ID:            uuid.NewString(),
		ClientName:    strings.TrimSpace(in.ClientName),
		ClientPhone:   strings.TrimSpace(in.ClientPhone),
		ServiceLabel:  catalog.CombinedLabel(services),
		StaffName:     staff.Name,
		ScheduledDate: in.Date,
		ScheduledTime: in.Time,
		Price:         catalog.TotalPrice(services),
		CreatedAt:     s.clock.Now(),
		Status:        domain.StatusPending,
	}

	// Optimistic entry first; creation failures roll it back.
	if s.mirror != nil {
		s.mirror.UpsertLocal(rec)
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if s.mirror != nil {
			s.mirror.RemoveLocal(rec.ID)
		}
		if err == domain.ErrSlotTaken {
			return domain.Reservation{}, err
		}
		return domain.Reservation{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return rec, nil
}

func (s *BookingService) validate(in CreateInput) ([]catalog.Service, catalog.Staff, error) {
	if len(in.ServiceIDs) == 0 {
		return nil, catalog.Staff{}, domain.ErrServiceRequired
	}
	services := make([]catalog.Service, 0, len(in.ServiceIDs))
	for _, id := range in.ServiceIDs {
		svc, ok := catalog.ServiceByID(id)
		if !ok {
			return nil, catalog.Staff{}, domain.ErrUnknownService
		}
		services = append(services, svc)
	}

	staff, ok := catalog.StaffByID(in.StaffID)
	if !ok {
		staff, ok = catalog.StaffByName(in.StaffID)
	}
	if !ok {
		return nil, catalog.Staff{}, domain.ErrUnknownStaff
	}

	date, err := time.ParseInLocation(domain.DateLayout, in.Date, s.loc)
	if err != nil {
		return nil, catalog.Staff{}, domain.ErrInvalidDate
	}
	if !availability.DateAllowed(staff, date) {
		return nil, catalog.Staff{}, domain.ErrInvalidDate
	}
	if !catalog.IsTimeLabel(in.Time) {
		return nil, catalog.Staff{}, domain.ErrInvalidTime
	}
	if strings.TrimSpace(in.ClientName) == "" {
		return nil, catalog.Staff{}, domain.ErrNameRequired
	}
	if len(NormalizePhone(in.ClientPhone)) < minPhoneDigits {
		return nil, catalog.Staff{}, domain.ErrPhoneRequired
	}
	return services, staff, nil
}

// Transition moves a pending reservation into one of the two terminal
// states. The optimistic in-memory update is applied first and deliberately
// kept when the remote write fails: the next full reload or live event for
// the id corrects it.
func (s *BookingService) Transition(ctx context.Context, id string, to domain.Status) (domain.Reservation, error) {
	if to != domain.StatusCompleted && to != domain.StatusCancelled {
		return domain.Reservation{}, domain.ErrInvalidStatus
	}
	if id == domain.SentinelID {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}

	// Resolve against the mirror first: a store outage must not block the
	// optimistic path for a record the list already shows.
	current, ok := domain.Reservation{}, false
	if s.mirror != nil {
		current, ok = s.mirror.Lookup(id)
	}
	if !ok {
		var err error
		current, err = s.store.Get(ctx, id)
		if err != nil {
			if err == domain.ErrReservationNotFound {
				return domain.Reservation{}, err
			}
			return domain.Reservation{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	if current.EffectiveStatus() != domain.StatusPending {
		return domain.Reservation{}, domain.ErrAlreadyFinalized
	}

	updated := current
	updated.Status = to
	if to == domain.StatusCompleted {
		now := s.clock.Now()
		updated.CompletedAt = &now
	}

	if s.mirror != nil {
		s.mirror.UpsertLocal(updated)
	}
	if err := s.store.UpdateStatus(ctx, id, to, updated.CompletedAt); err != nil {
		s.logger.Printf("booking: status persist failed id=%s to=%s: %v", id, to, err)
		return updated, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return updated, nil
}

// Delete removes a reservation for good. Like transitions, the optimistic
// removal is kept on persistence failure.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if id == domain.SentinelID {
		return domain.ErrReservationNotFound
	}
	if s.mirror != nil {
		s.mirror.RemoveLocal(id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if err == domain.ErrReservationNotFound {
			return err
		}
		s.logger.Printf("booking: delete persist failed id=%s: %v", id, err)
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// List is the full reload: it refreshes the mirror and the known-id
// snapshot that gates duplicate alerts.
func (s *BookingService) List(ctx context.Context) ([]domain.Reservation, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if s.mirror != nil {
		s.mirror.Reload(records)
	}
	return records, nil
}

// Search matches reservations by normalized phone substring, newest-created
// first. Partial and prefix queries are expected from the no-login client
// flow.
func (s *BookingService) Search(ctx context.Context, phone string) ([]domain.Reservation, error) {
	query := NormalizePhone(phone)
	if query == "" {
		return nil, domain.ErrPhoneRequired
	}

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	var found []domain.Reservation
	for _, r := range records {
		if strings.Contains(NormalizePhone(r.ClientPhone), query) {
			found = append(found, r)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})
	return found, nil
}

// Availability resolves the bookable grid for one (staff, date) pair.
func (s *BookingService) Availability(ctx context.Context, dateStr, staffID string) ([]availability.Slot, error) {
	staff, ok := catalog.StaffByID(staffID)
	if !ok {
		staff, ok = catalog.StaffByName(staffID)
	}
	if !ok {
		return nil, domain.ErrUnknownStaff
	}
	date, err := time.ParseInLocation(domain.DateLayout, dateStr, s.loc)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	booked, err := s.store.BookedTimes(ctx, dateStr, staff.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return availability.Day(date, staff, booked, s.clock.Now().In(s.loc)), nil
}

// SelectableDates lists the calendar days currently offered for a staff
// member.
func (s *BookingService) SelectableDates(staffID string) ([]time.Time, error) {
	staff, ok := catalog.StaffByID(staffID)
	if !ok {
		return nil, domain.ErrUnknownStaff
	}
	return availability.Dates(staff, s.clock.Now().In(s.loc), catalog.SelectableDays), nil
}

// NormalizePhone strips everything but digits for matching.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

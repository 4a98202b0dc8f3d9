package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gabrieldeelay/jnducorte2/internal/availability"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// AvailabilityService resolves bookable slots and selectable dates.
type AvailabilityService interface {
	Availability(ctx context.Context, date, staffID string) ([]availability.Slot, error)
	SelectableDates(staffID string) ([]time.Time, error)
}

type availabilityResponse struct {
	Date  string              `json:"date"`
	Staff string              `json:"staff"`
	Slots []availability.Slot `json:"slots"`
}

// HandleAvailability returns the slot grid for one staff member and date.
func HandleAvailability(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		staffID := r.URL.Query().Get("staff")

		slots, err := svc.Availability(r.Context(), date, staffID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{Date: date, Staff: staffID, Slots: slots})
	}
}

type datesResponse struct {
	Staff string   `json:"staff"`
	Dates []string `json:"dates"`
}

// HandleSelectableDates returns the upcoming dates a staff member works.
func HandleSelectableDates(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID := r.URL.Query().Get("staff")

		dates, err := svc.SelectableDates(staffID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		labels := make([]string, 0, len(dates))
		for _, d := range dates {
			labels = append(labels, d.Format(domain.DateLayout))
		}
		writeJSON(w, http.StatusOK, datesResponse{Staff: staffID, Dates: labels})
	}
}

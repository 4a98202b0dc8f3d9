package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gabrieldeelay/jnducorte2/internal/app"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

// BookingCreator is the minimal interface needed to create a reservation.
type BookingCreator interface {
	Create(ctx context.Context, in app.CreateInput) (domain.Reservation, error)
}

// BookingReader lists and searches reservations.
type BookingReader interface {
	List(ctx context.Context) ([]domain.Reservation, error)
	Search(ctx context.Context, phone string) ([]domain.Reservation, error)
}

// BookingUpdater finalizes or removes reservations.
type BookingUpdater interface {
	Transition(ctx context.Context, id string, to domain.Status) (domain.Reservation, error)
	Delete(ctx context.Context, id string) error
}

type createBookingRequest struct {
	ClientName  string   `json:"clientName"`
	ClientPhone string   `json:"clientPhone"`
	ServiceIDs  []string `json:"serviceIds"`
	StaffID     string   `json:"staffId"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
}

// HandleCreateBooking returns an HTTP handler for the public booking flow.
func HandleCreateBooking(svc BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		rec, err := svc.Create(r.Context(), app.CreateInput{
			ClientName:  req.ClientName,
			ClientPhone: req.ClientPhone,
			ServiceIDs:  req.ServiceIDs,
			StaffID:     req.StaffID,
			Date:        req.Date,
			Time:        req.Time,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// HandleListBookings returns the full agenda, newest first.
func HandleListBookings(svc BookingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if records == nil {
			records = []domain.Reservation{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// HandleSearchBookings is the client self-service lookup by phone.
func HandleSearchBookings(svc BookingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.Search(r.Context(), r.URL.Query().Get("phone"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if records == nil {
			records = []domain.Reservation{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

type transitionRequest struct {
	Status string `json:"status"`
}

// HandleTransitionBooking moves a reservation to completed or cancelled.
func HandleTransitionBooking(svc BookingUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transitionRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		rec, err := svc.Transition(r.Context(), chi.URLParam(r, "id"), domain.Status(req.Status))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleDeleteBooking removes a reservation permanently.
func HandleDeleteBooking(svc BookingUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCancelOwnBooking lets a client cancel a reservation found through
// the phone search. The phone must match the reservation on file.
func HandleCancelOwnBooking(reader BookingReader, updater BookingUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		phone := app.NormalizePhone(r.URL.Query().Get("phone"))
		if phone == "" {
			writeError(w, http.StatusBadRequest, codePhoneRequired, domain.ErrPhoneRequired.Error())
			return
		}

		records, err := reader.Search(r.Context(), phone)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		owned := false
		for _, rec := range records {
			if rec.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			writeError(w, http.StatusNotFound, codeBookingNotFound, domain.ErrReservationNotFound.Error())
			return
		}

		rec, err := updater.Transition(r.Context(), id, domain.StatusCancelled)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

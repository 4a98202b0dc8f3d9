package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeServiceRequired    = "service_required"
	codeUnknownService     = "unknown_service"
	codeUnknownStaff       = "unknown_staff"
	codeInvalidDate        = "invalid_date"
	codeInvalidTime        = "invalid_time"
	codeNameRequired       = "name_required"
	codePhoneRequired      = "phone_required"
	codeInvalidStatus      = "invalid_status"
	codeBookingNotFound    = "booking_not_found"
	codeAlreadyFinalized   = "already_finalized"
	codeSlotTaken          = "slot_taken"
	codeStoreUnavailable   = "store_unavailable"
	codeUnauthorized       = "unauthorized"
	codeRateLimited        = "rate_limited"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps domain errors onto HTTP statuses and stable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrServiceRequired):
		writeError(w, http.StatusBadRequest, codeServiceRequired, err.Error())
	case errors.Is(err, domain.ErrUnknownService):
		writeError(w, http.StatusBadRequest, codeUnknownService, err.Error())
	case errors.Is(err, domain.ErrUnknownStaff):
		writeError(w, http.StatusBadRequest, codeUnknownStaff, err.Error())
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, codeInvalidDate, err.Error())
	case errors.Is(err, domain.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, codeInvalidTime, err.Error())
	case errors.Is(err, domain.ErrNameRequired):
		writeError(w, http.StatusBadRequest, codeNameRequired, err.Error())
	case errors.Is(err, domain.ErrPhoneRequired):
		writeError(w, http.StatusBadRequest, codePhoneRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeBookingNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, codeAlreadyFinalized, err.Error())
	case errors.Is(err, domain.ErrSlotTaken):
		writeError(w, http.StatusConflict, codeSlotTaken, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package http

import (
	"context"
	"net/http"
)

// GateService exposes the shop open/closed switch.
type GateService interface {
	IsOpen() bool
	Toggle(ctx context.Context) (bool, error)
}

type shopStatusResponse struct {
	Open bool `json:"open"`
}

// HandleShopStatus reports whether the shop accepts new reservations.
func HandleShopStatus(gate GateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, shopStatusResponse{Open: gate.IsOpen()})
	}
}

// HandleShopToggle flips the gate. Admin only.
func HandleShopToggle(gate GateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := gate.Toggle(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shopStatusResponse{Open: open})
	}
}

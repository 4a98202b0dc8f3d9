package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/catalog"
)

type serviceResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration int             `json:"duration"`
	Category string          `json:"category"`
	Popular  bool            `json:"popular,omitempty"`
}

type staffResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleCatalogServices lists the bookable services.
func HandleCatalogServices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := make([]serviceResponse, 0, len(catalog.Services))
		for _, svc := range catalog.Services {
			resp = append(resp, serviceResponse{
				ID:       svc.ID,
				Name:     svc.Name,
				Price:    svc.Price,
				Duration: svc.Duration,
				Category: string(svc.Category),
				Popular:  svc.Popular,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCatalogStaff lists the bookable staff members.
func HandleCatalogStaff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := make([]staffResponse, 0, len(catalog.Staffs))
		for _, member := range catalog.Staffs {
			resp = append(resp, staffResponse{ID: member.ID, Name: member.Name})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCatalogTimes lists the fixed slot grid.
func HandleCatalogTimes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.TimeLabels)
	}
}

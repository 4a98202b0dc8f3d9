package http

import (
	"net/http"
	"time"

	"github.com/gabrieldeelay/jnducorte2/internal/clock"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
	"github.com/gabrieldeelay/jnducorte2/internal/finance"
)

// HandleFinanceSummary aggregates revenue over a reporting window.
// Custom bounds come as dd/mm/yyyy query params; either side may be
// omitted for an open-ended range.
func HandleFinanceSummary(svc BookingReader, clk clock.Clock, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		window := finance.Window(q.Get("window"))
		if window == "" {
			window = finance.WindowToday
		}
		switch window {
		case finance.WindowToday, finance.WindowLast7, finance.WindowLast30, finance.WindowCustom:
		default:
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unknown window")
			return
		}

		var custom finance.Range
		if window == finance.WindowCustom {
			if raw := q.Get("from"); raw != "" {
				from, err := time.ParseInLocation(domain.DateLayout, raw, loc)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidDate, domain.ErrInvalidDate.Error())
					return
				}
				custom.From = &from
			}
			if raw := q.Get("to"); raw != "" {
				to, err := time.ParseInLocation(domain.DateLayout, raw, loc)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidDate, domain.ErrInvalidDate.Error())
					return
				}
				custom.To = &to
			}
		}

		records, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, finance.Summarize(records, window, custom, clk.Now(), loc))
	}
}

package http

import (
	"log"
	"net/http"

	"github.com/gabrieldeelay/jnducorte2/internal/export"
)

// HandleExportCSV streams the agenda as a CSV download. Admin only.
func HandleExportCSV(svc BookingReader, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="agendamentos.csv"`)
		if err := export.WriteCSV(w, records, r.URL.Query().Get("q")); err != nil {
			// Headers are gone already; all we can do is record the break.
			logger.Printf("csv export aborted: %v", err)
		}
	}
}

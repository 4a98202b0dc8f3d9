// Package export renders the agenda as spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

var header = []string{"id", "date", "time", "client", "service", "staff", "price", "status"}

// WriteCSV writes the reservations matching filter, semicolon-separated
// with a decimal comma in the price. Both choices target pt-BR Excel
// defaults. An empty filter exports everything; sentinel rows never
// export.
func WriteCSV(w io.Writer, records []domain.Reservation, filter string) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return err
	}
	needle := strings.ToLower(strings.TrimSpace(filter))
	for _, rec := range records {
		if rec.IsSentinel() {
			continue
		}
		if needle != "" && !matches(rec, needle) {
			continue
		}
		row := []string{
			rec.ID,
			rec.ScheduledDate,
			rec.ScheduledTime,
			rec.ClientName,
			rec.ServiceLabel,
			rec.StaffName,
			strings.ReplaceAll(rec.Price.StringFixed(2), ".", ","),
			string(rec.EffectiveStatus()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func matches(rec domain.Reservation, needle string) bool {
	for _, field := range []string{
		rec.ClientName,
		rec.ClientPhone,
		rec.ServiceLabel,
		rec.StaffName,
		rec.ScheduledDate,
		string(rec.EffectiveStatus()),
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

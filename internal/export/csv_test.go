package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/domain"
)

func sample() []domain.Reservation {
	return []domain.Reservation{
		{
			ID:            "b1",
			ClientName:    "Carlos Souza",
			ClientPhone:   "27999290483",
			ServiceLabel:  "Corte + Barba",
			StaffName:     "Jeilson Aprijo",
			ScheduledDate: "10/05/2025",
			ScheduledTime: "10:00",
			Price:         decimal.RequireFromString("60"),
			CreatedAt:     time.Date(2025, 5, 9, 10, 0, 0, 0, time.UTC),
			Status:        domain.StatusCompleted,
		},
		{
			ID:            "b2",
			ClientName:    "Pedro Lima",
			ClientPhone:   "11988887777",
			ServiceLabel:  "Barba",
			StaffName:     "Igor Barbosa",
			ScheduledDate: "11/05/2025",
			ScheduledTime: "14:30",
			Price:         decimal.RequireFromString("25"),
		},
		domain.NewSentinel(domain.StatusCancelled),
	}
}

func TestWriteCSV(t *testing.T) {
	t.Run("formats rows with semicolons and decimal comma", func(t *testing.T) {
		var sb strings.Builder
		if err := WriteCSV(&sb, sample(), ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d: %q", len(lines), sb.String())
		}
		if lines[0] != "id;date;time;client;service;staff;price;status" {
			t.Fatalf("unexpected header: %q", lines[0])
		}
		if lines[1] != "b1;10/05/2025;10:00;Carlos Souza;Corte + Barba;Jeilson Aprijo;60,00;completed" {
			t.Fatalf("unexpected row: %q", lines[1])
		}
		// Blank status exports as pending.
		if !strings.HasSuffix(lines[2], ";25,00;pending") {
			t.Fatalf("unexpected row: %q", lines[2])
		}
	})

	t.Run("sentinel never exports", func(t *testing.T) {
		var sb strings.Builder
		if err := WriteCSV(&sb, sample(), ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(sb.String(), domain.SentinelID) {
			t.Fatalf("sentinel row leaked: %q", sb.String())
		}
	})

	t.Run("filter matches across fields, case-insensitive", func(t *testing.T) {
		tests := []struct {
			filter string
			want   int
		}{
			{"carlos", 1},
			{"barba", 2},
			{"IGOR", 1},
			{"10/05", 1},
			{"nomatch", 0},
		}
		for _, tc := range tests {
			var sb strings.Builder
			if err := WriteCSV(&sb, sample(), tc.filter); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			rows := strings.Count(strings.TrimRight(sb.String(), "\n"), "\n")
			if rows != tc.want {
				t.Fatalf("filter %q: expected %d rows, got %d", tc.filter, tc.want, rows)
			}
		}
	})
}

// Package catalog holds the fixed service menu, staff roster and time grid.
// The shop runs on a closed catalog: bookings reference these entries by id
// and validation rejects anything outside them.
package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryCutsAndFace Category = "cortes_rosto"
	CategoryChemistry   Category = "quimica_estilo"
)

type Service struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration int             `json:"duration"` // minutes
	Category Category        `json:"category"`
	Popular  bool            `json:"popular,omitempty"`
}

type Staff struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	// Weekday restricts the staff member to a single bookable weekday.
	// Nil means every day.
	Weekday *time.Weekday `json:"-"`
}

const (
	// SundayCutoffHour closes Sundays early: labels at or after this hour
	// are never bookable on a Sunday.
	SundayCutoffHour = 12
	// BookingBuffer is the minimum lead time for same-day bookings.
	BookingBuffer = 30 * time.Minute
	// SelectableDays is how far ahead clients can book.
	SelectableDays = 14
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var saturday = time.Saturday

var Staffs = []Staff{
	{ID: "jeilson", Name: "Jeilson Aprijo", AvatarURL: "https://i.ibb.co/PGNc6PTy/jn.png"},
	{ID: "igor", Name: "Igor Aprijo", AvatarURL: "https://i.ibb.co/XkMjqBQL/ig.png"},
	{ID: "marcos", Name: "Marcos Daniel", AvatarURL: "https://i.ibb.co/Q7NkgdBr/MD.png", Weekday: &saturday},
}

var Services = []Service{
	{ID: "corte", Name: "Corte", Price: price("35"), Duration: 30, Category: CategoryCutsAndFace, Popular: true},
	{ID: "sobrancelha", Name: "Sobrancelha", Price: price("10"), Duration: 15, Category: CategoryCutsAndFace},
	{ID: "acabamento", Name: "Acabamento / Pezinho", Price: price("10"), Duration: 15, Category: CategoryCutsAndFace},
	{ID: "limpeza_pele", Name: "Limpeza de Pele", Price: price("15"), Duration: 20, Category: CategoryCutsAndFace},
	{ID: "barba", Name: "Barba", Price: price("25"), Duration: 30, Category: CategoryCutsAndFace},
	{ID: "corte_infantil", Name: "Corte Infantil", Price: price("40"), Duration: 30, Category: CategoryCutsAndFace},
	{ID: "corte_tesoura", Name: "Corte na Tesoura", Price: price("40"), Duration: 40, Category: CategoryCutsAndFace},
	{ID: "nevou", Name: "Nevou (Platinado)", Price: price("130"), Duration: 120, Category: CategoryChemistry, Popular: true},
	{ID: "pigmentacao", Name: "Pigmentação", Price: price("25"), Duration: 30, Category: CategoryChemistry},
	{ID: "luzes", Name: "Luzes", Price: price("80"), Duration: 90, Category: CategoryChemistry},
	{ID: "reflexo", Name: "Reflexo Alinhado", Price: price("100"), Duration: 120, Category: CategoryChemistry},
	{ID: "consultoria", Name: "Consultoria Vip", Price: price("100"), Duration: 60, Category: CategoryChemistry},
	{ID: "colorimetria", Name: "Colorimetria", Price: price("130"), Duration: 120, Category: CategoryChemistry},
}

// TimeLabels is the fixed ordered business-day grid: half-hour steps from
// open to the last bookable slot.
var TimeLabels = []string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"12:00", "12:30", "13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00", "17:30", "18:00", "18:30", "19:00", "19:30",
}

func ServiceByID(id string) (Service, bool) {
	for _, s := range Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

func StaffByID(id string) (Staff, bool) {
	for _, s := range Staffs {
		if s.ID == id {
			return s, true
		}
	}
	return Staff{}, false
}

func StaffByName(name string) (Staff, bool) {
	for _, s := range Staffs {
		if s.Name == name {
			return s, true
		}
	}
	return Staff{}, false
}

func IsTimeLabel(label string) bool {
	for _, l := range TimeLabels {
		if l == label {
			return true
		}
	}
	return false
}

// CombinedLabel joins service names the way the summary screen shows them.
func CombinedLabel(services []Service) string {
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	return strings.Join(names, " + ")
}

// TotalPrice sums the selected service prices.
func TotalPrice(services []Service) decimal.Decimal {
	total := decimal.Zero
	for _, s := range services {
		total = total.Add(s.Price)
	}
	return total
}

package scheduling

import (
	"fmt"

	"github.com/sakif/gobarber/internal/model"
)

// NoonHour splits the day: hours before it are morning, the rest afternoon.
const NoonHour = 12

// Slot is a bookable hour ready for display.
type Slot struct {
	Hour      int
	Label     string // "HH:00"
	Available bool
	Selected  bool
}

// Partition splits slots into morning (hour < 12) and afternoon (hour >= 12),
// keeping the server's order inside each half. selected marks the chosen
// hour; pass -1 for none.
func Partition(slots []model.DayAvailabilitySlot, selected int) (morning, afternoon []Slot) {
	for _, s := range slots {
		out := Slot{
			Hour:      s.Hour,
			Label:     hourLabel(s.Hour),
			Available: s.Available,
			Selected:  s.Hour == selected,
		}
		if s.Hour < NoonHour {
			morning = append(morning, out)
		} else {
			afternoon = append(afternoon, out)
		}
	}
	return morning, afternoon
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

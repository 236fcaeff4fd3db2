package scheduling

import (
	"fmt"
	"time"

	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/navigation"
)

// Confirmation is the outcome of a successful booking.
type Confirmation struct {
	Date        time.Time
	Appointment *model.Appointment
}

// Text is the sentence shown on the confirmation screen.
func (c *Confirmation) Text() string {
	return FormatConfirmation(c.Date)
}

// Done sends the user back to a fresh dashboard.
func (c *Confirmation) Done(nav navigation.Navigator) {
	nav.Reset(navigation.RouteDashboard)
}

var weekdaysPtBR = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var monthsPtBR = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatConfirmation renders t as
// "sexta-feira, dia 01 de março de 2024 às 14:00h".
func FormatConfirmation(t time.Time) string {
	return fmt.Sprintf("%s, dia %02d de %s de %d às %02d:00h",
		weekdaysPtBR[t.Weekday()],
		t.Day(),
		monthsPtBR[t.Month()-1],
		t.Year(),
		t.Hour(),
	)
}

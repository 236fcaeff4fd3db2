package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/repository"
)

var _ repository.AppointmentRepository = (*DB)(nil)

func (db *DB) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	appt.ID = xid.New().String()
	appt.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO appointments (id, provider_id, user_id, date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		appt.ID,
		appt.ProviderID,
		appt.UserID,
		appt.Date.Unix(),
		appt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("appointment", appt.Date.Format(time.RFC3339))
		}
		return fmt.Errorf("sqlite: inserting appointment: %w", err)
	}
	return nil
}

func (db *DB) ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, provider_id, user_id, date, created_at FROM appointments
		 WHERE provider_id = ? AND date >= ? AND date < ?
		 ORDER BY date`,
		providerID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing appointments for %s: %w", providerID, err)
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		var (
			a    model.Appointment
			unix int64
		)
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.UserID, &unix, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning appointment: %w", err)
		}
		a.Date = time.Unix(unix, 0).UTC()
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating appointments: %w", err)
	}
	return appts, nil
}

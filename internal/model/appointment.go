package model

import (
	"encoding/json"
	"time"
)

// Provider is a barber that can be booked. The client treats it as a read-only
// snapshot; list order is whatever the server returned.
type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// DayAvailabilitySlot says whether a given hour (0-23) can still be booked.
type DayAvailabilitySlot struct {
	Hour      int  `json:"hour"`
	Available bool `json:"available"`
}

// UnmarshalJSON accepts both "available" and "availability" as the flag key.
func (s *DayAvailabilitySlot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Hour         int   `json:"hour"`
		Available    *bool `json:"available"`
		Availability *bool `json:"availability"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Hour = raw.Hour
	switch {
	case raw.Available != nil:
		s.Available = *raw.Available
	case raw.Availability != nil:
		s.Available = *raw.Availability
	default:
		s.Available = false
	}
	return nil
}

// Appointment is a booked slot.
type Appointment struct {
	ID         string    `json:"id"          db:"id"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	Date       time.Time `json:"date"        db:"date"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Selection is the in-progress scheduling choice. Hour 0 doubles as the
// "nothing selected" sentinel.
type Selection struct {
	ProviderID string
	Date       time.Time
	Hour       int
}

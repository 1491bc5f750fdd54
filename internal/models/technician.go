package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOnJob     AvailabilityStatus = "on_job"
	AvailabilityOffDuty   AvailabilityStatus = "off_duty"
)

func ValidAvailabilityStatus(s AvailabilityStatus) bool {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOnJob, AvailabilityOffDuty:
		return true
	}
	return false
}

// DayHours is one weekday entry of the working-hours map.
type DayHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// WorkingHours maps lowercase weekday names to hours.
type WorkingHours map[string]DayHours

// Weekdays in seeding order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WithDefaults fills every missing weekday with the default 09:00-17:00
// enabled entry.
func (wh WorkingHours) WithDefaults() WorkingHours {
	out := WorkingHours{}
	for _, day := range Weekdays {
		if h, ok := wh[day]; ok {
			out[day] = h
			continue
		}
		out[day] = DayHours{Enabled: true, Start: "09:00", End: "17:00"}
	}
	return out
}

type TechnicianProfile struct {
	bun.BaseModel `bun:"table:technician_profiles"`

	UserID             string             `json:"user_id" bun:"user_id,pk"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status" bun:"availability_status"`
	ServiceRadius      float64            `json:"service_radius" bun:"service_radius"`
	MaxDailyBookings   int                `json:"max_daily_bookings" bun:"max_daily_bookings"`
	HomeLatitude       float64            `json:"home_latitude" bun:"home_latitude"`
	HomeLongitude      float64            `json:"home_longitude" bun:"home_longitude"`
	WorkingHours       WorkingHours       `json:"working_hours" bun:"working_hours,type:jsonb"`
	UpdatedAt          time.Time          `json:"updated_at" bun:"updated_at"`
}

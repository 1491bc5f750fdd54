package technician

import (
	"errors"
	"fmt"
	"time"

	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	techdb "cleanserve/internal/technician/db"
)

var (
	ErrInvalidAvailability = errors.New("unknown availability status")
	ErrInvalidRadius       = errors.New("service radius must be greater than zero")
	ErrInvalidLimit        = errors.New("max daily bookings must be greater than zero")
	ErrInvalidHours        = errors.New("working hours entry is malformed")
)

type TechnicianDBLayer interface {
	GetProfile(userID string) (*models.TechnicianProfile, error)
	CreateProfile(profile models.TechnicianProfile) error
	UpdateProfile(profile models.TechnicianProfile) error
}

type TechnicianService struct {
	DB     TechnicianDBLayer
	Logger *logger.Logger
}

func NewTechnicianService(db TechnicianDBLayer, log *logger.Logger) *TechnicianService {
	return &TechnicianService{DB: db, Logger: log}
}

// ProfileInput is the full replacement payload for a technician profile.
type ProfileInput struct {
	AvailabilityStatus models.AvailabilityStatus `json:"availability_status" validate:"required"`
	ServiceRadius      float64                   `json:"service_radius" validate:"required,gt=0"`
	MaxDailyBookings   int                       `json:"max_daily_bookings" validate:"required,gt=0"`
	HomeLatitude       float64                   `json:"home_latitude" validate:"gte=-90,lte=90"`
	HomeLongitude      float64                   `json:"home_longitude" validate:"gte=-180,lte=180"`
	WorkingHours       models.WorkingHours       `json:"working_hours"`
}

// GetProfile returns the technician's stored profile, seeding a default
// one on first access so the app never sees an empty schedule.
func (s *TechnicianService) GetProfile(userID string) (*models.TechnicianProfile, error) {
	profile, err := s.DB.GetProfile(userID)
	if err == nil {
		profile.WorkingHours = profile.WorkingHours.WithDefaults()
		return profile, nil
	}
	if !errors.Is(err, techdb.ErrNotFound) {
		return nil, err
	}

	seeded := models.TechnicianProfile{
		UserID:             userID,
		AvailabilityStatus: models.AvailabilityAvailable,
		ServiceRadius:      10,
		MaxDailyBookings:   8,
		WorkingHours:       models.WorkingHours{}.WithDefaults(),
		UpdatedAt:          time.Now(),
	}
	if err := s.DB.CreateProfile(seeded); err != nil {
		return nil, err
	}
	s.Logger.Info("TECHNICIAN", fmt.Sprintf("seeded default profile for %s", userID))
	return &seeded, nil
}

// UpdateProfile replaces the profile wholesale. Missing weekdays in the
// submitted working hours are filled with defaults.
func (s *TechnicianService) UpdateProfile(userID string, in ProfileInput) (*models.TechnicianProfile, error) {
	if !models.ValidAvailabilityStatus(in.AvailabilityStatus) {
		return nil, ErrInvalidAvailability
	}
	if in.ServiceRadius <= 0 {
		return nil, ErrInvalidRadius
	}
	if in.MaxDailyBookings <= 0 {
		return nil, ErrInvalidLimit
	}
	for day, hours := range in.WorkingHours {
		if !validWeekday(day) {
			return nil, ErrInvalidHours
		}
		if hours.Enabled && (hours.Start == "" || hours.End == "") {
			return nil, ErrInvalidHours
		}
	}

	// Ensure a row exists before updating.
	if _, err := s.GetProfile(userID); err != nil {
		return nil, err
	}

	profile := models.TechnicianProfile{
		UserID:             userID,
		AvailabilityStatus: in.AvailabilityStatus,
		ServiceRadius:      in.ServiceRadius,
		MaxDailyBookings:   in.MaxDailyBookings,
		HomeLatitude:       in.HomeLatitude,
		HomeLongitude:      in.HomeLongitude,
		WorkingHours:       in.WorkingHours.WithDefaults(),
		UpdatedAt:          time.Now(),
	}
	if err := s.DB.UpdateProfile(profile); err != nil {
		return nil, err
	}
	s.Logger.Info("TECHNICIAN", fmt.Sprintf("profile updated for %s, availability %s", userID, in.AvailabilityStatus))
	return &profile, nil
}

func validWeekday(day string) bool {
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("technician profile not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetProfile(userID string) (*models.TechnicianProfile, error) {
	var profile models.TechnicianProfile
	err := d.Bun.NewSelect().
		Model(&profile).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (d *DB) CreateProfile(profile models.TechnicianProfile) error {
	_, err := d.Bun.NewInsert().Model(&profile).Exec(context.Background())
	return err
}

func (d *DB) UpdateProfile(profile models.TechnicianProfile) error {
	_, err := d.Bun.NewUpdate().
		Model(&profile).
		Column("availability_status", "service_radius", "max_daily_bookings",
			"home_latitude", "home_longitude", "working_hours", "updated_at").
		Where("user_id = ?", profile.UserID).
		Exec(context.Background())
	return err
}

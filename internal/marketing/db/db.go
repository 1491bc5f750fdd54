package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("settings not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetSettings() (*models.MarketingSettings, error) {
	var settings models.MarketingSettings
	err := d.Bun.NewSelect().
		Model(&settings).
		Where("id = ?", models.MarketingSettingsID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (d *DB) CreateSettings(settings models.MarketingSettings) error {
	_, err := d.Bun.NewInsert().Model(&settings).Exec(context.Background())
	return err
}

func (d *DB) UpdateSettings(settings models.MarketingSettings) error {
	_, err := d.Bun.NewUpdate().
		Model(&settings).
		Column("coupons_enabled", "credits_enabled", "referrals_enabled",
			"loyalty_enabled", "updated_at", "updated_by").
		Where("id = ?", models.MarketingSettingsID).
		Exec(context.Background())
	return err
}

package marketing

import (
	"errors"
	"time"

	marketingdb "cleanserve/internal/marketing/db"
	"cleanserve/internal/models"
)

type MarketingDBLayer interface {
	GetSettings() (*models.MarketingSettings, error)
	CreateSettings(settings models.MarketingSettings) error
	UpdateSettings(settings models.MarketingSettings) error
}

type MarketingService struct {
	DB MarketingDBLayer
}

func NewMarketingService(db MarketingDBLayer) *MarketingService {
	return &MarketingService{DB: db}
}

// GetSettings returns the singleton row, creating it with every subsystem
// enabled on first read.
func (s *MarketingService) GetSettings() (*models.MarketingSettings, error) {
	settings, err := s.DB.GetSettings()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, marketingdb.ErrNotFound) {
		return nil, err
	}

	defaults := models.MarketingSettings{
		ID:               models.MarketingSettingsID,
		CouponsEnabled:   true,
		CreditsEnabled:   true,
		ReferralsEnabled: true,
		LoyaltyEnabled:   true,
		UpdatedAt:        time.Now(),
	}
	if err := s.DB.CreateSettings(defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// UpdateSettings applies a partial update: only flags present in the
// request change.
func (s *MarketingService) UpdateSettings(update models.MarketingSettingsUpdate, updatedBy string) (*models.MarketingSettings, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}

	if update.CouponsEnabled != nil {
		settings.CouponsEnabled = *update.CouponsEnabled
	}
	if update.CreditsEnabled != nil {
		settings.CreditsEnabled = *update.CreditsEnabled
	}
	if update.ReferralsEnabled != nil {
		settings.ReferralsEnabled = *update.ReferralsEnabled
	}
	if update.LoyaltyEnabled != nil {
		settings.LoyaltyEnabled = *update.LoyaltyEnabled
	}
	settings.UpdatedAt = time.Now()
	settings.UpdatedBy = updatedBy

	if err := s.DB.UpdateSettings(*settings); err != nil {
		return nil, err
	}
	return settings, nil
}

package marketing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	marketingdb "cleanserve/internal/marketing/db"
	marketing "cleanserve/internal/marketing/service"
	"cleanserve/internal/models"
)

type MockMarketingDB struct {
	mock.Mock
}

func (m *MockMarketingDB) GetSettings() (*models.MarketingSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketingSettings), args.Error(1)
}

func (m *MockMarketingDB) CreateSettings(settings models.MarketingSettings) error {
	args := m.Called(settings)
	return args.Error(0)
}

func (m *MockMarketingDB) UpdateSettings(settings models.MarketingSettings) error {
	args := m.Called(settings)
	return args.Error(0)
}

func boolPtr(b bool) *bool { return &b }

func TestFirstReadSeedsDefaults(t *testing.T) {
	mockDB := new(MockMarketingDB)
	service := marketing.NewMarketingService(mockDB)

	mockDB.On("GetSettings").Return(nil, marketingdb.ErrNotFound)
	mockDB.On("CreateSettings", mock.MatchedBy(func(s models.MarketingSettings) bool {
		return s.ID == models.MarketingSettingsID &&
			s.CouponsEnabled && s.CreditsEnabled && s.ReferralsEnabled && s.LoyaltyEnabled
	})).Return(nil)

	settings, err := service.GetSettings()

	assert.NoError(t, err)
	assert.True(t, settings.CouponsEnabled)
	mockDB.AssertExpectations(t)
}

func TestPartialUpdateLeavesOtherFlags(t *testing.T) {
	mockDB := new(MockMarketingDB)
	service := marketing.NewMarketingService(mockDB)

	current := &models.MarketingSettings{
		ID:               models.MarketingSettingsID,
		CouponsEnabled:   true,
		CreditsEnabled:   true,
		ReferralsEnabled: true,
		LoyaltyEnabled:   true,
	}
	mockDB.On("GetSettings").Return(current, nil)
	mockDB.On("UpdateSettings", mock.MatchedBy(func(s models.MarketingSettings) bool {
		return !s.CouponsEnabled && s.CreditsEnabled && s.ReferralsEnabled && s.LoyaltyEnabled &&
			s.UpdatedBy == "admin1"
	})).Return(nil)

	updated, err := service.UpdateSettings(models.MarketingSettingsUpdate{
		CouponsEnabled: boolPtr(false),
	}, "admin1")

	assert.NoError(t, err)
	assert.False(t, updated.CouponsEnabled)
	assert.True(t, updated.LoyaltyEnabled)
	mockDB.AssertExpectations(t)
}

func TestEmptyUpdateOnlyStampsAuthor(t *testing.T) {
	mockDB := new(MockMarketingDB)
	service := marketing.NewMarketingService(mockDB)

	current := &models.MarketingSettings{ID: models.MarketingSettingsID, CouponsEnabled: true}
	mockDB.On("GetSettings").Return(current, nil)
	mockDB.On("UpdateSettings", mock.MatchedBy(func(s models.MarketingSettings) bool {
		return s.CouponsEnabled && s.UpdatedBy == "admin2"
	})).Return(nil)

	updated, err := service.UpdateSettings(models.MarketingSettingsUpdate{}, "admin2")

	assert.NoError(t, err)
	assert.Equal(t, "admin2", updated.UpdatedBy)
}

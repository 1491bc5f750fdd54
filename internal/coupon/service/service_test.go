package coupon_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	coupondb "cleanserve/internal/coupon/db"
	coupon "cleanserve/internal/coupon/service"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

type MockCouponDB struct {
	mock.Mock
}

func (m *MockCouponDB) CreateCoupon(c models.Coupon) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockCouponDB) GetCouponByID(id string) (*models.Coupon, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponDB) GetCouponByCode(code string) (*models.Coupon, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponDB) UpdateCoupon(c models.Coupon) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockCouponDB) DeleteCoupon(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCouponDB) ListCoupons(search string, limit int) ([]models.Coupon, error) {
	args := m.Called(search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Coupon), args.Error(1)
}

func (m *MockCouponDB) CreateUsage(usage models.CouponUsage) error {
	args := m.Called(usage)
	return args.Error(0)
}

func (m *MockCouponDB) CountUsages(couponID string) (int, error) {
	args := m.Called(couponID)
	return args.Int(0), args.Error(1)
}

func (m *MockCouponDB) CountUsagesByUser(couponID, userID string) (int, error) {
	args := m.Called(couponID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCouponDB) GetUsagesByCoupon(couponID string) ([]models.CouponUsage, error) {
	args := m.Called(couponID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CouponUsage), args.Error(1)
}

type MockBookingCounter struct {
	mock.Mock
}

func (m *MockBookingCounter) CountBookingsByCustomer(userID string) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func setupService() (*coupon.CouponService, *MockCouponDB, *MockBookingCounter) {
	mockDB := new(MockCouponDB)
	mockBookings := new(MockBookingCounter)
	service := coupon.NewCouponService(mockDB, mockBookings, nil, logger.NewLogger())
	return service, mockDB, mockBookings
}

func validInput() coupon.CouponInput {
	validFrom := time.Now().Add(-time.Hour)
	return coupon.CouponInput{
		Code:          "SAVE10",
		Type:          models.CouponPercentage,
		Value:         10,
		IsActive:      true,
		ValidFrom:     validFrom,
		DescriptionEn: "10% off",
		DescriptionAr: "خصم 10٪",
	}
}

func TestCreateCouponRejectsInvalidWindow(t *testing.T) {
	service, mockDB, _ := setupService()

	in := validInput()
	before := in.ValidFrom.Add(-time.Minute)
	in.ValidUntil = &before

	_, err := service.CreateCoupon(in)

	assert.ErrorIs(t, err, coupon.ErrInvalidWindow)
	mockDB.AssertNotCalled(t, "CreateCoupon", mock.Anything)
}

func TestCreateCouponRejectsEqualWindow(t *testing.T) {
	service, mockDB, _ := setupService()

	in := validInput()
	same := in.ValidFrom
	in.ValidUntil = &same

	_, err := service.CreateCoupon(in)

	assert.ErrorIs(t, err, coupon.ErrInvalidWindow)
	mockDB.AssertNotCalled(t, "CreateCoupon", mock.Anything)
}

func TestCreateCouponNormalizesCode(t *testing.T) {
	service, mockDB, _ := setupService()

	in := validInput()
	in.Code = "  save10  "
	mockDB.On("GetCouponByCode", "SAVE10").Return(nil, coupondb.ErrNotFound)
	mockDB.On("CreateCoupon", mock.MatchedBy(func(c models.Coupon) bool {
		return c.Code == "SAVE10"
	})).Return(nil)

	created, err := service.CreateCoupon(in)

	assert.NoError(t, err)
	assert.Equal(t, "SAVE10", created.Code)
	mockDB.AssertExpectations(t)
}

func TestCreateCouponRejectsDuplicateCode(t *testing.T) {
	service, mockDB, _ := setupService()

	in := validInput()
	mockDB.On("GetCouponByCode", "SAVE10").Return(&models.Coupon{ID: "c1", Code: "SAVE10"}, nil)

	_, err := service.CreateCoupon(in)

	assert.ErrorIs(t, err, coupon.ErrCodeTaken)
}

// A percentage coupon with no validUntil stays active for any time at or
// after validFrom.
func TestOpenEndedCouponNeverExpires(t *testing.T) {
	service, mockDB, _ := setupService()

	save10 := &models.Coupon{
		ID:        "c1",
		Code:      "SAVE10",
		Type:      models.CouponPercentage,
		Value:     10,
		IsActive:  true,
		ValidFrom: time.Now().Add(-365 * 24 * time.Hour),
	}
	mockDB.On("GetCouponByCode", "SAVE10").Return(save10, nil)
	mockDB.On("CountUsages", "c1").Return(0, nil)
	mockDB.On("CountUsagesByUser", "c1", "user1").Return(0, nil)

	discount, err := service.Validate(context.Background(), "user1", "save10", 200, "svc1", "", false)

	assert.NoError(t, err)
	assert.InDelta(t, 20.0, discount.DiscountAmount, 0.001)
	assert.InDelta(t, 180.0, discount.FinalAmount, 0.001)
}

func TestValidateRejectsExpiredCoupon(t *testing.T) {
	service, mockDB, _ := setupService()

	until := time.Now().Add(-time.Hour)
	expired := &models.Coupon{
		ID:         "c1",
		Code:       "OLD",
		Type:       models.CouponPercentage,
		Value:      10,
		IsActive:   true,
		ValidFrom:  time.Now().Add(-48 * time.Hour),
		ValidUntil: &until,
	}
	mockDB.On("GetCouponByCode", "OLD").Return(expired, nil)

	_, err := service.Validate(context.Background(), "user1", "OLD", 100, "", "", false)

	assert.ErrorIs(t, err, coupon.ErrCouponExpired)
}

func TestValidateEnforcesTotalUsageCap(t *testing.T) {
	service, mockDB, _ := setupService()

	capped := &models.Coupon{
		ID:           "c1",
		Code:         "CAPPED",
		Type:         models.CouponFixedAmount,
		Value:        15,
		IsActive:     true,
		ValidFrom:    time.Now().Add(-time.Hour),
		MaxUsesTotal: 100,
	}
	mockDB.On("GetCouponByCode", "CAPPED").Return(capped, nil)
	mockDB.On("CountUsages", "c1").Return(100, nil)

	_, err := service.Validate(context.Background(), "user1", "CAPPED", 100, "", "", true)

	assert.ErrorIs(t, err, coupon.ErrUsageCap)
	mockDB.AssertNotCalled(t, "CreateUsage", mock.Anything)
}

func TestValidateEnforcesPerUserCap(t *testing.T) {
	service, mockDB, _ := setupService()

	c := &models.Coupon{
		ID:             "c1",
		Code:           "ONCE",
		Type:           models.CouponFixedAmount,
		Value:          15,
		IsActive:       true,
		ValidFrom:      time.Now().Add(-time.Hour),
		MaxUsesPerUser: 1,
	}
	mockDB.On("GetCouponByCode", "ONCE").Return(c, nil)
	mockDB.On("CountUsages", "c1").Return(3, nil)
	mockDB.On("CountUsagesByUser", "c1", "user1").Return(1, nil)

	_, err := service.Validate(context.Background(), "user1", "ONCE", 100, "", "", false)

	assert.ErrorIs(t, err, coupon.ErrUserUsageCap)
}

func TestValidateEnforcesMinOrderAndFirstTime(t *testing.T) {
	service, mockDB, mockBookings := setupService()

	c := &models.Coupon{
		ID:             "c1",
		Code:           "FIRST",
		Type:           models.CouponPercentage,
		Value:          20,
		IsActive:       true,
		ValidFrom:      time.Now().Add(-time.Hour),
		MinOrderAmount: 150,
		FirstTimeOnly:  true,
	}
	mockDB.On("GetCouponByCode", "FIRST").Return(c, nil)

	_, err := service.Validate(context.Background(), "user1", "FIRST", 100, "", "", false)
	assert.ErrorIs(t, err, coupon.ErrMinOrder)

	mockBookings.On("CountBookingsByCustomer", "user1").Return(2, nil)
	_, err = service.Validate(context.Background(), "user1", "FIRST", 200, "", "", false)
	assert.ErrorIs(t, err, coupon.ErrFirstTimeOnly)
}

func TestValidateCapsPercentageDiscount(t *testing.T) {
	service, mockDB, _ := setupService()

	c := &models.Coupon{
		ID:                "c1",
		Code:              "BIG",
		Type:              models.CouponPercentage,
		Value:             50,
		MaxDiscountAmount: 40,
		IsActive:          true,
		ValidFrom:         time.Now().Add(-time.Hour),
	}
	mockDB.On("GetCouponByCode", "BIG").Return(c, nil)
	mockDB.On("CountUsages", "c1").Return(0, nil)
	mockDB.On("CountUsagesByUser", "c1", "user1").Return(0, nil)

	discount, err := service.Validate(context.Background(), "user1", "BIG", 200, "", "", false)

	assert.NoError(t, err)
	assert.InDelta(t, 40.0, discount.DiscountAmount, 0.001)
}

func TestFixedDiscountClampedToOrderAmount(t *testing.T) {
	service, mockDB, _ := setupService()

	c := &models.Coupon{
		ID:        "c1",
		Code:      "FLAT50",
		Type:      models.CouponFixedAmount,
		Value:     50,
		IsActive:  true,
		ValidFrom: time.Now().Add(-time.Hour),
	}
	mockDB.On("GetCouponByCode", "FLAT50").Return(c, nil)
	mockDB.On("CountUsages", "c1").Return(0, nil)
	mockDB.On("CountUsagesByUser", "c1", "user1").Return(0, nil)

	discount, err := service.Validate(context.Background(), "user1", "FLAT50", 30, "", "", false)

	assert.NoError(t, err)
	assert.InDelta(t, 30.0, discount.DiscountAmount, 0.001)
	assert.InDelta(t, 0.0, discount.FinalAmount, 0.001)
}

func TestApplyRecordsUsage(t *testing.T) {
	service, mockDB, _ := setupService()

	c := &models.Coupon{
		ID:        "c1",
		Code:      "SAVE10",
		Type:      models.CouponPercentage,
		Value:     10,
		IsActive:  true,
		ValidFrom: time.Now().Add(-time.Hour),
	}
	mockDB.On("GetCouponByCode", "SAVE10").Return(c, nil)
	mockDB.On("CountUsages", "c1").Return(0, nil)
	mockDB.On("CountUsagesByUser", "c1", "user1").Return(0, nil)
	mockDB.On("CreateUsage", mock.MatchedBy(func(usage models.CouponUsage) bool {
		return usage.CouponID == "c1" && usage.UserID == "user1" && usage.BookingID == "b1"
	})).Return(nil)

	_, err := service.Validate(context.Background(), "user1", "SAVE10", 100, "", "b1", true)

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestListCouponsTabFilter(t *testing.T) {
	service, mockDB, _ := setupService()

	until := time.Now().Add(-time.Hour)
	all := []models.Coupon{
		{ID: "c1", Code: "LIVE", IsActive: true, ValidFrom: time.Now().Add(-time.Hour)},
		{ID: "c2", Code: "DEAD", IsActive: true, ValidFrom: time.Now().Add(-48 * time.Hour), ValidUntil: &until},
		{ID: "c3", Code: "SOON", IsActive: true, ValidFrom: time.Now().Add(24 * time.Hour)},
		{ID: "c4", Code: "OFF", IsActive: false, ValidFrom: time.Now().Add(-time.Hour)},
	}
	mockDB.On("ListCoupons", "", coupon.ListLimit).Return(all, nil)
	mockDB.On("CountUsages", "c1").Return(4, nil)
	mockDB.On("CountUsages", "c2").Return(9, nil)
	mockDB.On("CountUsages", "c3").Return(0, nil)
	mockDB.On("CountUsages", "c4").Return(0, nil)

	// A scheduled coupon (window not open yet) lists as active, not expired.
	active, err := service.ListCoupons("active", "")
	assert.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Equal(t, "LIVE", active[0].Code)
	assert.Equal(t, 4, active[0].CurrentUses)
	assert.Equal(t, "SOON", active[1].Code)

	expired, err := service.ListCoupons("expired", "")
	assert.NoError(t, err)
	assert.Len(t, expired, 2)
	assert.Equal(t, "DEAD", expired[0].Code)
	assert.Equal(t, "OFF", expired[1].Code)
}

func TestScheduledCouponNotYetRedeemable(t *testing.T) {
	service, mockDB, _ := setupService()

	scheduled := &models.Coupon{
		ID:        "c1",
		Code:      "SOON",
		Type:      models.CouponPercentage,
		Value:     10,
		IsActive:  true,
		ValidFrom: time.Now().Add(24 * time.Hour),
	}
	mockDB.On("GetCouponByCode", "SOON").Return(scheduled, nil)

	_, err := service.Validate(context.Background(), "user1", "SOON", 100, "", "", false)
	assert.ErrorIs(t, err, coupon.ErrCouponExpired)
}

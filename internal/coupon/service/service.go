package coupon

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	coupondb "cleanserve/internal/coupon/db"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

var (
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrInvalidCode     = errors.New("code must be 3-50 uppercase alphanumeric characters")
	ErrInvalidType     = errors.New("type must be percentage or fixed_amount")
	ErrInvalidValue    = errors.New("value must be greater than zero")
	ErrInvalidWindow   = errors.New("valid_until must be after valid_from")
	ErrMissingText     = errors.New("both localized descriptions are required")
	ErrCodeTaken       = errors.New("coupon code already exists")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon has expired or is not yet valid")
	ErrMinOrder        = errors.New("order amount is below the coupon minimum")
	ErrServiceExcluded = errors.New("coupon does not apply to this service")
	ErrFirstTimeOnly   = errors.New("coupon is limited to first-time customers")
	ErrUsageCap        = errors.New("coupon usage limit has been reached")
	ErrUserUsageCap    = errors.New("you have reached the usage limit for this coupon")
	ErrRedeemBusy      = errors.New("coupon is being redeemed, try again")
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,50}$`)

// ListLimit caps admin listing results; the client paginates locally.
const ListLimit = 200

type CouponDBLayer interface {
	CreateCoupon(coupon models.Coupon) error
	GetCouponByID(id string) (*models.Coupon, error)
	GetCouponByCode(code string) (*models.Coupon, error)
	UpdateCoupon(coupon models.Coupon) error
	DeleteCoupon(id string) error
	ListCoupons(search string, limit int) ([]models.Coupon, error)
	CreateUsage(usage models.CouponUsage) error
	CountUsages(couponID string) (int, error)
	CountUsagesByUser(couponID, userID string) (int, error)
	GetUsagesByCoupon(couponID string) ([]models.CouponUsage, error)
}

type BookingCounter interface {
	CountBookingsByCustomer(userID string) (int, error)
}

type RedeemLock interface {
	Acquire(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

type CouponService struct {
	DB       CouponDBLayer
	Bookings BookingCounter
	Lock     RedeemLock
	Logger   *logger.Logger
}

func NewCouponService(db CouponDBLayer, bookings BookingCounter, lock RedeemLock, log *logger.Logger) *CouponService {
	return &CouponService{DB: db, Bookings: bookings, Lock: lock, Logger: log}
}

// CouponInput is the create/update payload after JSON binding.
type CouponInput struct {
	Code              string            `json:"code"`
	Type              models.CouponType `json:"type"`
	Value             float64           `json:"value"`
	MinOrderAmount    float64           `json:"min_order_amount"`
	MaxDiscountAmount float64           `json:"max_discount_amount"`
	MaxUsesTotal      int               `json:"max_uses_total"`
	MaxUsesPerUser    int               `json:"max_uses_per_user"`
	ServiceIDs        []string          `json:"service_ids"`
	FirstTimeOnly     bool              `json:"first_time_only"`
	IsActive          bool              `json:"is_active"`
	ValidFrom         time.Time         `json:"valid_from"`
	ValidUntil        *time.Time        `json:"valid_until"`
	DescriptionEn     string            `json:"description_en"`
	DescriptionAr     string            `json:"description_ar"`
}

func (in *CouponInput) validate() error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if !codePattern.MatchString(in.Code) {
		return ErrInvalidCode
	}
	if !models.ValidCouponType(in.Type) {
		return ErrInvalidType
	}
	if in.Value <= 0 {
		return ErrInvalidValue
	}
	if in.DescriptionEn == "" || in.DescriptionAr == "" {
		return ErrMissingText
	}
	if in.ValidFrom.IsZero() {
		return ErrInvalidWindow
	}
	if in.ValidUntil != nil && !in.ValidUntil.After(in.ValidFrom) {
		return ErrInvalidWindow
	}
	if in.MinOrderAmount < 0 || in.MaxDiscountAmount < 0 || in.MaxUsesTotal < 0 || in.MaxUsesPerUser < 0 {
		return ErrInvalidValue
	}
	return nil
}

func (s *CouponService) CreateCoupon(in CouponInput) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.DB.GetCouponByCode(in.Code); err == nil {
		return nil, ErrCodeTaken
	} else if !errors.Is(err, coupondb.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	coupon := models.Coupon{
		ID:                uuid.New().String(),
		Code:              in.Code,
		Type:              in.Type,
		Value:             in.Value,
		MinOrderAmount:    in.MinOrderAmount,
		MaxDiscountAmount: in.MaxDiscountAmount,
		MaxUsesTotal:      in.MaxUsesTotal,
		MaxUsesPerUser:    in.MaxUsesPerUser,
		ServiceIDs:        in.ServiceIDs,
		FirstTimeOnly:     in.FirstTimeOnly,
		IsActive:          in.IsActive,
		ValidFrom:         in.ValidFrom,
		ValidUntil:        in.ValidUntil,
		DescriptionEn:     in.DescriptionEn,
		DescriptionAr:     in.DescriptionAr,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.DB.CreateCoupon(coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (s *CouponService) UpdateCoupon(id string, in CouponInput) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	coupon, err := s.DB.GetCouponByID(id)
	if err != nil {
		if errors.Is(err, coupondb.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if coupon.Code != in.Code {
		if _, err := s.DB.GetCouponByCode(in.Code); err == nil {
			return nil, ErrCodeTaken
		} else if !errors.Is(err, coupondb.ErrNotFound) {
			return nil, err
		}
	}

	coupon.Code = in.Code
	coupon.Type = in.Type
	coupon.Value = in.Value
	coupon.MinOrderAmount = in.MinOrderAmount
	coupon.MaxDiscountAmount = in.MaxDiscountAmount
	coupon.MaxUsesTotal = in.MaxUsesTotal
	coupon.MaxUsesPerUser = in.MaxUsesPerUser
	coupon.ServiceIDs = in.ServiceIDs
	coupon.FirstTimeOnly = in.FirstTimeOnly
	coupon.IsActive = in.IsActive
	coupon.ValidFrom = in.ValidFrom
	coupon.ValidUntil = in.ValidUntil
	coupon.DescriptionEn = in.DescriptionEn
	coupon.DescriptionAr = in.DescriptionAr
	coupon.UpdatedAt = time.Now()

	if err := s.DB.UpdateCoupon(*coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) DeleteCoupon(id string) error {
	if _, err := s.DB.GetCouponByID(id); err != nil {
		if errors.Is(err, coupondb.ErrNotFound) {
			return ErrCouponNotFound
		}
		return err
	}
	return s.DB.DeleteCoupon(id)
}

// ListCoupons filters by status tab (active | expired | all) and search
// text, and attaches the usage count for each coupon.
func (s *CouponService) ListCoupons(tab, search string) ([]models.Coupon, error) {
	coupons, err := s.DB.ListCoupons(search, ListLimit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	filtered := make([]models.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if tab == "active" && c.ExpiredAt(now) {
			continue
		}
		if tab == "expired" && !c.ExpiredAt(now) {
			continue
		}
		uses, err := s.DB.CountUsages(c.ID)
		if err != nil {
			return nil, err
		}
		c.CurrentUses = uses
		filtered = append(filtered, c)
	}
	return filtered, nil
}

func (s *CouponService) GetCoupon(id string) (*models.Coupon, error) {
	coupon, err := s.DB.GetCouponByID(id)
	if err != nil {
		if errors.Is(err, coupondb.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	uses, err := s.DB.CountUsages(coupon.ID)
	if err != nil {
		return nil, err
	}
	coupon.CurrentUses = uses
	return coupon, nil
}

func (s *CouponService) GetUsageHistory(couponID string) ([]models.CouponUsage, error) {
	if _, err := s.DB.GetCouponByID(couponID); err != nil {
		if errors.Is(err, coupondb.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return s.DB.GetUsagesByCoupon(couponID)
}

// ---------------- REDEMPTION ----------------

// Discount is the result of a successful validation.
type Discount struct {
	CouponID       string  `json:"coupon_id"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

// Validate checks a coupon against an order and computes the discount.
// With apply set it also records a usage row; the check and the insert run
// under a per-code redis lock so concurrent redemptions cannot blow past
// the caps.
func (s *CouponService) Validate(ctx context.Context, userID, code string, orderAmount float64, serviceID, bookingID string, apply bool) (*Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if apply && s.Lock != nil {
		ok, err := s.Lock.Acquire(ctx, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRedeemBusy
		}
		defer func() {
			if err := s.Lock.Release(ctx, code); err != nil {
				s.Logger.Error("COUPON", fmt.Sprintf("release lock for %s: %v", code, err))
			}
		}()
	}

	coupon, err := s.DB.GetCouponByCode(code)
	if err != nil {
		if errors.Is(err, coupondb.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	now := time.Now()
	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}
	if !coupon.ActiveAt(now) {
		return nil, ErrCouponExpired
	}
	if coupon.MinOrderAmount > 0 && orderAmount < coupon.MinOrderAmount {
		return nil, ErrMinOrder
	}
	if len(coupon.ServiceIDs) > 0 {
		found := false
		for _, id := range coupon.ServiceIDs {
			if id == serviceID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrServiceExcluded
		}
	}
	if coupon.FirstTimeOnly {
		count, err := s.Bookings.CountBookingsByCustomer(userID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrFirstTimeOnly
		}
	}

	totalUses, err := s.DB.CountUsages(coupon.ID)
	if err != nil {
		return nil, err
	}
	if coupon.MaxUsesTotal > 0 && totalUses >= coupon.MaxUsesTotal {
		return nil, ErrUsageCap
	}

	userUses, err := s.DB.CountUsagesByUser(coupon.ID, userID)
	if err != nil {
		return nil, err
	}
	if coupon.MaxUsesPerUser > 0 && userUses >= coupon.MaxUsesPerUser {
		return nil, ErrUserUsageCap
	}

	discount := computeDiscount(coupon, orderAmount)

	if apply {
		usage := models.CouponUsage{
			ID:             uuid.New().String(),
			CouponID:       coupon.ID,
			UserID:         userID,
			BookingID:      bookingID,
			DiscountAmount: discount,
			CreatedAt:      now,
		}
		if err := s.DB.CreateUsage(usage); err != nil {
			return nil, err
		}
		s.Logger.Info("COUPON", fmt.Sprintf("coupon %s redeemed by %s for %.2f", coupon.Code, userID, discount))
	}

	return &Discount{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		DiscountAmount: discount,
		FinalAmount:    orderAmount - discount,
	}, nil
}

func computeDiscount(coupon *models.Coupon, orderAmount float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponPercentage:
		discount = orderAmount * coupon.Value / 100
		if coupon.MaxDiscountAmount > 0 && discount > coupon.MaxDiscountAmount {
			discount = coupon.MaxDiscountAmount
		}
	case models.CouponFixedAmount:
		discount = coupon.Value
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}

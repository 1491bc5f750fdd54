package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CouponType string

const (
	CouponPercentage  CouponType = "percentage"
	CouponFixedAmount CouponType = "fixed_amount"
)

func ValidCouponType(t CouponType) bool {
	return t == CouponPercentage || t == CouponFixedAmount
}

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID                string     `json:"id" bun:"id,pk"`
	Code              string     `json:"code" bun:"code,unique"`
	Type              CouponType `json:"type" bun:"type"`
	Value             float64    `json:"value" bun:"value"`
	MinOrderAmount    float64    `json:"min_order_amount" bun:"min_order_amount"`
	MaxDiscountAmount float64    `json:"max_discount_amount" bun:"max_discount_amount"`
	MaxUsesTotal      int        `json:"max_uses_total" bun:"max_uses_total"`
	MaxUsesPerUser    int        `json:"max_uses_per_user" bun:"max_uses_per_user"`
	ServiceIDs        []string   `json:"service_ids,omitempty" bun:"service_ids,array"`
	FirstTimeOnly     bool       `json:"first_time_only" bun:"first_time_only"`
	IsActive          bool       `json:"is_active" bun:"is_active"`
	ValidFrom         time.Time  `json:"valid_from" bun:"valid_from"`
	ValidUntil        *time.Time `json:"valid_until,omitempty" bun:"valid_until,nullzero"`
	DescriptionEn     string     `json:"description_en" bun:"description_en"`
	DescriptionAr     string     `json:"description_ar" bun:"description_ar"`
	CreatedAt         time.Time  `json:"created_at" bun:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" bun:"updated_at"`

	// Derived from usage rows, not a column.
	CurrentUses int `json:"current_uses" bun:"-"`
}

// ActiveAt reports whether the coupon is redeemable at the given instant:
// the active flag is set and t falls inside the validity window.
func (c *Coupon) ActiveAt(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	if t.Before(c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && !t.Before(*c.ValidUntil) {
		return false
	}
	return true
}

// ExpiredAt reports whether the coupon shows as expired in admin
// listings: deactivated or past its end date. A coupon whose window has
// not opened yet is scheduled, not expired.
func (c *Coupon) ExpiredAt(t time.Time) bool {
	if !c.IsActive {
		return true
	}
	return c.ValidUntil != nil && !t.Before(*c.ValidUntil)
}

// StatusTab returns the listing tab a coupon belongs to.
func (c *Coupon) StatusTab(now time.Time) string {
	if c.ActiveAt(now) {
		return "active"
	}
	return "expired"
}

type CouponUsage struct {
	bun.BaseModel `bun:"table:coupon_usages"`

	ID             string    `json:"id" bun:"id,pk"`
	CouponID       string    `json:"coupon_id" bun:"coupon_id"`
	UserID         string    `json:"user_id" bun:"user_id"`
	BookingID      string    `json:"booking_id" bun:"booking_id"`
	DiscountAmount float64   `json:"discount_amount" bun:"discount_amount"`
	CreatedAt      time.Time `json:"created_at" bun:"created_at"`
}

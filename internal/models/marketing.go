package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MarketingSettings is a singleton row of feature flags for the
// promotional subsystems.
type MarketingSettings struct {
	bun.BaseModel `bun:"table:marketing_settings"`

	ID               string    `json:"id" bun:"id,pk"`
	CouponsEnabled   bool      `json:"coupons_enabled" bun:"coupons_enabled"`
	CreditsEnabled   bool      `json:"credits_enabled" bun:"credits_enabled"`
	ReferralsEnabled bool      `json:"referrals_enabled" bun:"referrals_enabled"`
	LoyaltyEnabled   bool      `json:"loyalty_enabled" bun:"loyalty_enabled"`
	UpdatedAt        time.Time `json:"updated_at" bun:"updated_at"`
	UpdatedBy        string    `json:"updated_by,omitempty" bun:"updated_by,nullzero"`
}

// MarketingSettingsID is the fixed primary key of the singleton row.
const MarketingSettingsID = "marketing"

// MarketingSettingsUpdate carries a partial update: only non-nil flags
// are applied.
type MarketingSettingsUpdate struct {
	CouponsEnabled   *bool `json:"coupons_enabled,omitempty"`
	CreditsEnabled   *bool `json:"credits_enabled,omitempty"`
	ReferralsEnabled *bool `json:"referrals_enabled,omitempty"`
	LoyaltyEnabled   *bool `json:"loyalty_enabled,omitempty"`
}

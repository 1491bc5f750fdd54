package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("coupon not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateCoupon(coupon models.Coupon) error {
	_, err := d.Bun.NewInsert().Model(&coupon).Exec(context.Background())
	return err
}

func (d *DB) GetCouponByID(id string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (d *DB) GetCouponByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("code = ?", strings.ToUpper(code)).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (d *DB) UpdateCoupon(coupon models.Coupon) error {
	_, err := d.Bun.NewUpdate().
		Model(&coupon).
		Column("code", "type", "value", "min_order_amount", "max_discount_amount",
			"max_uses_total", "max_uses_per_user", "service_ids", "first_time_only",
			"is_active", "valid_from", "valid_until", "description_en", "description_ar",
			"updated_at").
		Where("id = ?", coupon.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteCoupon(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Coupon)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ListCoupons returns coupons matching the free-text search over code and
// descriptions, newest first, capped.
func (d *DB) ListCoupons(search string, limit int) ([]models.Coupon, error) {
	var coupons []models.Coupon
	q := d.Bun.NewSelect().
		Model(&coupons).
		Order("created_at DESC").
		Limit(limit)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(description_en) LIKE ? OR LOWER(description_ar) LIKE ?",
			pattern, pattern, pattern)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	return coupons, nil
}

// ---------------- USAGES ----------------

func (d *DB) CreateUsage(usage models.CouponUsage) error {
	_, err := d.Bun.NewInsert().Model(&usage).Exec(context.Background())
	return err
}

func (d *DB) CountUsages(couponID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.CouponUsage)(nil)).
		Where("coupon_id = ?", couponID).
		Count(context.Background())
}

func (d *DB) CountUsagesByUser(couponID, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.CouponUsage)(nil)).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(context.Background())
}

func (d *DB) GetUsagesByCoupon(couponID string) ([]models.CouponUsage, error) {
	var usages []models.CouponUsage
	err := d.Bun.NewSelect().
		Model(&usages).
		Where("coupon_id = ?", couponID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if usages == nil {
		usages = []models.CouponUsage{}
	}
	return usages, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("booking not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) UpdateBooking(booking models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("technician_id", "status", "scheduled_date", "scheduled_time",
			"address", "notes", "total_amount", "payment_status", "updated_at").
		Where("id = ?", booking.ID).
		Exec(context.Background())
	return err
}

func (d *DB) GetBookingsByCustomer(customerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// GetBookingsByTechnician lists a technician's assigned bookings, optionally
// limited to one calendar date.
func (d *DB) GetBookingsByTechnician(technicianID, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	q := d.Bun.NewSelect().
		Model(&bookings).
		Where("technician_id = ?", technicianID).
		Order("scheduled_date ASC", "scheduled_time ASC")
	if date != "" {
		q = q.Where("scheduled_date = ?", date)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// CountBookingsByCustomer feeds the first-time-only coupon check.
func (d *DB) CountBookingsByCustomer(customerID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("customer_id = ?", customerID).
		Count(context.Background())
}

// ---------------- QUOTATIONS ----------------

func (d *DB) CreateQuotation(quotation models.Quotation) error {
	_, err := d.Bun.NewInsert().Model(&quotation).Exec(context.Background())
	return err
}

func (d *DB) GetQuotationsByTechnician(technicianID string) ([]models.Quotation, error) {
	var quotations []models.Quotation
	err := d.Bun.NewSelect().
		Model(&quotations).
		Where("technician_id = ?", technicianID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if quotations == nil {
		quotations = []models.Quotation{}
	}
	return quotations, nil
}

package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"cleanserve/internal/booking/db"
	"cleanserve/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Booking)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create bookings table: %v", err)
	}
	_, err = bunDB.NewCreateTable().Model((*models.Quotation)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create quotations table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func testBooking(customerID string) models.Booking {
	now := time.Now()
	return models.Booking{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		ServiceID:     "deep-cleaning",
		Status:        models.BookingPending,
		ScheduledDate: "2026-09-10",
		ScheduledTime: "10:00",
		Address:       "Olaya St, Riyadh",
		TotalAmount:   250,
		PaymentStatus: "unpaid",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("cust-1")
	err := bookingDB.CreateBooking(b)
	assert.NoError(t, err)

	got, err := bookingDB.GetBookingByID(b.ID)
	assert.NoError(t, err)
	assert.Equal(t, b.CustomerID, got.CustomerID)
	assert.Equal(t, models.BookingPending, got.Status)

	_, err = bookingDB.GetBookingByID("non-existent")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateBooking(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("cust-1")
	assert.NoError(t, bookingDB.CreateBooking(b))

	b.Status = models.BookingConfirmed
	b.TechnicianID = "tech-1"
	b.PaymentStatus = "paid"
	b.UpdatedAt = time.Now()
	assert.NoError(t, bookingDB.UpdateBooking(b))

	got, err := bookingDB.GetBookingByID(b.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Equal(t, "tech-1", got.TechnicianID)
	assert.Equal(t, "paid", got.PaymentStatus)
}

func TestGetBookingsByCustomer(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	assert.NoError(t, bookingDB.CreateBooking(testBooking("cust-1")))
	assert.NoError(t, bookingDB.CreateBooking(testBooking("cust-1")))
	assert.NoError(t, bookingDB.CreateBooking(testBooking("cust-2")))

	bookings, err := bookingDB.GetBookingsByCustomer("cust-1")
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)

	bookings, err = bookingDB.GetBookingsByCustomer("nobody")
	assert.NoError(t, err)
	assert.Len(t, bookings, 0)

	count, err := bookingDB.CountBookingsByCustomer("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetBookingsByTechnicianFiltersByDate(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	today := testBooking("cust-1")
	today.TechnicianID = "tech-1"
	today.ScheduledDate = "2026-09-10"

	tomorrow := testBooking("cust-2")
	tomorrow.TechnicianID = "tech-1"
	tomorrow.ScheduledDate = "2026-09-11"

	assert.NoError(t, bookingDB.CreateBooking(today))
	assert.NoError(t, bookingDB.CreateBooking(tomorrow))

	bookings, err := bookingDB.GetBookingsByTechnician("tech-1", "")
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)

	bookings, err = bookingDB.GetBookingsByTechnician("tech-1", "2026-09-10")
	assert.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, today.ID, bookings[0].ID)
}

func TestQuotations(t *testing.T) {
	bookingDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	q := models.Quotation{
		ID:           uuid.New().String(),
		BookingID:    uuid.New().String(),
		TechnicianID: "tech-1",
		Amount:       120,
		Description:  "extra AC duct cleaning",
		Status:       models.QuotationPending,
		CreatedAt:    time.Now(),
	}
	assert.NoError(t, bookingDB.CreateQuotation(q))

	quotations, err := bookingDB.GetQuotationsByTechnician("tech-1")
	assert.NoError(t, err)
	assert.Len(t, quotations, 1)
	assert.Equal(t, q.BookingID, quotations[0].BookingID)

	quotations, err = bookingDB.GetQuotationsByTechnician("tech-2")
	assert.NoError(t, err)
	assert.Len(t, quotations, 0)
}

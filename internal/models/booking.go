package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending            BookingStatus = "pending"
	BookingConfirmed          BookingStatus = "confirmed"
	BookingTechnicianAssigned BookingStatus = "technician_assigned"
	BookingEnRoute            BookingStatus = "en_route"
	BookingInProgress         BookingStatus = "in_progress"
	BookingQuotationPending   BookingStatus = "quotation_pending"
	BookingCompleted          BookingStatus = "completed"
	BookingCancelled          BookingStatus = "cancelled"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID            string        `json:"id" bun:"id,pk"`
	CustomerID    string        `json:"customer_id" bun:"customer_id"`
	TechnicianID  string        `json:"technician_id,omitempty" bun:"technician_id,nullzero"`
	ServiceID     string        `json:"service_id" bun:"service_id"`
	Status        BookingStatus `json:"status" bun:"status"`
	ScheduledDate string        `json:"scheduled_date" bun:"scheduled_date"`
	ScheduledTime string        `json:"scheduled_time" bun:"scheduled_time"`
	Address       string        `json:"address" bun:"address"`
	Notes         string        `json:"notes,omitempty" bun:"notes,nullzero"`
	TotalAmount   float64       `json:"total_amount" bun:"total_amount"`
	PaymentStatus string        `json:"payment_status" bun:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" bun:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bun:"updated_at"`
}

type QuotationStatus string

const (
	QuotationPending  QuotationStatus = "pending"
	QuotationApproved QuotationStatus = "approved"
	QuotationRejected QuotationStatus = "rejected"
)

type Quotation struct {
	bun.BaseModel `bun:"table:quotations"`

	ID           string          `json:"id" bun:"id,pk"`
	BookingID    string          `json:"booking_id" bun:"booking_id"`
	TechnicianID string          `json:"technician_id" bun:"technician_id"`
	Amount       float64         `json:"amount" bun:"amount"`
	Description  string          `json:"description" bun:"description"`
	Status       QuotationStatus `json:"status" bun:"status"`
	CreatedAt    time.Time       `json:"created_at" bun:"created_at"`
}

// BookingStatusEvent is the kafka payload published on every transition.
type BookingStatusEvent struct {
	BookingID  string        `json:"booking_id"`
	OldStatus  BookingStatus `json:"old_status"`
	NewStatus  BookingStatus `json:"new_status"`
	ChangedBy  string        `json:"changed_by"`
	OccurredAt time.Time     `json:"occurred_at"`
}

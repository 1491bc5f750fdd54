package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingdb "cleanserve/internal/booking/db"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("not allowed to modify this booking")
	ErrBadTransition   = errors.New("status transition not allowed")
	ErrNotQuotable     = errors.New("booking is not awaiting a quotation")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidSchedule = errors.New("scheduled date and time are required")
)

type BookingDBLayer interface {
	CreateBooking(booking models.Booking) error
	GetBookingByID(id string) (*models.Booking, error)
	UpdateBooking(booking models.Booking) error
	GetBookingsByCustomer(customerID string) ([]models.Booking, error)
	GetBookingsByTechnician(technicianID, date string) ([]models.Booking, error)
	CreateQuotation(quotation models.Quotation) error
	GetQuotationsByTechnician(technicianID string) ([]models.Quotation, error)
}

type EventPublisher interface {
	PublishJSON(topic, key string, v interface{}) error
}

type BookingService struct {
	DB          BookingDBLayer
	Events      EventPublisher
	StatusTopic string
	Logger      *logger.Logger
}

func NewBookingService(db BookingDBLayer, events EventPublisher, topic string, log *logger.Logger) *BookingService {
	return &BookingService{DB: db, Events: events, StatusTopic: topic, Logger: log}
}

// BookingInput is the customer-facing creation payload.
type BookingInput struct {
	ServiceID     string  `json:"service_id" validate:"required"`
	ScheduledDate string  `json:"scheduled_date" validate:"required"`
	ScheduledTime string  `json:"scheduled_time" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	Notes         string  `json:"notes"`
	TotalAmount   float64 `json:"total_amount" validate:"gte=0"`
}

func (s *BookingService) CreateBooking(customerID string, in BookingInput) (*models.Booking, error) {
	if in.ScheduledDate == "" || in.ScheduledTime == "" {
		return nil, ErrInvalidSchedule
	}

	now := time.Now()
	booking := models.Booking{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		ServiceID:     in.ServiceID,
		Status:        models.BookingPending,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
		Address:       in.Address,
		Notes:         in.Notes,
		TotalAmount:   in.TotalAmount,
		PaymentStatus: "unpaid",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.DB.CreateBooking(booking); err != nil {
		return nil, err
	}
	s.Logger.LogBooking("CREATE", booking.ID, fmt.Sprintf("customer %s scheduled %s %s", customerID, in.ScheduledDate, in.ScheduledTime))
	return &booking, nil
}

func (s *BookingService) GetCustomerBookings(customerID string) ([]models.Booking, error) {
	return s.DB.GetBookingsByCustomer(customerID)
}

func (s *BookingService) GetBooking(id string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(id)
	if err != nil {
		if errors.Is(err, bookingdb.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// MarkPaid flags a booking as paid. Called by the payment flow after a
// gateway confirms settlement.
func (s *BookingService) MarkPaid(bookingID string) error {
	booking, err := s.GetBooking(bookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = "paid"
	booking.UpdatedAt = time.Now()
	if err := s.DB.UpdateBooking(*booking); err != nil {
		return err
	}
	s.Logger.LogBooking("PAYMENT", bookingID, "marked paid")
	return nil
}

// GetTechnicianCalendar lists a technician's bookings, optionally for a
// single date.
func (s *BookingService) GetTechnicianCalendar(technicianID, date string) ([]models.Booking, error) {
	return s.DB.GetBookingsByTechnician(technicianID, date)
}

// UpdateStatus moves a booking through the transition table. Only the
// assigned technician or an admin may change the status.
func (s *BookingService) UpdateStatus(bookingID string, status models.BookingStatus, actorID string, actorRole models.UserRole) (*models.Booking, error) {
	booking, err := s.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if actorRole != models.RoleAdmin && booking.TechnicianID != actorID && booking.CustomerID != actorID {
		return nil, ErrForbidden
	}
	// Customers may only cancel.
	if booking.CustomerID == actorID && actorRole == models.RoleCustomer && status != models.BookingCancelled {
		return nil, ErrForbidden
	}

	if !CanTransition(booking.Status, status) {
		return nil, ErrBadTransition
	}

	oldStatus := booking.Status
	booking.Status = status
	booking.UpdatedAt = time.Now()
	if err := s.DB.UpdateBooking(*booking); err != nil {
		return nil, err
	}

	s.Logger.LogBooking("STATUS", booking.ID, fmt.Sprintf("%s -> %s by %s", oldStatus, status, actorID))
	s.publishStatusEvent(booking.ID, oldStatus, status, actorID)
	return booking, nil
}

func (s *BookingService) publishStatusEvent(bookingID string, from, to models.BookingStatus, actorID string) {
	if s.Events == nil {
		return
	}
	evt := models.BookingStatusEvent{
		BookingID:  bookingID,
		OldStatus:  from,
		NewStatus:  to,
		ChangedBy:  actorID,
		OccurredAt: time.Now(),
	}
	if err := s.Events.PublishJSON(s.StatusTopic, bookingID, evt); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish status event for booking %s: %v", bookingID, err))
	}
}

// ---------------- QUOTATIONS ----------------

func (s *BookingService) CreateQuotation(technicianID, bookingID string, amount float64, description string) (*models.Quotation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	booking, err := s.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TechnicianID != technicianID {
		return nil, ErrForbidden
	}
	if booking.Status != models.BookingQuotationPending {
		return nil, ErrNotQuotable
	}

	quotation := models.Quotation{
		ID:           uuid.New().String(),
		BookingID:    bookingID,
		TechnicianID: technicianID,
		Amount:       amount,
		Description:  description,
		Status:       models.QuotationPending,
		CreatedAt:    time.Now(),
	}
	if err := s.DB.CreateQuotation(quotation); err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (s *BookingService) GetTechnicianQuotations(technicianID string) ([]models.Quotation, error) {
	return s.DB.GetQuotationsByTechnician(technicianID)
}

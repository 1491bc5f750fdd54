package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	booking "cleanserve/internal/booking/service"
	"cleanserve/internal/logger"
	"cleanserve/internal/models"
	"cleanserve/internal/payment/moyasar"
	"cleanserve/internal/payment/storage"
	"cleanserve/internal/payment/tabby"
	"cleanserve/internal/utils"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("not allowed to access this payment")
	ErrUnknownGateway  = errors.New("unknown payment gateway")
	ErrNothingToPay    = errors.New("booking has no payable amount")
	ErrAlreadyPaid     = errors.New("booking already paid")
	ErrNotRefundable   = errors.New("only paid payments can be refunded")
	ErrGatewayDeclined = errors.New("gateway declined the payment")
)

type PaymentStore interface {
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	GetPaymentByGatewayRef(ref string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	ListPaymentsByBooking(bookingID string) ([]*models.Payment, error)
}

type BookingReader interface {
	GetBooking(id string) (*models.Booking, error)
	MarkPaid(bookingID string) error
}

type UserReader interface {
	GetUserByID(id string) (*models.User, error)
}

type PaymentService struct {
	Store       PaymentStore
	Moyasar     *moyasar.Client
	Tabby       *tabby.Client
	Bookings    BookingReader
	Users       UserReader
	CallbackURL string
	Logger      *logger.Logger
}

const defaultCurrency = "SAR"

func NewPaymentService(store PaymentStore, m *moyasar.Client, t *tabby.Client, bookings BookingReader, users UserReader, callbackURL string, log *logger.Logger) *PaymentService {
	return &PaymentService{
		Store:       store,
		Moyasar:     m,
		Tabby:       t,
		Bookings:    bookings,
		Users:       users,
		CallbackURL: callbackURL,
		Logger:      log,
	}
}

// CreatePayment opens a payment with the chosen gateway for the caller's
// booking and stores it as initiated.
func (s *PaymentService) CreatePayment(ctx context.Context, userID string, req models.CreatePaymentRequest) (*models.PaymentResponse, error) {
	if !models.ValidPaymentGateway(req.Gateway) {
		return nil, ErrUnknownGateway
	}

	b, err := s.Bookings.GetBooking(req.BookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.CustomerID != userID {
		return nil, ErrForbidden
	}
	if b.PaymentStatus == "paid" {
		return nil, ErrAlreadyPaid
	}
	if b.TotalAmount <= 0 {
		return nil, ErrNothingToPay
	}

	now := time.Now()
	payment := &models.Payment{
		PaymentID: utils.GeneratePaymentID(),
		BookingID: b.ID,
		UserID:    userID,
		Gateway:   req.Gateway,
		Amount:    b.TotalAmount,
		Currency:  defaultCurrency,
		Status:    models.PaymentInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var redirectURL string
	switch req.Gateway {
	case models.GatewayMoyasar:
		result, err := s.Moyasar.CreatePayment(ctx, moyasar.CreatePaymentParams{
			Amount:      b.TotalAmount,
			Currency:    defaultCurrency,
			Description: fmt.Sprintf("Booking %s", b.ID),
			CallbackURL: s.CallbackURL + "/moyasar",
			Metadata:    map[string]string{"payment_id": payment.PaymentID, "booking_id": b.ID},
		})
		if err != nil {
			return nil, err
		}
		payment.GatewayRef = result.ID
	case models.GatewayTabby:
		user, err := s.Users.GetUserByID(userID)
		if err != nil {
			return nil, err
		}
		session, err := s.Tabby.CreateCheckout(ctx, tabby.CheckoutParams{
			Amount:      b.TotalAmount,
			Currency:    defaultCurrency,
			Description: fmt.Sprintf("Booking %s", b.ID),
			BuyerEmail:  user.Email,
			BuyerPhone:  user.Phone,
			SuccessURL:  s.CallbackURL + "/tabby",
			FailureURL:  s.CallbackURL + "/tabby",
			ReferenceID: payment.PaymentID,
		})
		if err != nil {
			if errors.Is(err, tabby.ErrRejected) {
				return nil, ErrGatewayDeclined
			}
			return nil, err
		}
		payment.GatewayRef = session.ID
		redirectURL = session.CheckoutURL
	}

	if err := s.Store.SavePayment(payment); err != nil {
		return nil, err
	}
	s.Logger.LogPayment(string(req.Gateway), "INITIATE", fmt.Sprintf("payment %s for booking %s, %.2f %s", payment.PaymentID, b.ID, payment.Amount, payment.Currency))

	return &models.PaymentResponse{
		PaymentID:   payment.PaymentID,
		BookingID:   payment.BookingID,
		Gateway:     payment.Gateway,
		Status:      payment.Status,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		RedirectURL: redirectURL,
	}, nil
}

// GetPayment returns a payment visible to its owner or an admin.
func (s *PaymentService) GetPayment(id, callerID string, role models.UserRole) (*models.Payment, error) {
	payment, err := s.Store.GetPayment(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.UserID != callerID && role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return payment, nil
}

// ConfirmMoyasar handles the Moyasar callback. The status is always
// re-fetched from the gateway; the callback body alone is never trusted.
func (s *PaymentService) ConfirmMoyasar(ctx context.Context, gatewayRef string) (*models.Payment, error) {
	payment, err := s.paymentByRef(gatewayRef)
	if err != nil {
		return nil, err
	}

	result, err := s.Moyasar.FetchPayment(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}
	return s.settle(payment, result.Paid())
}

// ConfirmTabby handles the Tabby callback, verifying with the gateway
// before settling.
func (s *PaymentService) ConfirmTabby(ctx context.Context, gatewayRef string) (*models.Payment, error) {
	payment, err := s.paymentByRef(gatewayRef)
	if err != nil {
		return nil, err
	}

	session, err := s.Tabby.FetchPayment(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}
	return s.settle(payment, session.Paid())
}

// Refund issues a full refund through the gateway and marks the payment
// refunded. Admin only, enforced at the handler.
func (s *PaymentService) Refund(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.Store.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status != models.PaymentPaid {
		return nil, ErrNotRefundable
	}

	switch payment.Gateway {
	case models.GatewayMoyasar:
		if _, err := s.Moyasar.RefundPayment(ctx, payment.GatewayRef); err != nil {
			return nil, err
		}
	case models.GatewayTabby:
		// Tabby refunds are settled from the merchant dashboard, the
		// local record is still marked so the booking reflects it.
		s.Logger.Warn("TABBY", fmt.Sprintf("refund for %s recorded locally, settle in the Tabby dashboard", payment.PaymentID))
	}

	payment.Status = models.PaymentRefunded
	payment.UpdatedAt = time.Now()
	if err := s.Store.UpdatePayment(payment); err != nil {
		return nil, err
	}
	s.Logger.LogPayment(string(payment.Gateway), "REFUND", fmt.Sprintf("payment %s refunded", payment.PaymentID))
	return payment, nil
}

func (s *PaymentService) paymentByRef(ref string) (*models.Payment, error) {
	payment, err := s.Store.GetPaymentByGatewayRef(ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) settle(payment *models.Payment, paid bool) (*models.Payment, error) {
	if payment.Status == models.PaymentPaid {
		// Callback replay, nothing to do.
		return payment, nil
	}

	if paid {
		payment.Status = models.PaymentPaid
	} else {
		payment.Status = models.PaymentFailed
	}
	payment.UpdatedAt = time.Now()
	if err := s.Store.UpdatePayment(payment); err != nil {
		return nil, err
	}

	if paid {
		if err := s.Bookings.MarkPaid(payment.BookingID); err != nil {
			s.Logger.Error("PAYMENT", fmt.Sprintf("mark booking %s paid: %v", payment.BookingID, err))
		}
	}
	s.Logger.LogPayment(string(payment.Gateway), "SETTLE", fmt.Sprintf("payment %s settled as %s", payment.PaymentID, payment.Status))
	return payment, nil
}

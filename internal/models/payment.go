package models

import (
	"time"
)

type PaymentGateway string

const (
	GatewayMoyasar PaymentGateway = "moyasar"
	GatewayTabby   PaymentGateway = "tabby"
)

func ValidPaymentGateway(g PaymentGateway) bool {
	return g == GatewayMoyasar || g == GatewayTabby
}

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	PaymentID  string         `json:"payment_id"`
	BookingID  string         `json:"booking_id"`
	UserID     string         `json:"user_id"`
	Gateway    PaymentGateway `json:"gateway"`
	GatewayRef string         `json:"gateway_ref,omitempty"`
	Amount     float64        `json:"amount"`
	Currency   string         `json:"currency"`
	Status     PaymentStatus  `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type CreatePaymentRequest struct {
	BookingID string         `json:"booking_id" validate:"required"`
	Gateway   PaymentGateway `json:"gateway" validate:"required"`
}

type PaymentResponse struct {
	PaymentID   string         `json:"payment_id"`
	BookingID   string         `json:"booking_id"`
	Gateway     PaymentGateway `json:"gateway"`
	Status      PaymentStatus  `json:"status"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

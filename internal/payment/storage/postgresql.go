package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"cleanserve/internal/logger"
	"cleanserve/internal/models"
)

var ErrNotFound = errors.New("payment not found")

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a payment store on an existing
// connection and ensures the payments table exists.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	store := &PostgreSQLStore{db: db, log: log}
	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}
	log.LogDatabase("SUCCESS", "payments", "Payment storage ready")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "payments", "Creating payments table if not exists")

	paymentsQuery := `
    CREATE TABLE IF NOT EXISTS payments (
        payment_id VARCHAR(64) PRIMARY KEY,
        booking_id VARCHAR(36) NOT NULL,
        user_id VARCHAR(36) NOT NULL,
        gateway VARCHAR(20) NOT NULL,
        gateway_ref VARCHAR(100),
        amount DECIMAL(10,2) NOT NULL,
        currency VARCHAR(3) NOT NULL,
        status VARCHAR(20) NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := s.db.Exec(paymentsQuery); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);",
	}
	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	query := `
    INSERT INTO payments (
        payment_id, booking_id, user_id, gateway, gateway_ref, amount, currency, status, created_at, updated_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err := s.db.Exec(query,
		payment.PaymentID, payment.BookingID, payment.UserID, payment.Gateway, payment.GatewayRef,
		payment.Amount, payment.Currency, payment.Status, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to save payment: %w", err)
	}

	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Payment %s saved", payment.PaymentID))
	return nil
}

func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	query := `
    SELECT payment_id, booking_id, user_id, gateway, gateway_ref, amount, currency, status, created_at, updated_at
    FROM payments WHERE payment_id = $1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, id).Scan(
		&payment.PaymentID, &payment.BookingID, &payment.UserID, &payment.Gateway, &payment.GatewayRef,
		&payment.Amount, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment %s: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetPaymentByGatewayRef looks a payment up by the gateway's own ID.
// Callback handlers use this to map gateway notifications back to a
// local payment row.
func (s *PostgreSQLStore) GetPaymentByGatewayRef(ref string) (*models.Payment, error) {
	query := `
    SELECT payment_id, booking_id, user_id, gateway, gateway_ref, amount, currency, status, created_at, updated_at
    FROM payments WHERE gateway_ref = $1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, ref).Scan(
		&payment.PaymentID, &payment.BookingID, &payment.UserID, &payment.Gateway, &payment.GatewayRef,
		&payment.Amount, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment by ref %s: %s", ref, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	query := `
    UPDATE payments SET
        gateway_ref = $1, status = $2, updated_at = $3
    WHERE payment_id = $4
    `

	_, err := s.db.Exec(query, payment.GatewayRef, payment.Status, payment.UpdatedAt, payment.PaymentID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	s.log.LogDatabase("UPDATE", "payments", fmt.Sprintf("Payment %s now %s", payment.PaymentID, payment.Status))
	return nil
}

// ListPaymentsByBooking returns a booking's payments, newest first.
func (s *PostgreSQLStore) ListPaymentsByBooking(bookingID string) ([]*models.Payment, error) {
	query := `
    SELECT payment_id, booking_id, user_id, gateway, gateway_ref, amount, currency, status, created_at, updated_at
    FROM payments
    WHERE booking_id = $1
    ORDER BY created_at DESC
    `

	rows, err := s.db.Query(query, bookingID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list payments: %s", err.Error()))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		err := rows.Scan(
			&payment.PaymentID, &payment.BookingID, &payment.UserID, &payment.Gateway, &payment.GatewayRef,
			&payment.Amount, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return payments, nil
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

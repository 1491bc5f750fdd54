package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	booking "cleanserve/internal/booking/service"
	"cleanserve/internal/models"
)

func TestForwardTransitions(t *testing.T) {
	cases := []struct {
		from    models.BookingStatus
		to      models.BookingStatus
		allowed bool
	}{
		{models.BookingPending, models.BookingConfirmed, true},
		{models.BookingConfirmed, models.BookingTechnicianAssigned, true},
		{models.BookingTechnicianAssigned, models.BookingEnRoute, true},
		{models.BookingEnRoute, models.BookingInProgress, true},
		{models.BookingInProgress, models.BookingQuotationPending, true},
		{models.BookingInProgress, models.BookingCompleted, true},
		{models.BookingQuotationPending, models.BookingInProgress, true},
		{models.BookingQuotationPending, models.BookingCompleted, true},

		// No skipping ahead or going back.
		{models.BookingPending, models.BookingInProgress, false},
		{models.BookingConfirmed, models.BookingCompleted, false},
		{models.BookingInProgress, models.BookingPending, false},
		{models.BookingCompleted, models.BookingInProgress, false},
	}

	for _, tc := range cases {
		got := booking.CanTransition(tc.from, tc.to)
		assert.Equalf(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestCancellableFromAnyNonTerminalState(t *testing.T) {
	nonTerminal := []models.BookingStatus{
		models.BookingPending,
		models.BookingConfirmed,
		models.BookingTechnicianAssigned,
		models.BookingEnRoute,
		models.BookingInProgress,
		models.BookingQuotationPending,
	}
	for _, from := range nonTerminal {
		assert.Truef(t, booking.CanTransition(from, models.BookingCancelled), "%s should be cancellable", from)
	}

	assert.False(t, booking.CanTransition(models.BookingCompleted, models.BookingCancelled))
	assert.False(t, booking.CanTransition(models.BookingCancelled, models.BookingCancelled))
}

func TestSelfTransitionRejected(t *testing.T) {
	assert.False(t, booking.CanTransition(models.BookingPending, models.BookingPending))
}

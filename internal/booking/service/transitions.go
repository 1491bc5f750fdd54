package booking

import "cleanserve/internal/models"

// allowedTransitions is the forward path a booking takes through its
// lifecycle. Cancellation is handled separately: any non-terminal state
// may move to cancelled.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:            {models.BookingConfirmed},
	models.BookingConfirmed:          {models.BookingTechnicianAssigned},
	models.BookingTechnicianAssigned: {models.BookingEnRoute},
	models.BookingEnRoute:            {models.BookingInProgress},
	models.BookingInProgress:         {models.BookingQuotationPending, models.BookingCompleted},
	models.BookingQuotationPending:   {models.BookingInProgress, models.BookingCompleted},
}

func isTerminal(status models.BookingStatus) bool {
	return status == models.BookingCompleted || status == models.BookingCancelled
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to models.BookingStatus) bool {
	if from == to {
		return false
	}
	if to == models.BookingCancelled {
		return !isTerminal(from)
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

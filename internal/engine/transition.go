package engine

import (
	"github.com/agrihub/seed-reservation/internal/model"
	"github.com/agrihub/seed-reservation/internal/repository"
)

// quotaDelta returns the signed quota adjustment in kilograms for moving a
// reservation of quantityKg from one status to another. Negative means the
// province quota is debited, positive means it is credited back, zero means
// the transition touches no quota.
//
// Approval is the only debit. Moving an approved reservation back to
// pending or on to rejected credits the full quantity back, so
// approve-then-reverse always restores the balance exactly. Delivery
// confirms an already-debited reservation and moves nothing. Rejected and
// delivered are terminal: any transition out of them is refused.
func quotaDelta(current, next string, quantityKg float64) (float64, error) {
	switch current {
	case model.StatusPending:
		switch next {
		case model.StatusApproved:
			return -quantityKg, nil
		case model.StatusRejected, model.StatusDelivered:
			return 0, nil
		}
	case model.StatusApproved:
		switch next {
		case model.StatusPending, model.StatusRejected:
			return quantityKg, nil
		case model.StatusDelivered:
			return 0, nil
		}
	}
	return 0, repository.ErrInvalidTransition
}

// validStatus reports whether s is one of the lifecycle states.
func validStatus(s string) bool {
	switch s {
	case model.StatusPending, model.StatusApproved, model.StatusRejected, model.StatusDelivered:
		return true
	}
	return false
}

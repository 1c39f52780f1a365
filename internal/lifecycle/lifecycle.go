// Package lifecycle is the single transition table every mutating booking
// operation passes through.
package lifecycle

import (
	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
)

type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionDelete     Action = "delete"
	ActionReschedule Action = "reschedule"
	ActionEdit       Action = "edit"
	ActionAccept     Action = "accept"
	ActionDecline    Action = "decline"
	ActionProgress   Action = "update progress of"
	ActionPay        Action = "pay for"
)

type rule struct {
	from []entity.BookingStatus
	// to is empty when the action leaves the status unchanged.
	to entity.BookingStatus
}

var (
	pending    = entity.BookingStatusPending
	confirmed  = entity.BookingStatusConfirmed
	inProgress = entity.BookingStatusInProgress
	completed  = entity.BookingStatusCompleted
	cancelled  = entity.BookingStatusCancelled
)

var transitions = map[Action]rule{
	ActionConfirm:    {from: []entity.BookingStatus{pending}, to: confirmed},
	ActionStart:      {from: []entity.BookingStatus{confirmed}, to: inProgress},
	ActionComplete:   {from: []entity.BookingStatus{inProgress}, to: completed},
	ActionCancel:     {from: []entity.BookingStatus{pending, confirmed, inProgress}, to: cancelled},
	ActionReschedule: {from: []entity.BookingStatus{pending, confirmed, inProgress}},
	ActionEdit:       {from: []entity.BookingStatus{pending, confirmed}},
	ActionAccept:     {from: []entity.BookingStatus{pending, confirmed}},
	ActionDecline:    {from: []entity.BookingStatus{pending, confirmed}, to: pending},
	ActionProgress:   {from: []entity.BookingStatus{inProgress}},
	ActionPay:        {from: []entity.BookingStatus{pending, confirmed}},
}

// Next returns the status a booking moves to when action is applied, or an
// IllegalTransition error naming the current status.
func Next(b *entity.Booking, action Action) (entity.BookingStatus, error) {
	if action == ActionDelete {
		if !Deletable(b) {
			return "", apperr.Illegal("delete", "completed and paid")
		}
		return b.Status, nil
	}

	r, ok := transitions[action]
	if !ok {
		return "", apperr.Invalid("unknown booking action %q", action)
	}

	if !contains(r.from, b.Status) {
		return "", apperr.Illegal(string(action), string(b.Status))
	}

	if action == ActionComplete && b.PaymentStatus == entity.PaymentStatusFailed {
		return "", apperr.Illegal(string(action), "unpaid (payment failed)")
	}

	if r.to == "" {
		return b.Status, nil
	}
	return r.to, nil
}

// Check is Next for callers that only need the guard.
func Check(b *entity.Booking, action Action) error {
	_, err := Next(b, action)
	return err
}

// Deletable reports whether the row may be hard-removed. A completed and paid
// booking is kept forever.
func Deletable(b *entity.Booking) bool {
	return !(b.Status == completed && b.PaymentStatus == entity.PaymentStatusCompleted)
}

// IsTerminal reports whether no status transition leaves s.
func IsTerminal(s entity.BookingStatus) bool {
	return s == completed || s == cancelled
}

var progressRank = map[entity.JobProgress]int{
	entity.JobProgressOnMyWay: 1,
	entity.JobProgressArrived: 2,
	entity.JobProgressStarted: 3,
}

// CheckProgress validates a job-progress marker change on an in-progress
// booking. With strict set, moving back to an earlier marker is rejected.
func CheckProgress(b *entity.Booking, next entity.JobProgress, strict bool) error {
	if err := Check(b, ActionProgress); err != nil {
		return err
	}

	rank, ok := progressRank[next]
	if !ok {
		return apperr.Invalid("unknown job progress %q", next)
	}

	if strict && b.JobProgress != nil && rank < progressRank[*b.JobProgress] {
		return &apperr.Error{
			Kind:    apperr.IllegalTransition,
			Message: "job progress cannot move from " + string(*b.JobProgress) + " back to " + string(next),
			State:   string(*b.JobProgress),
		}
	}
	return nil
}

func contains(states []entity.BookingStatus, s entity.BookingStatus) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

package usecase

import (
	"context"
	"fmt"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
	"cleaning-booking/internal/data/repository"
	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
)

const deniedMessage = "You do not have permission to modify this booking"

func parseID(what, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid("invalid %s ID format %s", what, raw)
	}
	return id, nil
}

func findBooking(ctx context.Context, repo *repository.Repository, id uuid.UUID, forUpdate bool) (*entity.Booking, error) {
	var (
		b   *entity.Booking
		err error
	)
	if forUpdate {
		b, err = repo.Booking.FindByIDForUpdate(ctx, id)
	} else {
		b, err = repo.Booking.FindByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	if b == nil {
		return nil, apperr.NotFoundf("booking %s not found", id)
	}
	return b, nil
}

// authorizeOwner allows admins, the customer who created the booking and
// whoever holds the booking's contact email.
func authorizeOwner(actor utils.Actor, b *entity.Booking) error {
	if actor.IsAdmin() || actor.OwnsContact(b.ContactEmail) {
		return nil
	}
	if b.UserID != nil && actor.UserID != uuid.Nil && *b.UserID == actor.UserID {
		return nil
	}
	return apperr.Denied(deniedMessage)
}

// authorizeCleaner allows admins and the assigned cleaner. With
// allowUnassigned, any cleaner may act on a booking nobody holds yet.
func authorizeCleaner(actor utils.Actor, b *entity.Booking, allowUnassigned bool) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsCleaner() {
		return apperr.Denied(deniedMessage)
	}
	if b.CleanerID == nil {
		if allowUnassigned {
			return nil
		}
		return apperr.Denied(deniedMessage)
	}
	if *b.CleanerID != actor.UserID {
		return apperr.Denied(deniedMessage)
	}
	return nil
}

// mutateBooking loads a booking under a row lock, applies fn and commits in
// one transaction.
func mutateBooking(ctx context.Context, repo *repository.Repository, id uuid.UUID, fn func(tx *repository.Repository, b *entity.Booking) error) (*entity.Booking, error) {
	var out *entity.Booking
	err := repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		b, err := findBooking(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type EFTStatus string

const (
	EFTStatusPending  EFTStatus = "pending"
	EFTStatusVerified EFTStatus = "verified"
	EFTStatusRejected EFTStatus = "rejected"
)

type EFTSubmission struct {
	BaseNoDelete
	UserID          uuid.UUID  `db:"user_id"`
	Amount          float64    `db:"amount"`
	Reference       string     `db:"reference"`
	ProofURL        *string    `db:"proof_url"`
	Status          EFTStatus  `db:"status"`
	VerifiedBy      *uuid.UUID `db:"verified_by"`
	VerifiedAt      *time.Time `db:"verified_at"`
	RejectionReason *string    `db:"rejection_reason"`
}

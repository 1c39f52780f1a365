package entity

import (
	"time"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type DiscountCode struct {
	BaseNoDelete
	Code       string       `db:"code"`
	Kind       DiscountKind `db:"kind"`
	Value      float64      `db:"value"`
	MinOrder   float64      `db:"min_order"`
	UsageLimit *int         `db:"usage_limit"`
	UsageCount int          `db:"usage_count"`
	ExpiresAt  *time.Time   `db:"expires_at"`
	Active     bool         `db:"active"`
}

package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	CreditReferencePrefix  = "credit-"
	VoucherReferencePrefix = "voucher-"
	BookingReferencePrefix = "BOK-"
)

// GenerateBookingReference returns BOK-<base36 unix millis>-<random>, uppercased.
func GenerateBookingReference() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper(BookingReferencePrefix + ts + "-" + randomBase36(5))
}

// GenerateCreditReference returns credit-<unix millis>-<random>.
func GenerateCreditReference() string {
	return CreditReferencePrefix + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomBase36(7)
}

// GenerateVoucherReference returns voucher-<unix millis>-<random>.
func GenerateVoucherReference() string {
	return VoucherReferencePrefix + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomBase36(7)
}

func randomBase36(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			idx = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String()
}

package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBookingReference_Format(t *testing.T) {
	ref := GenerateBookingReference()

	assert.Regexp(t, regexp.MustCompile(`^BOK-[0-9A-Z]+-[0-9A-Z]{5}$`), ref)
	assert.NotEqual(t, ref, GenerateBookingReference())
}

func TestGenerateCreditAndVoucherReferences(t *testing.T) {
	assert.Regexp(t, `^credit-\d{13}-[0-9a-z]{7}$`, GenerateCreditReference())
	assert.Regexp(t, `^voucher-\d{13}-[0-9a-z]{7}$`, GenerateVoucherReference())
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 10, ParseInt("-4", 10))
}

type sampleRequest struct {
	Date  string  `validate:"required,isodate"`
	Time  string  `validate:"required,hhmm"`
	Email string  `validate:"required,email"`
	Tip   float64 `validate:"gte=0"`
}

func TestValidateStruct_CustomTags(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Date: "2024-13-01", Time: "9am", Email: "nope", Tip: -1})

	assert.Equal(t, "Must be a date in YYYY-MM-DD format", errs["Date"])
	assert.Equal(t, "Must be a time in HH:MM format", errs["Time"])
	assert.Equal(t, "Invalid email format", errs["Email"])
	assert.Equal(t, "Must be at least 0", errs["Tip"])
	assert.Equal(t, "Date: Must be a date in YYYY-MM-DD format; Email: Invalid email format; Tip: Must be at least 0; Time: Must be a time in HH:MM format", FormatValidationErrors(errs))

	assert.Nil(t, ValidateStruct(sampleRequest{Date: "2024-02-29", Time: "09:30", Email: "a@b.co"}))
}

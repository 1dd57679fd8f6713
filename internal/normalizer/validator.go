package normalizer

import (
	"errors"
	"fmt"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
)

// Validation errors.
var (
	ErrMissingRecordID    = errors.New("record has no id")
	ErrMissingBookingDate = errors.New("record has no booking date")
	ErrMissingName        = errors.New("record has no name columns")
)

// Validator checks that a raw bookings row can become a canonical record.
type Validator struct {
	bookingDateColumns []string
}

// NewValidator creates a validator that reads the booking date from the given column.
func NewValidator(bookingDateColumn string) *Validator {
	return &Validator{bookingDateColumns: bookingDateColumnsFor(bookingDateColumn)}
}

// Validate checks if a row meets requirements.
func (v *Validator) Validate(rec airtable.Record) error {
	if rec.ID == "" {
		return ErrMissingRecordID
	}

	if !has(rec.Fields, v.bookingDateColumns...) {
		return fmt.Errorf("%w: %s", ErrMissingBookingDate, rec.ID)
	}

	if !has(rec.Fields, nameColumns...) &&
		!has(rec.Fields, firstNameColumns...) &&
		!has(rec.Fields, lastNameColumns...) {
		return fmt.Errorf("%w: %s", ErrMissingName, rec.ID)
	}

	return nil
}

func bookingDateColumnsFor(primary string) []string {
	cols := []string{}
	if primary != "" {
		cols = append(cols, primary)
	}

	if primary != "Booking Date" {
		cols = append(cols, "Booking Date")
	}

	return cols
}

package normalizer

import (
	"errors"
	"testing"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator("Booking Date")

	tests := []struct {
		name    string
		rec     airtable.Record
		wantErr error
	}{
		{
			name: "combined name",
			rec:  airtable.Record{ID: "rec1", Fields: airtable.Fields{"Name": "Smith, John", "Booking Date": "2025-09-19"}},
		},
		{
			name: "split name",
			rec:  airtable.Record{ID: "rec2", Fields: airtable.Fields{"Last Name": "Doe", "Booking Date": "2025-09-19"}},
		},
		{
			name:    "missing id",
			rec:     airtable.Record{Fields: airtable.Fields{"Name": "X", "Booking Date": "2025-09-19"}},
			wantErr: ErrMissingRecordID,
		},
		{
			name:    "missing booking date",
			rec:     airtable.Record{ID: "rec3", Fields: airtable.Fields{"Name": "X"}},
			wantErr: ErrMissingBookingDate,
		},
		{
			name:    "blank booking date",
			rec:     airtable.Record{ID: "rec4", Fields: airtable.Fields{"Name": "X", "Booking Date": "  "}},
			wantErr: ErrMissingBookingDate,
		},
		{
			name:    "no name columns",
			rec:     airtable.Record{ID: "rec5", Fields: airtable.Fields{"Booking Date": "2025-09-19"}},
			wantErr: ErrMissingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.rec)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_CustomBookingColumn(t *testing.T) {
	v := NewValidator("Booked At")

	rec := airtable.Record{ID: "rec1", Fields: airtable.Fields{"Name": "X", "Booked At": "2025-09-19"}}
	if err := v.Validate(rec); err != nil {
		t.Errorf("custom column should satisfy validation: %v", err)
	}

	legacy := airtable.Record{ID: "rec2", Fields: airtable.Fields{"Name": "X", "Booking Date": "2025-09-19"}}
	if err := v.Validate(legacy); err != nil {
		t.Errorf("legacy column should still be accepted: %v", err)
	}
}

package models

import (
	"testing"
	"time"
)

func TestMoment_SameDay(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("zoneinfo unavailable")
	}

	day := time.Date(2025, 9, 19, 0, 0, 0, 0, chicago)

	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"late evening local", time.Date(2025, 9, 20, 4, 0, 0, 0, time.UTC), true},
		{"just after local midnight", time.Date(2025, 9, 20, 5, 1, 0, 0, time.UTC), false},
		{"previous day", time.Date(2025, 9, 18, 12, 0, 0, 0, chicago), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Moment{At: tt.at, HasTime: true}
			if got := m.SameDay(day); got != tt.expected {
				t.Errorf("SameDay = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAdvertisementRecord_RunsOn(t *testing.T) {
	ad := &AdvertisementRecord{
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		day      time.Time
		expected bool
	}{
		{time.Date(2025, 9, 1, 23, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 9, 30, 18, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		if got := ad.RunsOn(tt.day); got != tt.expected {
			t.Errorf("RunsOn(%s) = %v, want %v", tt.day.Format(time.DateOnly), got, tt.expected)
		}
	}
}

func TestBookingRecord_InCustody(t *testing.T) {
	b := &BookingRecord{}
	if !b.InCustody() {
		t.Error("record without release should be in custody")
	}

	b.Released = &Moment{At: time.Now()}
	if b.InCustody() {
		t.Error("record with release should not be in custody")
	}
}

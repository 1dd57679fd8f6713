// Package models defines the canonical records shared by the fetcher, renderer and
// advertisement service.
package models

import "time"

// Moment is a point on the local calendar. HasTime is false when the source only
// carried a date, in which case At is local midnight and the time must not be shown.
type Moment struct {
	At      time.Time `json:"at"`
	HasTime bool      `json:"hasTime"`
}

// IsZero reports whether the moment was never set.
func (m Moment) IsZero() bool {
	return m.At.IsZero()
}

// SameDay reports whether the moment falls on the calendar day of day, compared in
// day's location.
func (m Moment) SameDay(day time.Time) bool {
	at := m.At.In(day.Location())
	y1, m1, d1 := at.Date()
	y2, m2, d2 := day.Date()

	return y1 == y2 && m1 == m2 && d1 == d2
}

// BookingRecord is one arrested individual for one booking event.
// Empty optional strings mean the value was not provided.
type BookingRecord struct {
	ID              string        `json:"id"`
	FullName        string        `json:"fullName"`
	Age             string        `json:"age,omitempty"`
	Sex             string        `json:"sex,omitempty"`
	Race            string        `json:"race,omitempty"`
	Height          string        `json:"height,omitempty"`
	Weight          string        `json:"weight,omitempty"`
	Booked          Moment        `json:"booked"`
	Released        *Moment       `json:"released,omitempty"`
	Charges         []ChargeEntry `json:"charges"`
	MugshotURL      string        `json:"mugshotUrl,omitempty"`
	ArrestingAgency string        `json:"arrestingAgency,omitempty"`
	DetailURL       string        `json:"detailUrl,omitempty"`
}

// InCustody reports whether no release has been recorded.
func (b *BookingRecord) InCustody() bool {
	return b.Released == nil
}

// ChargeEntry is one charge within a booking. Degree and BondAmount are raw display text.
type ChargeEntry struct {
	Description string `json:"description"`
	Degree      string `json:"degree,omitempty"`
	BondAmount  string `json:"bondAmount,omitempty"`
}

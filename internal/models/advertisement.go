package models

import "time"

// AdStatus is the moderation state of an advertisement.
type AdStatus string

// Advertisement statuses as stored in the records store.
const (
	AdStatusPendingReview AdStatus = "Pending Review"
	AdStatusApproved      AdStatus = "Approved"
	AdStatusActive        AdStatus = "Active"
	AdStatusRejected      AdStatus = "Rejected"
)

// AdvertisementRecord is a moderatable campaign entry.
type AdvertisementRecord struct {
	ID             string    `json:"id,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	TargetURL      string    `json:"targetUrl"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	AdvertiserName string    `json:"advertiserName"`
	ContactEmail   string    `json:"contactEmail,omitempty"`
	Status         AdStatus  `json:"status,omitempty"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Priority       int       `json:"priority"`
	ClickCount     int       `json:"clickCount"`
	AdminNotes     string    `json:"adminNotes,omitempty"`
	IsFallback     bool      `json:"isFallback,omitempty"`
}

// RunsOn reports whether day lies within the campaign's inclusive date range.
// Only calendar dates are compared.
func (a *AdvertisementRecord) RunsOn(day time.Time) bool {
	d := civil(day)

	return !d.Before(civil(a.StartDate)) && !d.After(civil(a.EndDate))
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package fixtures

import (
	"context"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Source serves one scenario through the same fetch and ad interfaces the live clients
// implement, so fixture articles go through the regular pipeline.
type Source struct {
	Set      *Set
	Scenario string
	Location *time.Location
}

// FetchByDate returns the scenario's bookings on day.
func (s Source) FetchByDate(_ context.Context, day time.Time) ([]models.BookingRecord, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	return s.Set.Scenario(s.Scenario, day, loc)
}

// ActiveAd always offers the sample advertisement.
func (s Source) ActiveAd(context.Context) *models.AdvertisementRecord {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	return MockAd(time.Now().In(loc))
}

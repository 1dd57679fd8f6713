// Package fixtures holds the sample bookings and advertisement the preview server renders.
// They never reach production runs.
package fixtures

import (
	"bytes"
	"encoding/csv"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/bpollino/angelina-jail-activity-automation/internal/charges"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ErrUnknownScenario is returned for a scenario name outside Names.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario names.
const (
	ScenarioDefault      = "default"
	ScenarioNoArrests    = "noArrests"
	ScenarioSingleArrest = "singleArrest"
	ScenarioManyArrests  = "manyArrests"
	ScenarioNoMugshots   = "noMugshots"
	ScenarioAllReleased  = "allReleased"
)

var names = []string{
	ScenarioDefault,
	ScenarioNoArrests,
	ScenarioSingleArrest,
	ScenarioManyArrests,
	ScenarioNoMugshots,
	ScenarioAllReleased,
}

//go:embed bookings.csv
var bookingsCSV []byte

// Row is one line of the embedded bookings sheet. Booked and Released are clock times
// placed on the requested date.
type Row struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Age      string `csv:"age"`
	Sex      string `csv:"sex"`
	Race     string `csv:"race"`
	Height   string `csv:"height"`
	Weight   string `csv:"weight"`
	Booked   string `csv:"booked"`
	Released string `csv:"released"`
	Mugshot  string `csv:"mugshot"`
	Offenses string `csv:"offenses"`
	Degrees  string `csv:"degrees"`
	Bonds    string `csv:"bonds"`
	Agency   string `csv:"agency"`
}

// Set is a decoded fixture sheet.
type Set struct {
	rows []Row
}

// Names lists the scenarios in display order.
func Names() []string {
	return append([]string(nil), names...)
}

// Valid reports whether name is a known scenario.
func Valid(name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

// Default decodes the embedded sheet.
func Default() (*Set, error) {
	return Parse(bookingsCSV)
}

// Parse decodes a bookings sheet.
func Parse(data []byte) (*Set, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for fixtures: %w", err)
	}

	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode fixture CSV data: %w", err)
	}

	return &Set{rows: rows}, nil
}

// Scenario returns the bookings of scenario name on date's calendar day in loc. An empty
// name selects the default scenario.
func (s *Set) Scenario(name string, date time.Time, loc *time.Location) ([]models.BookingRecord, error) {
	if name == "" {
		name = ScenarioDefault
	}

	if !Valid(name) {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownScenario, name, strings.Join(names, ", "))
	}

	if loc == nil {
		loc = time.UTC
	}

	base, err := s.records(date, loc)
	if err != nil {
		return nil, err
	}

	switch name {
	case ScenarioNoArrests:
		return []models.BookingRecord{}, nil
	case ScenarioSingleArrest:
		return base[:1], nil
	case ScenarioManyArrests:
		return many(base), nil
	case ScenarioNoMugshots:
		for i := range base {
			base[i].MugshotURL = ""
		}
	case ScenarioAllReleased:
		at := day(date, loc).Add(20 * time.Hour)
		for i := range base {
			base[i].Released = &models.Moment{At: at, HasTime: true}
		}
	}

	return base, nil
}

// many doubles the base set with renamed copies booked a few minutes after their
// originals, never past the end of the day.
func many(base []models.BookingRecord) []models.BookingRecord {
	out := append([]models.BookingRecord(nil), base...)

	for i, r := range base {
		c := r
		c.ID = fmt.Sprintf("rec%d", 6789012345+i)
		c.Charges = append([]models.ChargeEntry(nil), r.Charges...)

		if last, first, ok := strings.Cut(r.FullName, ", "); ok {
			c.FullName = fmt.Sprintf("%s%d, %s", last, i+6, first)
		}

		c.Booked.At = r.Booked.At.Add(time.Duration(i+1) * time.Minute)
		if end := lastMinute(r.Booked.At); c.Booked.At.After(end) {
			c.Booked.At = end
		}

		out = append(out, c)
	}

	return out
}

func lastMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location())
}

func day(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)

	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (s *Set) records(date time.Time, loc *time.Location) ([]models.BookingRecord, error) {
	parser := charges.NewParser(true)
	midnight := day(date, loc)

	out := make([]models.BookingRecord, 0, len(s.rows))

	for _, row := range s.rows {
		booked, err := clock(midnight, row.Booked)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", row.ID, err)
		}

		rec := models.BookingRecord{
			ID:              row.ID,
			FullName:        row.Name,
			Age:             row.Age,
			Sex:             row.Sex,
			Race:            row.Race,
			Height:          row.Height,
			Weight:          row.Weight,
			Booked:          models.Moment{At: booked, HasTime: true},
			MugshotURL:      row.Mugshot,
			ArrestingAgency: row.Agency,
		}

		if row.Released != "" {
			released, err := clock(midnight, row.Released)
			if err != nil {
				return nil, fmt.Errorf("fixture %s: %w", row.ID, err)
			}

			rec.Released = &models.Moment{At: released, HasTime: true}
		}

		rec.Charges, err = parser.Parse(row.Offenses, row.Degrees, row.Bonds)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", row.ID, err)
		}

		out = append(out, rec)
	}

	return out, nil
}

func clock(midnight time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), t.Hour(), t.Minute(), 0, 0, midnight.Location()), nil
}

// MockAd is the sample advertisement, running for the whole month of date.
func MockAd(date time.Time) *models.AdvertisementRecord {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)

	return &models.AdvertisementRecord{
		ID:             "recAD12345678",
		Title:          "Local Business Advertisement",
		Description:    "Visit our local business for great deals!",
		TargetURL:      "https://example-local-business.com",
		ImageURL:       "https://placehold.co/600x200/007acc/ffffff.png?text=Sample+Advertisement",
		AdvertiserName: "Sample Local Business",
		Status:         models.AdStatusActive,
		StartDate:      start,
		EndDate:        start.AddDate(0, 1, -1),
		Priority:       50,
	}
}

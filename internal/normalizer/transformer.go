package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/charges"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/utils"
)

// Transformer reconciles the column shapes of a bookings row into a BookingRecord.
type Transformer struct {
	loc                *time.Location
	parser             *charges.Parser
	bookingDateColumns []string
	strings            *utils.StringHelper
	logger             *logger.Logger
}

// NewTransformer creates a transformer reading moments on loc's calendar.
func NewTransformer(loc *time.Location, parser *charges.Parser, bookingDateColumn string, log *logger.Logger) *Transformer {
	if loc == nil {
		loc = time.UTC
	}

	if parser == nil {
		parser = charges.NewParser(true)
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Transformer{
		loc:                loc,
		parser:             parser,
		bookingDateColumns: bookingDateColumnsFor(bookingDateColumn),
		strings:            utils.NewStringHelper(),
		logger:             log,
	}
}

// Transform converts one row into a canonical record.
func (t *Transformer) Transform(rec airtable.Record) (*models.BookingRecord, error) {
	f := rec.Fields

	booked, err := ParseMoment(text(f, t.bookingDateColumns...), text(f, bookingTimeColumns...), t.loc)
	if err != nil {
		return nil, fmt.Errorf("booking date of %s: %w", rec.ID, err)
	}

	out := &models.BookingRecord{
		ID:              rec.ID,
		FullName:        t.fullName(f),
		Age:             text(f, ageColumns...),
		Sex:             text(f, sexColumns...),
		Race:            text(f, raceColumns...),
		Height:          text(f, heightColumns...),
		Weight:          text(f, weightColumns...),
		Booked:          booked,
		MugshotURL:      attachmentURL(f, mugshotColumns...),
		ArrestingAgency: text(f, agencyColumns...),
		DetailURL:       text(f, detailColumns...),
	}

	if raw := text(f, releaseDateColumns...); raw != "" {
		released, err := ParseMoment(raw, text(f, releaseTimeColumns...), t.loc)
		if err != nil {
			t.logger.Warn("ignoring unreadable release date", "record", rec.ID, "value", raw)
		} else {
			out.Released = &released
		}
	}

	entries, err := t.parser.Parse(text(f, offenseColumns...), text(f, degreeColumns...), text(f, bondColumns...))
	if err != nil {
		if !errors.Is(err, charges.ErrDelimiterMismatch) {
			return nil, fmt.Errorf("charges of %s: %w", rec.ID, err)
		}

		t.logger.Warn("degrees dropped: offenses and degrees use different delimiters",
			"record", rec.ID, "offenses", text(f, offenseColumns...), "degrees", text(f, degreeColumns...))
	}

	out.Charges = entries

	return out, nil
}

// fullName prefers the combined column and otherwise builds "Last, First Middle".
func (t *Transformer) fullName(f airtable.Fields) string {
	if name := t.strings.NormalizeWhitespace(text(f, nameColumns...)); name != "" {
		return name
	}

	first := t.strings.NormalizeWhitespace(text(f, firstNameColumns...))
	middle := t.strings.NormalizeWhitespace(text(f, middleNameColumns...))
	last := t.strings.NormalizeWhitespace(text(f, lastNameColumns...))

	given := strings.TrimSpace(first + " " + middle)

	switch {
	case last != "" && given != "":
		return last + ", " + given
	case last != "":
		return last
	default:
		return given
	}
}

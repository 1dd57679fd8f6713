// Package fetcher reads the bookings of one local calendar day from the records store.
package fetcher

import (
	"context"
	"sort"
	"time"

	"github.com/ubuntu/decorate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/internal/normalizer"
)

// Options configure a Fetcher.
type Options struct {
	Table             string
	View              string
	BookingDateColumn string
	Location          *time.Location
	StrictDelimiters  bool
	PageSize          int
}

// Fetcher queries the bookings table and normalizes the rows it returns.
type Fetcher struct {
	client    airtable.Client
	processor *normalizer.Processor
	opts      Options
	logger    *logger.Logger
}

// New creates a fetcher over client.
func New(client airtable.Client, opts Options, log *logger.Logger) *Fetcher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	if opts.BookingDateColumn == "" {
		opts.BookingDateColumn = "Booking Date"
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		client: client,
		processor: normalizer.NewProcessor(normalizer.Options{
			Location:          opts.Location,
			BookingDateColumn: opts.BookingDateColumn,
			StrictDelimiters:  opts.StrictDelimiters,
			Logger:            log,
		}),
		opts:   opts,
		logger: log.With("component", "fetcher"),
	}
}

// NewFromConfig creates the fetcher described by cfg.
func NewFromConfig(client airtable.Client, cfg *config.Config, log *logger.Logger) *Fetcher {
	return New(client, Options{
		Table:             cfg.Airtable.TableID,
		View:              cfg.Airtable.ViewID,
		BookingDateColumn: cfg.Airtable.BookingDateField,
		Location:          cfg.Location(),
		StrictDelimiters:  !cfg.Article.AllowMixedDelimiters,
		PageSize:          cfg.Airtable.PageSize,
	}, log)
}

// FetchByDate returns the bookings whose booking moment falls on day's local calendar
// date, ordered by ascending booking time. An empty result is not an error.
func (f *Fetcher) FetchByDate(ctx context.Context, day time.Time) (records []models.BookingRecord, err error) {
	start := StartOfDay(day, f.opts.Location)
	defer decorate.OnError(&err, "could not fetch bookings for %s", start.Format(config.DateLayout))

	rows, err := f.client.List(ctx, f.opts.Table, airtable.ListParams{
		FilterByFormula: Formula(f.opts.BookingDateColumn, start),
		Sort:            []airtable.SortField{{Field: f.opts.BookingDateColumn, Direction: "asc"}},
		View:            f.opts.View,
		PageSize:        f.opts.PageSize,
	})
	if err != nil {
		return nil, err
	}

	normalized, skipped := f.processor.ProcessAll(rows)

	records = make([]models.BookingRecord, 0, len(normalized))
	for _, r := range normalized {
		if r.Booked.SameDay(start) {
			records = append(records, r)
		}
	}

	SortByBooking(records)

	f.logger.Info("fetched bookings",
		"date", start.Format(config.DateLayout),
		"rows", len(rows),
		"skipped", skipped,
		"records", len(records))

	return records, nil
}

// StartOfDay returns local midnight of day's calendar date in loc.
func StartOfDay(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)

	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// Formula is the server-side prefilter for one local day. It is widened by a day on
// each side because date-only cells carry no zone; exact matching happens after
// normalization.
func Formula(column string, start time.Time) string {
	ref := airtable.FieldRef(column)
	lower := start.AddDate(0, 0, -1)
	upper := start.AddDate(0, 0, 2)

	return airtable.And(
		"IS_AFTER("+ref+", "+airtable.Instant(lower)+")",
		"IS_BEFORE("+ref+", "+airtable.Instant(upper)+")",
	)
}

// SortByBooking orders records by booking moment, then by ID so equal moments keep a
// stable order across runs.
func SortByBooking(records []models.BookingRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Booked.At, records[j].Booked.At
		if !a.Equal(b) {
			return a.Before(b)
		}

		return records[i].ID < records[j].ID
	})
}

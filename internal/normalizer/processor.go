// Package normalizer turns raw bookings rows from the records store into canonical
// booking records.
package normalizer

import (
	"fmt"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/charges"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Processor validates then transforms rows.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	logger      *logger.Logger
}

// Options configure a Processor.
type Options struct {
	Location          *time.Location
	BookingDateColumn string
	StrictDelimiters  bool
	Logger            *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	log := opts.Logger.With("component", "normalizer")

	return &Processor{
		validator: NewValidator(opts.BookingDateColumn),
		transformer: NewTransformer(opts.Location, charges.NewParser(opts.StrictDelimiters),
			opts.BookingDateColumn, log),
		logger: log,
	}
}

// Process transforms one row into a canonical record.
func (p *Processor) Process(rec airtable.Record) (*models.BookingRecord, error) {
	// 1. Validate the input data
	if err := p.validator.Validate(rec); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Transform the data
	out, err := p.transformer.Transform(rec)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return out, nil
}

// ProcessAll transforms every row it can. Rows that fail are logged and skipped so one
// malformed entry does not block the day's article; the number skipped is returned.
func (p *Processor) ProcessAll(recs []airtable.Record) ([]models.BookingRecord, int) {
	out := make([]models.BookingRecord, 0, len(recs))
	skipped := 0

	for _, rec := range recs {
		b, err := p.Process(rec)
		if err != nil {
			skipped++

			p.logger.Warn("skipping booking row", "record", rec.ID, "error", err)

			continue
		}

		out = append(out, *b)
	}

	return out, skipped
}

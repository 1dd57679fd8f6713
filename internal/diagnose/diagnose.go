// Package diagnose inspects the records base: its table schemas and the columns the
// bookings table actually carries.
package diagnose

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ubuntu/decorate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/formatter"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/normalizer"
)

// DefaultSampleSize is how many bookings are read to discover populated columns.
const DefaultSampleSize = 10

// Options configure an inspection.
type Options struct {
	BookingsTable     string
	BookingDateColumn string
	SampleSize        int
}

// Coverage is whether one booking attribute was found in the sample.
type Coverage struct {
	Attribute string
	Required  bool
	Column    string
}

// Found reports whether a column carried the attribute.
func (c Coverage) Found() bool {
	return c.Column != ""
}

// Report is the outcome of Inspect.
type Report struct {
	Tables []airtable.Table
	// SchemaError is set when the meta API could not be read. The sample still runs.
	SchemaError string
	Sampled     int
	Columns     []string
	Coverage    []Coverage
}

// Inspect reads the base schema and a sample of bookings.
func Inspect(ctx context.Context, client airtable.Client, opts Options, log *logger.Logger) (report *Report, err error) {
	defer decorate.OnError(&err, "could not inspect table %q", opts.BookingsTable)

	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}

	if log == nil {
		log = logger.Discard()
	}

	report = &Report{}

	tables, err := client.Tables(ctx)
	if err != nil {
		log.Warn("⚠️  could not read base schema", "error", err)
		report.SchemaError = err.Error()
	} else {
		report.Tables = tables
	}

	rows, err := client.List(ctx, opts.BookingsTable, airtable.ListParams{MaxRecords: opts.SampleSize})
	if err != nil {
		return nil, err
	}

	report.Sampled = len(rows)

	seen := map[string]bool{}

	for _, r := range rows {
		for col, v := range r.Fields {
			if v != nil {
				seen[col] = true
			}
		}
	}

	for col := range seen {
		report.Columns = append(report.Columns, col)
	}

	slices.Sort(report.Columns)

	for _, g := range normalizer.ColumnGroups(opts.BookingDateColumn) {
		c := Coverage{Attribute: g.Attribute, Required: g.Required}

		for _, col := range g.Columns {
			if seen[col] {
				c.Column = col
				break
			}
		}

		report.Coverage = append(report.Coverage, c)
	}

	return report, nil
}

// MissingRequired lists required attributes no sampled column carried.
func (r *Report) MissingRequired() []string {
	var out []string

	for _, c := range r.Coverage {
		if c.Required && !c.Found() {
			out = append(out, c.Attribute)
		}
	}

	return out
}

// Markdown renders the report for a terminal.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("## Tables\n\n")

	switch {
	case r.SchemaError != "":
		fmt.Fprintf(&b, "Schema unavailable: %s\n\n", r.SchemaError)
	case len(r.Tables) == 0:
		b.WriteString("No tables.\n\n")
	default:
		rows := make([][]string, 0, len(r.Tables))
		for _, t := range r.Tables {
			names := make([]string, 0, len(t.Fields))
			for _, f := range t.Fields {
				names = append(names, f.Name)
			}

			rows = append(rows, []string{t.Name, t.ID, strconv.Itoa(len(t.Fields)), strings.Join(names, ", ")})
		}

		b.WriteString(formatter.Table([]string{"Table", "ID", "Fields", "Names"}, rows))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "## Booking columns (%d records sampled)\n\n", r.Sampled)

	rows := make([][]string, 0, len(r.Coverage))
	for _, c := range r.Coverage {
		status := "✅ " + c.Column
		if !c.Found() {
			status = "-"
			if c.Required {
				status = "❌ missing"
			}
		}

		rows = append(rows, []string{c.Attribute, status})
	}

	b.WriteString(formatter.Table([]string{"Attribute", "Column"}, rows))
	b.WriteString("\n")

	if len(r.Columns) > 0 {
		fmt.Fprintf(&b, "\nPopulated: %s\n", strings.Join(r.Columns, ", "))
	}

	return b.String()
}

package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ExportRow is one booking flattened for spreadsheets. Charge columns are parallel lists
// joined with "; ".
type ExportRow struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Age      string `csv:"age"`
	Sex      string `csv:"sex"`
	Race     string `csv:"race"`
	Height   string `csv:"height"`
	Weight   string `csv:"weight"`
	Booked   string `csv:"booked"`
	Released string `csv:"released"`
	Agency   string `csv:"agency"`
	Offenses string `csv:"offenses"`
	Degrees  string `csv:"degrees"`
	Bonds    string `csv:"bonds"`
	Mugshot  string `csv:"mugshot"`
	Detail   string `csv:"detail_url"`
}

// ExportRows flattens records.
func ExportRows(records []models.BookingRecord) []ExportRow {
	rows := make([]ExportRow, 0, len(records))

	for _, r := range records {
		row := ExportRow{
			ID:      r.ID,
			Name:    r.FullName,
			Age:     r.Age,
			Sex:     r.Sex,
			Race:    r.Race,
			Height:  r.Height,
			Weight:  r.Weight,
			Booked:  momentText(r.Booked),
			Agency:  r.ArrestingAgency,
			Mugshot: r.MugshotURL,
			Detail:  r.DetailURL,
		}

		if r.Released != nil {
			row.Released = momentText(*r.Released)
		}

		offenses := make([]string, len(r.Charges))
		degrees := make([]string, len(r.Charges))
		bonds := make([]string, len(r.Charges))

		for i, c := range r.Charges {
			offenses[i] = c.Description
			degrees[i] = c.Degree
			bonds[i] = c.BondAmount
		}

		row.Offenses = strings.Join(offenses, "; ")
		row.Degrees = strings.Join(degrees, "; ")
		row.Bonds = strings.Join(bonds, "; ")

		rows = append(rows, row)
	}

	return rows
}

// WriteCSV writes records as CSV with a header line.
func WriteCSV(w io.Writer, records []models.BookingRecord) error {
	rows := ExportRows(records)
	if len(rows) == 0 {
		// Header only.
		header, err := csvutil.Header(ExportRow{}, "csv")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, strings.Join(header, ","))

		return err
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode bookings as CSV: %w", err)
	}

	_, err = w.Write(data)

	return err
}

// momentText is an ISO-style timestamp, or a bare date when no time was recorded.
func momentText(m models.Moment) string {
	if !m.HasTime {
		return m.At.Format("2006-01-02")
	}

	return m.At.Format("2006-01-02 15:04")
}

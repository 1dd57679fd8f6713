package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ChargeWidth is the display width the charge summary is truncated to.
const ChargeWidth = 48

var digestHeaders = []string{"#", "Name", "Booked", "Released", "Agency", "Charges"}

// Digest renders the day's bookings as a titled markdown table for operators. It is
// never published.
func Digest(records []models.BookingRecord, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Booking digest for %s\n\n", article.LongDate(date))

	if len(records) == 0 {
		b.WriteString(article.NoActivityText(date))
		b.WriteString("\n")

		return b.String()
	}

	rows := make([][]string, 0, len(records))

	for i, r := range records {
		released := article.StillInCustody
		if r.Released != nil {
			released = article.FormatMoment(*r.Released)
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			orDash(r.FullName),
			article.FormatMoment(r.Booked),
			released,
			orDash(r.ArrestingAgency),
			chargeSummary(r.Charges),
		})
	}

	b.WriteString(Table(digestHeaders, rows))
	fmt.Fprintf(&b, "\n\nTotal bookings: %d\n", len(records))

	return b.String()
}

func chargeSummary(charges []models.ChargeEntry) string {
	if len(charges) == 0 {
		return article.NoChargesListed
	}

	parts := make([]string, 0, len(charges))
	for _, c := range charges {
		parts = append(parts, c.Description)
	}

	return runewidth.Truncate(strings.Join(parts, "; "), ChargeWidth, "…")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}

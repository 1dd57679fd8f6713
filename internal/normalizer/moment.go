package normalizer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// ErrUnparseableMoment is returned when a date cell matches no known layout.
var ErrUnparseableMoment = errors.New("unrecognized date format")

// Layouts that carry a zone or offset. Parsed values are converted to the local calendar.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// Layouts with a wall-clock time but no zone, read in the local calendar.
var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04PM",
}

// Date-only layouts.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// Time-of-day layouts for separate time columns.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
}

// ParseMoment reads a date cell and an optional separate time cell into a Moment on
// loc's calendar. A time is only recorded when one of the two cells carries it.
func ParseMoment(dateValue, timeValue string, loc *time.Location) (models.Moment, error) {
	dateValue = strings.TrimSpace(dateValue)
	if dateValue == "" {
		return models.Moment{}, ErrUnparseableMoment
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, dateValue); err == nil {
			return models.Moment{At: t.In(loc), HasTime: true}, nil
		}
	}

	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, dateValue, loc); err == nil {
			return models.Moment{At: t, HasTime: true}, nil
		}
	}

	for _, layout := range dateLayouts {
		day, err := time.ParseInLocation(layout, dateValue, loc)
		if err != nil {
			continue
		}

		if h, m, sec, ok := parseClock(timeValue); ok {
			at := time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, 0, loc)

			return models.Moment{At: at, HasTime: true}, nil
		}

		return models.Moment{At: day}, nil
	}

	return models.Moment{}, ErrUnparseableMoment
}

// parseClock reads a time-of-day cell. Duration columns arrive as whole seconds
// since midnight.
func parseClock(v string) (hour, minute, second int, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, 0, false
	}

	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 && secs < 24*3600 {
		return secs / 3600, secs % 3600 / 60, secs % 60, true
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}

	return 0, 0, 0, false
}

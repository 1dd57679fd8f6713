package ads

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Advertisement table columns.
const (
	ColTitle           = "Title"
	ColAdvertiserName  = "Advertiser Name"
	ColEmail           = "Email"
	ColPhone           = "Phone"
	ColBusinessWebsite = "Business Website"
	ColTargetURL       = "Target URL"
	ColDescription     = "Ad Description"
	ColStatus          = "Status"
	ColStartDate       = "Start Date"
	ColEndDate         = "End Date"
	ColSubmissionDate  = "Submission Date"
	ColDailyBudget     = "Daily Budget"
	ColPriority        = "Priority"
	ColClickCount      = "Click Count"
	ColAdminNotes      = "Admin Notes"
	ColImage           = "Ad Image"
)

// Defaults for cells left empty by staff.
const (
	DefaultTitle          = "Advertisement"
	DefaultDescription    = "Local Business Advertisement"
	DefaultAdvertiserName = "Local Business"
	DefaultPriority       = 50
)

// FromRecord decodes one advertisements row.
func FromRecord(rec airtable.Record) models.AdvertisementRecord {
	f := rec.Fields

	ad := models.AdvertisementRecord{
		ID:             rec.ID,
		Title:          orDefault(str(f, ColTitle), DefaultTitle),
		Description:    orDefault(str(f, ColDescription), DefaultDescription),
		TargetURL:      str(f, ColTargetURL),
		ImageURL:       imageURL(f[ColImage]),
		AdvertiserName: orDefault(str(f, ColAdvertiserName), DefaultAdvertiserName),
		ContactEmail:   str(f, ColEmail),
		Status:         models.AdStatus(str(f, ColStatus)),
		StartDate:      date(f, ColStartDate),
		EndDate:        date(f, ColEndDate),
		Priority:       DefaultPriority,
		ClickCount:     integer(f[ColClickCount]),
		AdminNotes:     str(f, ColAdminNotes),
	}

	if _, ok := f[ColPriority]; ok {
		ad.Priority = integer(f[ColPriority])
	}

	return ad
}

func str(f airtable.Fields, col string) string {
	switch v := f[col].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}

// date reads a YYYY-MM-DD cell as a civil date. Unparseable cells give the zero time.
func date(f airtable.Fields, col string) time.Time {
	s := str(f, col)
	if len(s) > len(config.DateLayout) {
		s = s[:len(config.DateLayout)]
	}

	t, err := time.Parse(config.DateLayout, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

func integer(v any) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}

		if fl, err := n.Float64(); err == nil {
			return int(fl)
		}
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}

	return 0
}

func imageURL(v any) string {
	items, ok := v.([]any)
	if !ok {
		return ""
	}

	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if u, ok := m["url"].(string); ok && u != "" {
				return u
			}
		}
	}

	return ""
}

func statusFormula(status models.AdStatus) string {
	return airtable.FieldRef(ColStatus) + " = " + airtable.Quote(string(status))
}

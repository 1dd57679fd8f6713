package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable/airtabletest"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("zoneinfo unavailable")
	}

	return loc
}

func TestFetchByDate_FiltersSortsAndNormalizes(t *testing.T) {
	loc := chicago(t)

	mock := &airtabletest.MockClient{
		ListFunc: func(_ context.Context, _ string, _ airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{
				{ID: "recLate", Fields: airtable.Fields{"Name": "Late", "Booking Date": "2025-09-20T03:00:00.000Z"}},
				{ID: "recEarly", Fields: airtable.Fields{"Name": "Early", "Booking Date": "2025-09-19T13:00:00.000Z"}},
				{ID: "recDateOnly", Fields: airtable.Fields{"Name": "Date Only", "Booking Date": "2025-09-19"}},
				// 05:30 UTC on the 20th is after local midnight.
				{ID: "recNextDay", Fields: airtable.Fields{"Name": "Next", "Booking Date": "2025-09-20T05:30:00.000Z"}},
				{ID: "recPrevDay", Fields: airtable.Fields{"Name": "Prev", "Booking Date": "2025-09-18"}},
				{ID: "recBroken", Fields: airtable.Fields{"Name": "Broken"}},
			}, nil
		},
	}

	f := New(mock, Options{Table: "Jail Records", View: "viwDaily", Location: loc, StrictDelimiters: true}, nil)

	day := time.Date(2025, 9, 19, 15, 0, 0, 0, loc)

	records, err := f.FetchByDate(context.Background(), day)
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	assert.Equal(t, []string{"recDateOnly", "recEarly", "recLate"}, ids)

	calls := mock.CallsTo("List")
	require.Len(t, calls, 1)
	assert.Equal(t, "Jail Records", calls[0].Table)
	assert.Equal(t, "viwDaily", calls[0].Params.View)
	assert.Equal(t, []airtable.SortField{{Field: "Booking Date", Direction: "asc"}}, calls[0].Params.Sort)
	assert.True(t, strings.HasPrefix(calls[0].Params.FilterByFormula, "AND(IS_AFTER({Booking Date}"))
}

func TestFetchByDate_EmptyIsNotAnError(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return nil, nil
		},
	}

	records, err := New(mock, Options{Table: "Jail Records"}, nil).FetchByDate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchByDate_StoreErrorFailsWithContext(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return nil, airtable.ErrUnauthorized
		},
	}

	day := time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)

	_, err := New(mock, Options{Table: "Jail Records"}, nil).FetchByDate(context.Background(), day)
	require.Error(t, err)
	assert.True(t, errors.Is(err, airtable.ErrUnauthorized))
	assert.Contains(t, err.Error(), "2025-09-19")
}

func TestFormula_WidensByOneDay(t *testing.T) {
	start := time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		"AND(IS_AFTER({Booking Date}, '2025-09-18T00:00:00Z'), IS_BEFORE({Booking Date}, '2025-09-21T00:00:00Z'))",
		Formula("Booking Date", start))
}

func TestStartOfDay(t *testing.T) {
	loc := chicago(t)

	got := StartOfDay(time.Date(2025, 9, 20, 3, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, "2025-09-19T00:00:00-05:00", got.Format(time.RFC3339))
}

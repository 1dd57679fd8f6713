package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
)

func newTestClient(t *testing.T, h http.Handler) *RESTClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewRESTClient(Options{
		APIURL:            srv.URL + "/v0",
		APIKey:            "patTest",
		BaseID:            "appTest",
		RequestsPerSecond: 1000,
		Retry: config.RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    1,
			MaxDelayMs:        5,
			BackoffMultiplier: 2,
			TimeoutSec:        5,
		},
	})
	require.NoError(t, err)

	return c
}

func TestNewRESTClient_RequiresCredentials(t *testing.T) {
	_, err := NewRESTClient(Options{APIKey: "pat"})
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestList_FollowsOffsetAndEncodesQuery(t *testing.T) {
	var calls int32

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)

		assert.Equal(t, "/v0/appTest/Jail%20Records", r.URL.EscapedPath())
		assert.Equal(t, "Bearer patTest", r.Header.Get("Authorization"))
		assert.Equal(t, "{Status} = 'Active'", r.URL.Query().Get("filterByFormula"))
		assert.Equal(t, "Booking Date", r.URL.Query().Get("sort[0][field]"))
		assert.Equal(t, "asc", r.URL.Query().Get("sort[0][direction]"))
		assert.Equal(t, "viwGrid", r.URL.Query().Get("view"))

		w.Header().Set("Content-Type", "application/json")

		if n == 1 {
			assert.Empty(t, r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Name":"A","Age":34}}],"offset":"itrNext"}`)

			return
		}

		assert.Equal(t, "itrNext", r.URL.Query().Get("offset"))
		fmt.Fprint(w, `{"records":[{"id":"rec2","fields":{"Name":"B"}}]}`)
	}))

	recs, err := c.List(context.Background(), "Jail Records", ListParams{
		FilterByFormula: "{Status} = 'Active'",
		Sort:            []SortField{{Field: "Booking Date", Direction: "asc"}},
		View:            "viwGrid",
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, json.Number("34"), recs[0].Fields["Age"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestList_MaxRecordsStopsPaging(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("maxRecords"))
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{}},{"id":"rec2","fields":{}}],"offset":"more"}`)
	}))

	recs, err := c.List(context.Background(), "Advertisements", ListParams{MaxRecords: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestDo_RetriesTransientReads(t *testing.T) {
	var calls int32

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		fmt.Fprint(w, `{"id":"rec1","fields":{}}`)
	}))

	rec, err := c.Get(context.Background(), "Advertisements", "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_WritesAreNotRetried(t *testing.T) {
	var calls int32

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Create(context.Background(), "Advertisements", Fields{"Title": "x"})
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_UnauthorizedCarriesScopeHint(t *testing.T) {
	var calls int32

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"type":"INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND","message":"Invalid permissions"}}`)
	}))

	_, err := c.List(context.Background(), "Jail Records", ListParams{})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND")
	assert.Contains(t, err.Error(), "schema.bases:read")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures are not retried")
}

func TestDo_NotFoundStringError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"NOT_FOUND"}`)
	}))

	_, err := c.Get(context.Background(), "Advertisements", "recMissing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestUpdate_SendsPatchWithTypecast(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/appTest/Advertisements/recAd", r.URL.Path)

		body, _ := io.ReadAll(r.Body)

		var got writeRequest
		assert.NoError(t, json.Unmarshal(body, &got))
		assert.True(t, got.Typecast)
		assert.Equal(t, "Approved", got.Fields["Status"])

		fmt.Fprint(w, `{"id":"recAd","fields":{"Status":"Approved"}}`)
	}))

	rec, err := c.Update(context.Background(), "Advertisements", "recAd", Fields{"Status": "Approved"})
	require.NoError(t, err)
	assert.Equal(t, "Approved", rec.Fields["Status"])
}

func TestTables_ReadsMetaEndpoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/meta/bases/appTest/tables", r.URL.Path)
		fmt.Fprint(w, `{"tables":[{"id":"tbl1","name":"Jail Records","fields":[{"id":"fld1","name":"Name","type":"singleLineText"}]}]}`)
	}))

	tables, err := c.Tables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Name", tables[0].Fields[0].Name)
}

func TestDo_ContextCancelStopsRetry(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c.retry.InitialDelayMs = 10_000
	c.retry.MaxDelayMs = 10_000

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "Advertisements", "rec1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormulaHelpers(t *testing.T) {
	assert.Equal(t, `'O\'Brien'`, Quote("O'Brien"))
	assert.Equal(t, "{Booking Date}", FieldRef("Booking Date"))
	assert.Equal(t, "'2025-09-19T05:00:00Z'", Instant(time.Date(2025, 9, 19, 5, 0, 0, 0, time.UTC)))
	assert.Equal(t, "AND(a, b)", And("a", "b"))
}

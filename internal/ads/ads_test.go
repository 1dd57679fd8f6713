package ads

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable/airtabletest"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

var errStoreDown = errors.New("store down")

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func fixedNow() time.Time {
	return time.Date(2025, 9, 19, 10, 0, 0, 0, time.UTC)
}

func newTestService(store Store) *Service {
	s := NewService(store, Options{Table: "Advertisements"}, nil)
	s.now = fixedNow

	return s
}

func civilDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)

	return t
}

func TestSelectActive(t *testing.T) {
	today := civilDate("2025-09-19")

	tests := []struct {
		name       string
		candidates []models.AdvertisementRecord
		wantID     string
	}{
		{
			name:   "none",
			wantID: "",
		},
		{
			name: "out of range",
			candidates: []models.AdvertisementRecord{
				{ID: "a", Priority: 90, StartDate: civilDate("2025-09-20"), EndDate: civilDate("2025-09-30")},
				{ID: "b", Priority: 90, StartDate: civilDate("2025-09-01"), EndDate: civilDate("2025-09-18")},
			},
			wantID: "",
		},
		{
			name: "inclusive bounds",
			candidates: []models.AdvertisementRecord{
				{ID: "a", Priority: 10, StartDate: today, EndDate: today},
			},
			wantID: "a",
		},
		{
			name: "highest priority wins",
			candidates: []models.AdvertisementRecord{
				{ID: "a", Priority: 10, StartDate: civilDate("2025-09-01"), EndDate: civilDate("2025-09-30")},
				{ID: "b", Priority: 80, StartDate: civilDate("2025-09-10"), EndDate: civilDate("2025-09-30")},
			},
			wantID: "b",
		},
		{
			name: "earliest start breaks ties",
			candidates: []models.AdvertisementRecord{
				{ID: "a", Priority: 50, StartDate: civilDate("2025-09-10"), EndDate: civilDate("2025-09-30")},
				{ID: "b", Priority: 50, StartDate: civilDate("2025-09-05"), EndDate: civilDate("2025-09-30")},
			},
			wantID: "b",
		},
		{
			name: "id breaks remaining ties",
			candidates: []models.AdvertisementRecord{
				{ID: "z", Priority: 50, StartDate: civilDate("2025-09-05"), EndDate: civilDate("2025-09-30")},
				{ID: "m", Priority: 50, StartDate: civilDate("2025-09-05"), EndDate: civilDate("2025-09-30")},
			},
			wantID: "m",
		},
		{
			name: "missing dates never run",
			candidates: []models.AdvertisementRecord{
				{ID: "a", Priority: 99},
			},
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectActive(tt.candidates, today)
			if tt.wantID == "" {
				assert.Nil(t, got)

				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestActiveAd_SelectsAndCountsImpression(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(_ context.Context, _ string, _ airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{
				{ID: "recLow", Fields: airtable.Fields{
					ColTitle: "Low", ColStatus: "Active", ColPriority: json.Number("10"),
					ColStartDate: "2025-09-01", ColEndDate: "2025-09-30",
				}},
				{ID: "recHigh", Fields: airtable.Fields{
					ColTitle: "High", ColStatus: "Active", ColPriority: json.Number("90"),
					ColStartDate: "2025-09-15", ColEndDate: "2025-09-25",
					ColTargetURL: "https://high.example.com",
					ColImage:     []any{map[string]any{"url": "https://cdn.example.com/high.png"}},
				}},
			}, nil
		},
		GetFunc: func(_ context.Context, _ string, id string) (*airtable.Record, error) {
			return &airtable.Record{ID: id, Fields: airtable.Fields{ColClickCount: json.Number("41")}}, nil
		},
	}

	ad := newTestService(mock).ActiveAd(context.Background())
	require.NotNil(t, ad)

	assert.Equal(t, "recHigh", ad.ID)
	assert.Equal(t, "High", ad.Title)
	assert.Equal(t, "https://cdn.example.com/high.png", ad.ImageURL)
	assert.Equal(t, DefaultAdvertiserName, ad.AdvertiserName)
	assert.False(t, ad.IsFallback)

	lists := mock.CallsTo("List")
	require.Len(t, lists, 1)
	assert.Equal(t, "{Status} = 'Active'", lists[0].Params.FilterByFormula)

	updates := mock.CallsTo("Update")
	require.Len(t, updates, 1)
	assert.Equal(t, "recHigh", updates[0].ID)
	assert.Equal(t, 42, updates[0].Fields[ColClickCount])
}

func TestActiveAd_NoneQualifies(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{{ID: "recOld", Fields: airtable.Fields{
				ColStatus: "Active", ColStartDate: "2025-01-01", ColEndDate: "2025-01-31",
			}}}, nil
		},
	}

	assert.Nil(t, newTestService(mock).ActiveAd(context.Background()))
	assert.Empty(t, mock.CallsTo("Update"))
}

func TestActiveAd_ReadFailureGivesFallback(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return nil, errStoreDown
		},
	}

	ad := newTestService(mock).ActiveAd(context.Background())
	require.NotNil(t, ad)

	assert.True(t, ad.IsFallback)
	assert.Equal(t, "Angelina411 News", ad.AdvertiserName)
	assert.Equal(t, "Advertise with Angelina411", ad.Title)
	assert.Equal(t, "mailto:advertising@angelina411.com", ad.TargetURL)
	assert.Empty(t, mock.CallsTo("Update"))
}

func TestActiveAd_ClickCountFailureIsSwallowed(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{{ID: "recA", Fields: airtable.Fields{
				ColStatus: "Active", ColStartDate: "2025-09-01", ColEndDate: "2025-09-30",
			}}}, nil
		},
		GetFunc: func(context.Context, string, string) (*airtable.Record, error) {
			return nil, errStoreDown
		},
	}

	ad := newTestService(mock).ActiveAd(context.Background())
	require.NotNil(t, ad)
	assert.Equal(t, "recA", ad.ID)
}

func TestActiveAd_ReadOnlySkipsImpression(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{{ID: "recA", Fields: airtable.Fields{
				ColStatus: "Active", ColStartDate: "2025-09-01", ColEndDate: "2025-09-30",
			}}}, nil
		},
	}

	s := NewService(mock, Options{ReadOnly: true}, nil)
	s.now = fixedNow

	ad := s.ActiveAd(context.Background())
	require.NotNil(t, ad)
	assert.Equal(t, "recA", ad.ID)
	assert.Empty(t, mock.CallsTo("Get"))
	assert.Empty(t, mock.CallsTo("Update"))
}

func validSubmission() Submission {
	return Submission{
		BusinessName:  "Joe's Bail Bonds",
		ContactEmail:  "joe@example.com",
		TargetURL:     "https://joes.example.com",
		AdDescription: "Open 24/7",
		StartDate:     "2025-09-20",
		EndDate:       "2025-10-20",
	}
}

func validImage() *Image {
	return &Image{Filename: "ad.png", ContentType: "image/png", Data: pngHeader}
}

func TestSubmit_ValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Submission, **Image)
		wantField string
	}{
		{"missing business", func(s *Submission, _ **Image) { s.BusinessName = " " }, "businessName"},
		{"missing end before bad email", func(s *Submission, _ **Image) {
			s.EndDate = ""
			s.ContactEmail = "nope"
		}, "endDate"},
		{"missing image", func(_ *Submission, img **Image) { *img = nil }, "adImage"},
		{"not an image", func(_ *Submission, img **Image) {
			*img = &Image{Filename: "a.txt", ContentType: "image/png", Data: []byte("hello world")}
		}, "adImage"},
		{"declared non-image", func(_ *Submission, img **Image) {
			*img = &Image{Filename: "a.png", ContentType: "application/pdf", Data: pngHeader}
		}, "adImage"},
		{"too large", func(_ *Submission, img **Image) {
			data := make([]byte, MaxImageSize+1)
			copy(data, pngHeader)
			*img = &Image{Filename: "big.png", ContentType: "image/png", Data: data}
		}, "adImage"},
		{"bad email", func(s *Submission, _ **Image) { s.ContactEmail = "joe-at-example" }, "contactEmail"},
		{"relative url", func(s *Submission, _ **Image) { s.TargetURL = "joes.example.com" }, "targetUrl"},
		{"bad start", func(s *Submission, _ **Image) { s.StartDate = "09/20/2025" }, "startDate"},
		{"end equals start", func(s *Submission, _ **Image) { s.EndDate = s.StartDate }, "endDate"},
		{"end before start", func(s *Submission, _ **Image) { s.EndDate = "2025-09-01" }, "endDate"},
		{"start in past", func(s *Submission, _ **Image) {
			s.StartDate = "2025-09-18"
			s.EndDate = "2025-09-30"
		}, "startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &airtabletest.MockClient{}
			sub, img := validSubmission(), validImage()
			tt.mutate(&sub, &img)

			_, err := newTestService(mock).Submit(context.Background(), sub, img)
			require.Error(t, err)

			ve, ok := IsValidationError(err)
			require.True(t, ok, "want *ValidationError, got %T", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Empty(t, mock.Calls(), "nothing may be written on validation failure")
		})
	}
}

func TestSubmit_StartTodayIsAllowed(t *testing.T) {
	sub := validSubmission()
	sub.StartDate = "2025-09-19"

	assert.Nil(t, newTestService(&airtabletest.MockClient{}).Validate(sub, validImage()))
}

func TestSubmit_CreatesPendingRecordAndAttachesImage(t *testing.T) {
	mock := &airtabletest.MockClient{
		CreateFunc: func(_ context.Context, _ string, fields airtable.Fields) (*airtable.Record, error) {
			return &airtable.Record{ID: "recNew", Fields: fields}, nil
		},
	}

	res, err := newTestService(mock).Submit(context.Background(), validSubmission(), validImage())
	require.NoError(t, err)

	assert.Equal(t, "recNew", res.RecordID)
	assert.Equal(t, models.AdStatusPendingReview, res.Status)
	assert.True(t, res.ImageAttached)

	creates := mock.CallsTo("Create")
	require.Len(t, creates, 1)

	f := creates[0].Fields
	assert.Equal(t, "Joe's Bail Bonds - 9/19/2025", f[ColTitle])
	assert.Equal(t, "Pending Review", f[ColStatus])
	assert.Equal(t, DefaultPriority, f[ColPriority])
	assert.Equal(t, 0, f[ColClickCount])
	assert.Equal(t, "2025-09-19", f[ColSubmissionDate])
	assert.Equal(t, "joe@example.com", f[ColEmail])

	updates := mock.CallsTo("Update")
	require.Len(t, updates, 1)

	att, ok := updates[0].Fields[ColImage].([]airtable.Attachment)
	require.True(t, ok)
	require.Len(t, att, 1)
	assert.Equal(t, "ad.png", att[0].Filename)
	assert.Contains(t, att[0].URL, "data:image/png;base64,")
}

func TestSubmit_ImageFailureKeepsRecord(t *testing.T) {
	mock := &airtabletest.MockClient{
		CreateFunc: func(context.Context, string, airtable.Fields) (*airtable.Record, error) {
			return &airtable.Record{ID: "recNew"}, nil
		},
		UpdateFunc: func(context.Context, string, string, airtable.Fields) (*airtable.Record, error) {
			return nil, errStoreDown
		},
	}

	res, err := newTestService(mock).Submit(context.Background(), validSubmission(), validImage())
	require.NoError(t, err)
	assert.Equal(t, "recNew", res.RecordID)
	assert.False(t, res.ImageAttached)
}

func TestSubmit_CreateFailure(t *testing.T) {
	mock := &airtabletest.MockClient{
		CreateFunc: func(context.Context, string, airtable.Fields) (*airtable.Record, error) {
			return nil, errStoreDown
		},
	}

	_, err := newTestService(mock).Submit(context.Background(), validSubmission(), validImage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))

	_, isValidation := IsValidationError(err)
	assert.False(t, isValidation)
}

func TestReview(t *testing.T) {
	tests := []struct {
		action     string
		wantStatus models.AdStatus
		wantErr    error
	}{
		{ActionApprove, models.AdStatusApproved, nil},
		{ActionReject, models.AdStatusRejected, nil},
		{"publish", "", ErrInvalidAction},
		{"", "", ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			mock := &airtabletest.MockClient{}

			res, err := newTestService(mock).Review(context.Background(), "recA", tt.action, "looks good")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Empty(t, mock.Calls())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)

			updates := mock.CallsTo("Update")
			require.Len(t, updates, 1)
			assert.Equal(t, string(tt.wantStatus), updates[0].Fields[ColStatus])
			assert.Equal(t, "looks good", updates[0].Fields[ColAdminNotes])
		})
	}
}

func TestReview_MissingID(t *testing.T) {
	_, err := newTestService(&airtabletest.MockClient{}).Review(context.Background(), "", ActionApprove, "")
	assert.True(t, errors.Is(err, ErrMissingID))
}

func TestStats(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{
				{Fields: airtable.Fields{ColStatus: "Pending Review"}},
				{Fields: airtable.Fields{ColStatus: "Pending Review"}},
				{Fields: airtable.Fields{ColStatus: "Approved"}},
				{Fields: airtable.Fields{ColStatus: "Active"}},
				{Fields: airtable.Fields{ColStatus: "Rejected"}},
				{Fields: airtable.Fields{}},
			}, nil
		},
	}

	stats, err := newTestService(mock).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{Total: 6, Pending: 2, Approved: 1, Active: 1, Rejected: 1}, stats)
}

func TestPending(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return []airtable.Record{{ID: "recP", Fields: airtable.Fields{
				ColTitle: "P", ColStatus: "Pending Review", ColEmail: "p@example.com",
			}}}, nil
		},
	}

	pending, err := newTestService(mock).Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p@example.com", pending[0].ContactEmail)

	calls := mock.CallsTo("List")
	require.Len(t, calls, 1)
	assert.Equal(t, "{Status} = 'Pending Review'", calls[0].Params.FilterByFormula)
	assert.Equal(t, []airtable.SortField{{Field: ColSubmissionDate, Direction: "desc"}}, calls[0].Params.Sort)
}

func TestPending_StoreError(t *testing.T) {
	mock := &airtabletest.MockClient{
		ListFunc: func(context.Context, string, airtable.ListParams) ([]airtable.Record, error) {
			return nil, errStoreDown
		},
	}

	_, err := newTestService(mock).Pending(context.Background())
	assert.True(t, errors.Is(err, errStoreDown))
}

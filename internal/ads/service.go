// Package ads selects the advertisement shown in an article and runs the submission and
// moderation workflow against the advertisements table.
package ads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ubuntu/decorate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// Service errors.
var (
	ErrInvalidAction = errors.New(`invalid action, must be "approve" or "reject"`)
	ErrMissingID     = errors.New("record ID is required")
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// DefaultClickTimeout bounds the best-effort click counter update.
const DefaultClickTimeout = 3 * time.Second

// Store is the subset of the records store the service uses.
type Store interface {
	List(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error)
	Get(ctx context.Context, table, id string) (*airtable.Record, error)
	Create(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error)
	Update(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

// Options configure a Service.
type Options struct {
	Table        string
	Location     *time.Location
	ClickTimeout time.Duration
	// ReadOnly skips the impression counter, for renders that are never published.
	ReadOnly bool
}

// Service reads and moderates advertisements.
type Service struct {
	store  Store
	opts   Options
	now    func() time.Time
	logger *logger.Logger
}

// Stats counts advertisements per status.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Active   int `json:"active"`
	Rejected int `json:"rejected"`
}

// ReviewResult is the outcome of a moderation decision.
type ReviewResult struct {
	RecordID string          `json:"recordId"`
	Status   models.AdStatus `json:"status"`
}

// NewService creates a service over store.
func NewService(store Store, opts Options, log *logger.Logger) *Service {
	if opts.Table == "" {
		opts.Table = "Advertisements"
	}

	if opts.Location == nil {
		opts.Location = time.UTC
	}

	if opts.ClickTimeout <= 0 {
		opts.ClickTimeout = DefaultClickTimeout
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Service{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: log.With("component", "ads"),
	}
}

// OptionsFromConfig maps cfg onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Table: cfg.Ads.Table, Location: cfg.Location()}
}

// NewServiceFromConfig creates the service described by cfg.
func NewServiceFromConfig(store Store, cfg *config.Config, log *logger.Logger) *Service {
	return NewService(store, OptionsFromConfig(cfg), log)
}

// FallbackAd is the house advertisement shown when the store cannot be read.
func FallbackAd() *models.AdvertisementRecord {
	return &models.AdvertisementRecord{
		Title:          "Advertise with Angelina411",
		Description:    "Reach thousands of local readers daily. Contact us to advertise in our jail activity articles.",
		TargetURL:      "mailto:advertising@angelina411.com",
		AdvertiserName: "Angelina411 News",
		IsFallback:     true,
	}
}

// SelectActive picks the campaign to run on today: the highest priority among those whose
// date range contains today, then the earliest start, then the lowest ID.
func SelectActive(candidates []models.AdvertisementRecord, today time.Time) *models.AdvertisementRecord {
	var running []models.AdvertisementRecord

	for _, ad := range candidates {
		if ad.StartDate.IsZero() || ad.EndDate.IsZero() {
			continue
		}

		if ad.RunsOn(today) {
			running = append(running, ad)
		}
	}

	if len(running) == 0 {
		return nil
	}

	sort.SliceStable(running, func(i, j int) bool {
		a, b := running[i], running[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}

		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}

		return a.ID < b.ID
	})

	return &running[0]
}

// today is the current civil date in the service's calendar.
func (s *Service) today() time.Time {
	n := s.now().In(s.opts.Location)

	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// ActiveAd returns the advertisement to place in today's article, or nil when nothing
// qualifies. A store failure yields FallbackAd and is never returned as an error.
func (s *Service) ActiveAd(ctx context.Context) *models.AdvertisementRecord {
	rows, err := s.store.List(ctx, s.opts.Table, airtable.ListParams{
		FilterByFormula: statusFormula(models.AdStatusActive),
		Sort: []airtable.SortField{
			{Field: ColPriority, Direction: "desc"},
			{Field: ColStartDate, Direction: "asc"},
		},
	})
	if err != nil {
		s.logger.Warn("could not read advertisements, using fallback", "error", err)

		return FallbackAd()
	}

	candidates := make([]models.AdvertisementRecord, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, FromRecord(r))
	}

	ad := SelectActive(candidates, s.today())
	if ad == nil {
		s.logger.Info("no active advertisement", "candidates", len(candidates))

		return nil
	}

	s.logger.Info("active advertisement selected",
		"id", ad.ID,
		"title", ad.Title,
		"advertiser", ad.AdvertiserName,
		"start", ad.StartDate.Format(config.DateLayout),
		"end", ad.EndDate.Format(config.DateLayout))

	if !s.opts.ReadOnly {
		s.recordImpression(ctx, ad.ID)
	}

	return ad
}

// recordImpression increments Click Count. Failures are logged and swallowed.
func (s *Service) recordImpression(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ClickTimeout)
	defer cancel()

	rec, err := s.store.Get(ctx, s.opts.Table, id)
	if err != nil {
		s.logger.Warn("could not update advertisement view count", "id", id, "error", err)

		return
	}

	count := integer(rec.Fields[ColClickCount]) + 1

	if _, err := s.store.Update(ctx, s.opts.Table, id, airtable.Fields{ColClickCount: count}); err != nil {
		s.logger.Warn("could not update advertisement view count", "id", id, "error", err)
	}
}

// Review moves a submission to Approved or Rejected and stores the admin notes.
func (s *Service) Review(ctx context.Context, id, action, notes string) (res *ReviewResult, err error) {
	var status models.AdStatus

	switch action {
	case ActionApprove:
		status = models.AdStatusApproved
	case ActionReject:
		status = models.AdStatusRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	if id == "" {
		return nil, ErrMissingID
	}

	defer decorate.OnError(&err, "could not review advertisement %s", id)

	if _, err := s.store.Update(ctx, s.opts.Table, id, airtable.Fields{
		ColStatus:     string(status),
		ColAdminNotes: notes,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("advertisement reviewed", "id", id, "status", status)

	return &ReviewResult{RecordID: id, Status: status}, nil
}

// Pending lists submissions awaiting review, newest first.
func (s *Service) Pending(ctx context.Context) (ads []models.AdvertisementRecord, err error) {
	defer decorate.OnError(&err, "could not list pending advertisements")

	rows, err := s.store.List(ctx, s.opts.Table, airtable.ListParams{
		FilterByFormula: statusFormula(models.AdStatusPendingReview),
		Sort:            []airtable.SortField{{Field: ColSubmissionDate, Direction: "desc"}},
	})
	if err != nil {
		return nil, err
	}

	ads = make([]models.AdvertisementRecord, 0, len(rows))
	for _, r := range rows {
		ads = append(ads, FromRecord(r))
	}

	return ads, nil
}

// Stats counts every advertisement by status.
func (s *Service) Stats(ctx context.Context) (stats *Stats, err error) {
	defer decorate.OnError(&err, "could not compute advertisement stats")

	rows, err := s.store.List(ctx, s.opts.Table, airtable.ListParams{Fields: []string{ColStatus}})
	if err != nil {
		return nil, err
	}

	stats = &Stats{Total: len(rows)}

	for _, r := range rows {
		switch models.AdStatus(str(r.Fields, ColStatus)) {
		case models.AdStatusPendingReview:
			stats.Pending++
		case models.AdStatusApproved:
			stats.Approved++
		case models.AdStatusActive:
			stats.Active++
		case models.AdStatusRejected:
			stats.Rejected++
		}
	}

	return stats, nil
}

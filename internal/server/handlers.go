package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ads"
	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/internal/pipeline"
	"github.com/bpollino/angelina-jail-activity-automation/internal/validator"
)

// Upload limits. The form may carry a little text next to the image.
const (
	imageField      = "adImage"
	maxFormOverhead = 1 << 20
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.wrap(route, h))
	}

	handle("GET /{$}", "index", s.handleIndex)
	handle("GET /preview", "preview", s.handlePreview)
	handle("GET /api/booking-data", "booking_data", s.handleBookingData)
	handle("GET /api/advertisement-data", "advertisement_data", s.handleAdvertisementData)
	handle("GET /api/generate-preview", "generate_preview", s.handleGeneratePreview)
	handle("POST /api/submit-advertisement", "submit_advertisement", s.handleSubmitAdvertisement)
	handle("GET /api/advertisement-stats", "advertisement_stats", s.handleAdvertisementStats)
	handle("GET /api/pending-advertisements", "pending_advertisements", s.handlePendingAdvertisements)
	handle("POST /api/review-advertisement/{recordId}", "review_advertisement", s.handleReviewAdvertisement)
	handle("GET /healthz", "healthz", s.handleHealth)

	if s.opts.OutputDir != "" {
		mux.Handle("GET /output/", s.metrics.wrap("output",
			http.StripPrefix("/output/", http.FileServer(http.Dir(s.opts.OutputDir)))))
	}

	mux.Handle("GET /metrics", s.metrics.handler())

	var h http.Handler = mux
	h = recoveryMiddleware(s.logger, h)
	h = accessLogMiddleware(s.logger, h)
	h = requestIDMiddleware(h)

	return h
}

// previewParams are the query parameters shared by the preview endpoints.
type previewParams struct {
	Scenario string
	Date     time.Time
	Format   string
}

func (s *Server) parsePreviewParams(r *http.Request) (previewParams, *errorBody) {
	q := r.URL.Query()

	p := previewParams{
		Scenario: q.Get("scenario"),
		Date:     s.previewDate(),
		Format:   q.Get("format"),
	}

	if p.Scenario == "" {
		p.Scenario = fixtures.ScenarioDefault
	}

	if !fixtures.Valid(p.Scenario) {
		return p, &errorBody{
			Code:    codeUnknownScen,
			Message: fmt.Sprintf("unknown scenario %q, valid scenarios: %s", p.Scenario, strings.Join(fixtures.Names(), ", ")),
			Field:   "scenario",
		}
	}

	if raw := q.Get("date"); raw != "" {
		d, err := time.ParseInLocation(config.DateLayout, raw, s.opts.Location)
		if err != nil {
			return p, &errorBody{Code: codeBadRequest, Message: "date must be formatted YYYY-MM-DD", Field: "date"}
		}

		p.Date = d
	}

	if p.Format == "" {
		p.Format = config.FormatHTML
	}

	if p.Format != config.FormatHTML && p.Format != config.FormatLexical {
		return p, &errorBody{Code: codeBadRequest, Message: "format must be html or lexical", Field: "format"}
	}

	return p, nil
}

// rendered is one preview article.
type rendered struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Date       string `json:"date"`
	Scenario   string `json:"scenario"`
	Format     string `json:"format"`
	Body       string `json:"body"`
	Records    int    `json:"recordCount"`
	Valid      bool   `json:"valid"`
	Validation string `json:"validation"`
}

func (s *Server) render(p previewParams) (*rendered, error) {
	records, err := s.opts.Fixtures.Scenario(p.Scenario, p.Date, s.opts.Location)
	if err != nil {
		return nil, err
	}

	doc := article.Build(records, p.Date, fixtures.MockAd(p.Date), s.opts.Article)

	body, err := pipeline.Serialize(doc, p.Format)
	if err != nil {
		return nil, err
	}

	result := pipeline.Validate(validator.NewArticleValidator(), body, p.Format, len(records))
	for _, e := range result.Errors {
		s.logger.Warn("preview failed validation", "scenario", p.Scenario, "error", e.Message)
	}

	s.metrics.previews.WithLabelValues(p.Scenario, p.Format).Inc()

	return &rendered{
		Title:      doc.Title,
		Slug:       s.opts.Article.Masthead.Slug(p.Date),
		Date:       p.Date.Format(config.DateLayout),
		Scenario:   p.Scenario,
		Format:     p.Format,
		Body:       body,
		Records:    len(records),
		Valid:      result.IsValid,
		Validation: result.String(),
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonSuccess(w, r, map[string]any{"status": "ok", "adsConfigured": s.opts.Ads != nil}, nil)
}

func (s *Server) handleBookingData(w http.ResponseWriter, r *http.Request) {
	p, perr := s.parsePreviewParams(r)
	if perr != nil {
		jsonError(w, r, http.StatusBadRequest, perr.Code, perr.Message, perr.Field)
		return
	}

	records, err := s.opts.Fixtures.Scenario(p.Scenario, p.Date, s.opts.Location)
	if err != nil {
		jsonError(w, r, http.StatusInternalServerError, codeInternal, err.Error(), "")
		return
	}

	jsonSuccess(w, r, records, map[string]any{"count": len(records), "scenario": p.Scenario})
}

func (s *Server) handleAdvertisementData(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ads == nil {
		jsonSuccess(w, r, fixtures.MockAd(s.previewDate()), map[string]any{"source": "fixture"})
		return
	}

	ad := s.opts.Ads.ActiveAd(r.Context())
	jsonSuccess(w, r, ad, map[string]any{"source": "live"})
}

func (s *Server) handleGeneratePreview(w http.ResponseWriter, r *http.Request) {
	p, perr := s.parsePreviewParams(r)
	if perr != nil {
		jsonError(w, r, http.StatusBadRequest, perr.Code, perr.Message, perr.Field)
		return
	}

	out, err := s.render(p)
	if err != nil {
		jsonError(w, r, http.StatusInternalServerError, codeInternal, err.Error(), "")
		return
	}

	jsonSuccess(w, r, out, nil)
}

func (s *Server) requireAds(w http.ResponseWriter, r *http.Request) bool {
	if s.opts.Ads != nil {
		return true
	}

	jsonError(w, r, http.StatusServiceUnavailable, codeUnavailable, "advertisement store is not configured", "")

	return false
}

func (s *Server) handleSubmitAdvertisement(w http.ResponseWriter, r *http.Request) {
	if !s.requireAds(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ads.MaxImageSize+maxFormOverhead)

	if err := r.ParseMultipartForm(ads.MaxImageSize + maxFormOverhead); err != nil {
		s.metrics.submits.WithLabelValues("rejected").Inc()

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, r, http.StatusBadRequest, codeTooLarge, "File size too large. Maximum size is 5MB.", imageField)
			return
		}

		jsonError(w, r, http.StatusBadRequest, codeBadRequest, "invalid multipart form", "")

		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sub := ads.Submission{
		BusinessName:    r.FormValue("businessName"),
		ContactEmail:    r.FormValue("contactEmail"),
		TargetURL:       r.FormValue("targetUrl"),
		AdDescription:   r.FormValue("adDescription"),
		StartDate:       r.FormValue("startDate"),
		EndDate:         r.FormValue("endDate"),
		ContactPhone:    r.FormValue("contactPhone"),
		BusinessWebsite: r.FormValue("businessWebsite"),
		DailyBudget:     r.FormValue("dailyBudget"),
		AdditionalNotes: r.FormValue("additionalNotes"),
	}

	img, err := readImage(r)
	if err != nil {
		s.metrics.submits.WithLabelValues("rejected").Inc()
		jsonError(w, r, http.StatusBadRequest, codeBadRequest, err.Error(), imageField)

		return
	}

	res, err := s.opts.Ads.Submit(r.Context(), sub, img)
	if err != nil {
		if ve, ok := ads.IsValidationError(err); ok {
			s.metrics.submits.WithLabelValues("rejected").Inc()
			jsonError(w, r, http.StatusBadRequest, codeValidation, ve.Message, ve.Field)

			return
		}

		s.metrics.submits.WithLabelValues("failed").Inc()
		s.logger.Error("advertisement submission failed", "error", err, "request_id", RequestIDFrom(r))
		jsonError(w, r, http.StatusBadGateway, codeUpstream, "Failed to submit to database. Please try again.", "")

		return
	}

	s.metrics.submits.WithLabelValues("accepted").Inc()
	jsonSuccess(w, r, res, map[string]any{"message": "Advertisement submitted successfully"})
}

// readImage returns the uploaded image, or nil when the form has none.
func readImage(r *http.Request) (*ads.Image, error) {
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imageField, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ads.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imageField, err)
	}

	return &ads.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (s *Server) handleAdvertisementStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireAds(w, r) {
		return
	}

	stats, err := s.opts.Ads.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch advertisement stats", "error", err)
		jsonError(w, r, http.StatusBadGateway, codeUpstream, "Failed to fetch statistics", "")

		return
	}

	jsonSuccess(w, r, stats, nil)
}

func (s *Server) handlePendingAdvertisements(w http.ResponseWriter, r *http.Request) {
	if !s.requireAds(w, r) {
		return
	}

	pending, err := s.opts.Ads.Pending(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch pending advertisements", "error", err)
		jsonError(w, r, http.StatusBadGateway, codeUpstream, "Failed to fetch pending advertisements", "")

		return
	}

	if pending == nil {
		pending = []models.AdvertisementRecord{}
	}

	jsonSuccess(w, r, pending, map[string]any{"count": len(pending)})
}

type reviewRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

func (s *Server) handleReviewAdvertisement(w http.ResponseWriter, r *http.Request) {
	if !s.requireAds(w, r) {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, r, http.StatusBadRequest, codeBadRequest, "request body must be JSON with action and notes", "")
		return
	}

	res, err := s.opts.Ads.Review(r.Context(), r.PathValue("recordId"), req.Action, req.Notes)

	switch {
	case errors.Is(err, ads.ErrInvalidAction):
		jsonError(w, r, http.StatusBadRequest, codeInvalidAction, `Invalid action. Must be "approve" or "reject"`, "action")
	case errors.Is(err, ads.ErrMissingID):
		jsonError(w, r, http.StatusBadRequest, codeBadRequest, err.Error(), "recordId")
	case err != nil:
		s.logger.Error("failed to review advertisement", "error", err, "id", r.PathValue("recordId"))
		jsonError(w, r, http.StatusBadGateway, codeUpstream, "Failed to update advertisement status", "")
	default:
		jsonSuccess(w, r, res, nil)
	}
}

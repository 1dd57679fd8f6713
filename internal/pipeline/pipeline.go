// Package pipeline runs one daily article end to end: fetch the day's bookings, pick the
// advertisement, build and serialize the article, validate it and publish it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ubuntu/decorate"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/formatter"
	"github.com/bpollino/angelina-jail-activity-automation/internal/ghost"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
	"github.com/bpollino/angelina-jail-activity-automation/internal/validator"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/metadata"
)

// ErrNoPublisher is returned by Run when publishing was requested without a publisher.
var ErrNoPublisher = errors.New("no publisher configured")

// Fetcher reads the bookings of one local day.
type Fetcher interface {
	FetchByDate(ctx context.Context, day time.Time) ([]models.BookingRecord, error)
}

// AdSource picks the advertisement for today's article.
type AdSource interface {
	ActiveAd(ctx context.Context) *models.AdvertisementRecord
}

// Publisher sends a rendered article to the CMS.
type Publisher interface {
	Publish(ctx context.Context, req ghost.Request) (*ghost.Post, error)
}

// Options configure a Runner.
type Options struct {
	Article        article.Options
	Format         string
	Status         string
	DryRun         bool
	OutputDir      string
	FetchTimeout   time.Duration
	PublishTimeout time.Duration
}

// Result is everything one run produced.
type Result struct {
	Date       time.Time
	Records    []models.BookingRecord
	Ad         *models.AdvertisementRecord
	Document   *article.Document
	Format     string
	Body       string
	Digest     string
	Validation *validator.ValidationResult
	OutputPath string
	Post       *ghost.Post
}

// Runner executes the pipeline. Ads and publisher may be nil.
type Runner struct {
	fetcher   Fetcher
	ads       AdSource
	publisher Publisher
	validator *validator.ArticleValidator
	opts      Options
	now       func() time.Time
	logger    *logger.Logger
}

// New creates a runner.
func New(f Fetcher, ads AdSource, pub Publisher, opts Options, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}

	if opts.Format == "" {
		opts.Format = config.FormatHTML
	}

	return &Runner{
		fetcher:   f,
		ads:       ads,
		publisher: pub,
		validator: validator.NewArticleValidator(),
		opts:      opts,
		now:       time.Now,
		logger:    log.With("component", "pipeline"),
	}
}

// OptionsFromConfig maps cfg onto runner options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Article: article.Options{
			Masthead:  ghost.MastheadFromConfig(cfg),
			ShowBonds: cfg.Article.ShowBonds,
		},
		Format:         cfg.Article.Format,
		Status:         cfg.Article.Status,
		FetchTimeout:   cfg.Retry.GetTimeout(),
		PublishTimeout: cfg.Ghost.PublishTimeout(),
	}
}

// Serialize renders doc in format.
func Serialize(doc *article.Document, format string) (string, error) {
	switch format {
	case config.FormatHTML, "":
		return article.RenderHTML(doc), nil
	case config.FormatLexical:
		raw, err := article.RenderLexical(doc)
		if err != nil {
			return "", err
		}

		return string(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ghost.ErrInvalidFormat, format)
	}
}

// Validate checks a serialized body against the number of bookings it should present.
func Validate(v *validator.ArticleValidator, body, format string, expected int) *validator.ValidationResult {
	if format == config.FormatLexical {
		return v.ValidateLexical([]byte(body), expected)
	}

	return v.ValidateHTML(body, expected)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}

// Render runs every phase up to validation. An article that fails validation is
// returned together with an error wrapping validator.ErrInvalidArticle.
func (r *Runner) Render(ctx context.Context, date time.Time) (res *Result, err error) {
	defer decorate.OnError(&err, "could not render article for %s", date.Format(config.DateLayout))

	res = &Result{Date: date, Format: r.opts.Format}

	r.logger.Info("📥 Phase 1: fetching bookings", "date", date.Format(config.DateLayout))

	fetchCtx, cancel := withTimeout(ctx, r.opts.FetchTimeout)
	res.Records, err = r.fetcher.FetchByDate(fetchCtx, date)
	cancel()

	if err != nil {
		return nil, err
	}

	r.logger.Info("✅ bookings fetched", "records", len(res.Records))

	if r.ads != nil {
		r.logger.Info("📢 Phase 2: selecting advertisement")

		res.Ad = r.ads.ActiveAd(ctx)
		if res.Ad == nil {
			r.logger.Info("ℹ️  no advertisement today")
		}
	}

	r.logger.Info("🧱 Phase 3: building article", "format", r.opts.Format)

	res.Document = article.Build(res.Records, date, res.Ad, r.opts.Article)

	res.Body, err = Serialize(res.Document, r.opts.Format)
	if err != nil {
		return nil, err
	}

	res.Digest = formatter.Digest(res.Records, date)

	r.logger.Info("🔍 Phase 4: validating article")

	res.Validation = Validate(r.validator, res.Body, r.opts.Format, len(res.Records))
	for _, w := range res.Validation.Warnings {
		r.logger.Warn("⚠️  " + w)
	}

	if err := res.Validation.Err(); err != nil {
		return res, err
	}

	r.logger.Info("✅ article valid", "summary", res.Validation.String())

	return res, nil
}

// Run renders the article, writes it to OutputDir when set, and publishes it unless the
// runner is in dry-run mode.
func (r *Runner) Run(ctx context.Context, date time.Time) (res *Result, err error) {
	start := r.now()

	res, err = r.Render(ctx, date)
	if err != nil {
		if r.opts.DryRun && r.opts.OutputDir != "" && res != nil && res.Validation != nil {
			r.writeUnvalidated(res)
		}

		return res, err
	}

	defer decorate.OnError(&err, "could not publish article for %s", date.Format(config.DateLayout))

	if r.opts.OutputDir != "" {
		res.OutputPath, err = WriteSigned(r.opts.OutputDir, res, r.opts.Article.Masthead, r.now())
		if err != nil {
			return res, err
		}

		r.logger.Info("💾 article written", "path", res.OutputPath)
	}

	if r.opts.DryRun {
		r.logger.Info("🧪 dry run, skipping publish", "title", res.Document.Title)
		return res, nil
	}

	if r.publisher == nil {
		return res, ErrNoPublisher
	}

	r.logger.Info("🚀 Phase 5: publishing", "title", res.Document.Title, "status", r.opts.Status)

	pubCtx, cancel := withTimeout(ctx, r.opts.PublishTimeout)
	defer cancel()

	res.Post, err = r.publisher.Publish(pubCtx, ghost.Request{
		Date:   date,
		Body:   res.Body,
		Format: r.opts.Format,
		Status: r.opts.Status,
	})
	if err != nil {
		return res, err
	}

	r.logger.Info("✨ published",
		"id", res.Post.ID,
		"url", res.Post.URL,
		"status", res.Post.Status,
		"duration", r.now().Sub(start).String())

	return res, nil
}

// FileName is the output file name for an article: its slug plus .html or .json.
func FileName(m article.Masthead, date time.Time, format string) string {
	ext := ".html"
	if format == config.FormatLexical {
		ext = ".json"
	}

	return m.Slug(date) + ext
}

// writeUnvalidated keeps a failed dry run on disk, marked unvalidated, so it can be
// fixed by hand and signed again.
func (r *Runner) writeUnvalidated(res *Result) {
	path, err := WriteSigned(r.opts.OutputDir, res, r.opts.Article.Masthead, r.now())
	if err != nil {
		r.logger.Error("failed to write unvalidated article", "error", err)
		return
	}

	res.OutputPath = path
	r.logger.Warn("⚠️  unvalidated article written", "path", path)
}

// WriteSigned writes the body of res into dir with a metadata block recording whether it
// passed validation.
func WriteSigned(dir string, res *Result, m article.Masthead, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	signed := metadata.Sign(res.Body, metadata.Metadata{
		LastModify:  now,
		ArticleDate: res.Date.Format(config.DateLayout),
		Format:      res.Format,
		Records:     len(res.Records),
		Validation:  res.Validation != nil && res.Validation.IsValid,
	})

	path := filepath.Join(dir, FileName(m, res.Date, res.Format))
	if err := os.WriteFile(path, []byte(signed), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

package ghost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
)

// Publisher errors.
var (
	ErrEmptyBody     = errors.New("post body is empty")
	ErrInvalidStatus = errors.New("status must be published or draft")
	ErrInvalidFormat = errors.New("format must be html or lexical")
)

// Request describes one article to publish. Body is the serialized document in Format.
type Request struct {
	Date   time.Time
	Body   string
	Format string
	Status string
}

// PublisherOptions carry the site branding that post metadata is derived from.
type PublisherOptions struct {
	Masthead     article.Masthead
	Tags         []string
	FeatureImage string
	SheriffName  string
}

// Publisher turns rendered articles into Ghost posts.
type Publisher struct {
	client Client
	opts   PublisherOptions
	now    func() time.Time
	logger *logger.Logger
}

// NewPublisher creates a publisher over client.
func NewPublisher(client Client, opts PublisherOptions, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}

	return &Publisher{
		client: client,
		opts:   opts,
		now:    time.Now,
		logger: log.With("component", "publisher"),
	}
}

// MastheadFromConfig builds the article branding from site settings.
func MastheadFromConfig(cfg *config.Config) article.Masthead {
	return article.Masthead{
		Brand:    cfg.Site.Brand,
		Subject:  cfg.Site.Subject,
		SiteName: cfg.Site.Name,
		SiteURL:  cfg.Ghost.URL,
	}
}

// NewPublisherFromConfig creates the publisher described by cfg.
func NewPublisherFromConfig(client Client, cfg *config.Config, log *logger.Logger) *Publisher {
	return NewPublisher(client, PublisherOptions{
		Masthead:     MastheadFromConfig(cfg),
		Tags:         cfg.Site.Tags,
		FeatureImage: cfg.Site.FeatureImage,
		SheriffName:  cfg.Site.SheriffName,
	}, log)
}

// Post builds the create-post payload for req without sending it.
func (p *Publisher) Post(req Request) (PostInput, Source, error) {
	if req.Body == "" {
		return PostInput{}, "", ErrEmptyBody
	}

	status := req.Status
	if status == "" {
		status = config.StatusPublished
	}

	if status != config.StatusPublished && status != config.StatusDraft {
		return PostInput{}, "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	m := p.opts.Masthead
	title := m.Title(req.Date)
	longDate := article.LongDate(req.Date)

	post := PostInput{
		Title:              title,
		Slug:               m.Slug(req.Date),
		Status:             status,
		Tags:               append([]string(nil), p.opts.Tags...),
		FeatureImage:       p.opts.FeatureImage,
		CustomExcerpt:      fmt.Sprintf("Daily jail booking activity for %s. %s", longDate, article.DisclaimerText),
		MetaTitle:          fmt.Sprintf("%s | %s", title, m.SiteName),
		MetaDescription:    fmt.Sprintf("Daily arrest and booking activity from %s for %s.", p.opts.SheriffName, longDate),
		OGTitle:            title,
		OGDescription:      fmt.Sprintf("View arrest records and booking activity from %s.", m.Brand),
		TwitterTitle:       title,
		TwitterDescription: fmt.Sprintf("Daily jail activity report for %s.", m.Brand),
	}

	if status == config.StatusPublished {
		post.PublishedAt = p.now().UTC().Format(time.RFC3339)
	}

	switch req.Format {
	case config.FormatHTML, "":
		post.HTML = req.Body

		return post, SourceHTML, nil
	case config.FormatLexical:
		post.Lexical = req.Body

		return post, SourceLexical, nil
	default:
		return PostInput{}, "", fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}
}

// Publish creates the post for req. Failures are returned as is; nothing is retried.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Post, error) {
	post, source, err := p.Post(req)
	if err != nil {
		return nil, err
	}

	p.logger.Info("publishing article", "title", post.Title, "slug", post.Slug, "status", post.Status, "source", source)

	created, err := p.client.CreatePost(ctx, post, source)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %q: %w", post.Title, err)
	}

	p.logger.Info("article published", "id", created.ID, "url", created.URL, "status", created.Status)

	return created, nil
}

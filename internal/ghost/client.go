// Package ghost provides a client for the Ghost Admin API and the publisher that turns a
// rendered article into a post.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/pkg/utils"
)

// Admin API errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNoPostReturned       = errors.New("no post in response")
	ErrMissingURL           = errors.New("ghost URL is required")
)

// Source selects how Ghost interprets the post body.
type Source string

// Body sources.
const (
	SourceHTML    Source = "html"
	SourceLexical Source = "lexical"
)

const (
	postsPath       = "/ghost/api/admin/posts/"
	maxResponseSize = 10 * 1024 * 1024
)

// Client defines the Ghost Admin API operations the publisher needs.
type Client interface {
	CreatePost(ctx context.Context, post PostInput, source Source) (*Post, error)
}

// Ensure AdminClient implements Client.
var _ Client = (*AdminClient)(nil)

// PostInput is the body of a create-post request. Exactly one of HTML or Lexical is set.
type PostInput struct {
	Title              string   `json:"title"`
	Slug               string   `json:"slug,omitempty"`
	HTML               string   `json:"html,omitempty"`
	Lexical            string   `json:"lexical,omitempty"`
	Status             string   `json:"status"`
	Tags               []string `json:"tags,omitempty"`
	FeatureImage       string   `json:"feature_image,omitempty"`
	Featured           bool     `json:"featured"`
	CustomExcerpt      string   `json:"custom_excerpt,omitempty"`
	MetaTitle          string   `json:"meta_title,omitempty"`
	MetaDescription    string   `json:"meta_description,omitempty"`
	OGTitle            string   `json:"og_title,omitempty"`
	OGDescription      string   `json:"og_description,omitempty"`
	TwitterTitle       string   `json:"twitter_title,omitempty"`
	TwitterDescription string   `json:"twitter_description,omitempty"`
	PublishedAt        string   `json:"published_at,omitempty"`
}

// Post is the part of Ghost's post representation callers use.
type Post struct {
	ID     string `json:"id"`
	UUID   string `json:"uuid,omitempty"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type postsEnvelope[T any] struct {
	Posts []T `json:"posts"`
}

type apiError struct {
	Message string `json:"message"`
	Context string `json:"context"`
	Type    string `json:"type"`
}

type errorsEnvelope struct {
	Errors []apiError `json:"errors"`
}

// AdminClient talks to the Ghost Admin API with a key-signed token per request.
type AdminClient struct {
	httpClient *http.Client
	baseURL    string
	key        AdminKey
	version    string
	now        func() time.Time
	headers    *utils.HTTPHelper
	logger     *logger.Logger
}

// NewAdminClient creates a client for the site at baseURL.
func NewAdminClient(baseURL, adminKey, version string, timeout time.Duration, log *logger.Logger) (*AdminClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingURL
	}

	key, err := ParseAdminKey(adminKey)
	if err != nil {
		return nil, err
	}

	if version == "" {
		version = "v5.0"
	}

	if log == nil {
		log = logger.Discard()
	}

	return &AdminClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		version:    version,
		now:        time.Now,
		headers:    utils.NewHTTPHelper(),
		logger:     log.With("component", "ghost"),
	}, nil
}

// NewFromConfig creates the client described by cfg.
func NewFromConfig(cfg *config.Config, log *logger.Logger) (*AdminClient, error) {
	return NewAdminClient(cfg.Ghost.URL, cfg.Ghost.AdminKey, cfg.Ghost.APIVersion, cfg.Ghost.PublishTimeout(), log)
}

// CreatePost creates one post. It is never retried: a timed-out create may still have
// succeeded upstream.
func (c *AdminClient) CreatePost(ctx context.Context, post PostInput, source Source) (*Post, error) {
	token, err := c.key.Token(c.now())
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(postsEnvelope[PostInput]{Posts: []PostInput{post}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	endpoint := c.baseURL + postsPath
	if source == SourceHTML {
		endpoint += "?" + url.Values{"source": {string(SourceHTML)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.headers.BuildHeaders(map[string]string{
		"Authorization":  "Ghost " + token,
		"Accept-Version": c.version,
		"Content-Type":   "application/json",
	})

	c.logger.Debug("creating post", "title", post.Title, "status", post.Status, "source", source)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("create post failed", "status", resp.StatusCode, "body", string(raw))

		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, errorMessage(raw))
	}

	var out postsEnvelope[Post]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(out.Posts) == 0 {
		return nil, ErrNoPostReturned
	}

	return &out.Posts[0], nil
}

// errorMessage extracts Ghost's error payload, falling back to the raw body.
func errorMessage(raw []byte) string {
	var env errorsEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Errors) > 0 {
		e := env.Errors[0]
		if e.Context != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Context)
		}

		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	return utils.NewStringHelper().TruncateString(strings.TrimSpace(string(raw)), 500)
}

package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
)

const (
	testKeyID  = "6489a1b2c3d4e5f607182930"
	testSecret = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
)

var testAdminKey = testKeyID + ":" + testSecret

func TestParseAdminKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", testAdminKey, false},
		{"missing colon", testKeyID, true},
		{"empty id", ":" + testSecret, true},
		{"empty secret", testKeyID + ":", true},
		{"non-hex secret", testKeyID + ":zzzz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseAdminKey(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAdminKey))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testKeyID, key.ID)
			assert.Len(t, key.Secret, 32)
		})
	}
}

func TestAdminToken_Claims(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	signed, err := AdminToken(testAdminKey, now)
	require.NoError(t, err)

	secret, err := hex.DecodeString(testSecret)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithAudience(Audience), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, testKeyID, token.Header["kid"])
	assert.Equal(t, "HS256", token.Header["alg"])
	assert.Equal(t, jwt.ClaimStrings{"/admin/"}, claims.Audience)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(5*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *AdminClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewAdminClient(srv.URL+"/", testAdminKey, "", 5*time.Second, nil)
	require.NoError(t, err)

	return c
}

func TestCreatePost_HTML(t *testing.T) {
	var (
		gotPath   string
		gotQuery  string
		gotAuth   string
		gotVer    string
		gotBody   map[string][]map[string]any
		callCount int
	)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		callCount++
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotVer = r.Header.Get("Accept-Version")

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"posts":[{"id":"abc","title":"T","slug":"t","url":"https://site/t/","status":"draft"}]}`))
	})

	post, err := c.CreatePost(context.Background(), PostInput{Title: "T", HTML: "<p>x</p>", Status: "draft"}, SourceHTML)
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	assert.Equal(t, "/ghost/api/admin/posts/", gotPath)
	assert.Equal(t, "source=html", gotQuery)
	assert.True(t, strings.HasPrefix(gotAuth, "Ghost "))
	assert.Equal(t, "v5.0", gotVer)
	require.Len(t, gotBody["posts"], 1)
	assert.Equal(t, "<p>x</p>", gotBody["posts"][0]["html"])

	assert.Equal(t, "abc", post.ID)
	assert.Equal(t, "https://site/t/", post.URL)
	assert.Equal(t, "draft", post.Status)
}

func TestCreatePost_LexicalHasNoSourceParam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"posts":[{"id":"abc"}]}`))
	})

	_, err := c.CreatePost(context.Background(), PostInput{Title: "T", Lexical: `{"root":{}}`}, SourceLexical)
	require.NoError(t, err)
}

func TestCreatePost_ErrorIsNotRetried(t *testing.T) {
	calls := 0

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++

		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Validation error","context":"Title is too long","type":"ValidationError"}]}`))
	})

	_, err := c.CreatePost(context.Background(), PostInput{Title: "T"}, SourceHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Title is too long")
	assert.Equal(t, 1, calls)
}

func TestCreatePost_EmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"posts":[]}`))
	})

	_, err := c.CreatePost(context.Background(), PostInput{Title: "T"}, SourceHTML)
	assert.True(t, errors.Is(err, ErrNoPostReturned))
}

func TestNewAdminClient_Validation(t *testing.T) {
	_, err := NewAdminClient("", testAdminKey, "", time.Second, nil)
	assert.True(t, errors.Is(err, ErrMissingURL))

	_, err = NewAdminClient("https://x.ghost.io", "bad", "", time.Second, nil)
	assert.True(t, errors.Is(err, ErrInvalidAdminKey))
}

type recordingClient struct {
	posts   []PostInput
	sources []Source
	err     error
}

func (r *recordingClient) CreatePost(_ context.Context, post PostInput, source Source) (*Post, error) {
	r.posts = append(r.posts, post)
	r.sources = append(r.sources, source)

	if r.err != nil {
		return nil, r.err
	}

	return &Post{ID: "p1", URL: "https://site/" + post.Slug + "/", Status: post.Status}, nil
}

func testPublisher(client Client) *Publisher {
	cfg := config.Default()

	p := NewPublisherFromConfig(client, cfg, nil)
	p.now = func() time.Time { return time.Date(2025, 9, 20, 11, 0, 0, 0, time.UTC) }

	return p
}

func TestPublisher_Publish(t *testing.T) {
	client := &recordingClient{}
	p := testPublisher(client)

	date := time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)

	post, err := p.Publish(context.Background(), Request{Date: date, Body: "<p>x</p>", Format: config.FormatHTML})
	require.NoError(t, err)

	require.Len(t, client.posts, 1)
	in := client.posts[0]

	assert.Equal(t, "Angelina County Arrests - Friday", in.Title)
	assert.Equal(t, "angelina-county-arrests-friday-9-19-2025", in.Slug)
	assert.Equal(t, []string{"Angelina County", "News", "Jail", "Data", "Crime"}, in.Tags)
	assert.Equal(t, "Angelina County Arrests - Friday | Angelina411.com", in.MetaTitle)
	assert.Equal(t, in.Title, in.OGTitle)
	assert.Equal(t, in.Title, in.TwitterTitle)
	assert.Contains(t, in.MetaDescription, "Friday, September 19, 2025")
	assert.Contains(t, in.CustomExcerpt, article.DisclaimerText)
	assert.Equal(t, "2025-09-20T11:00:00Z", in.PublishedAt)
	assert.Equal(t, "<p>x</p>", in.HTML)
	assert.Empty(t, in.Lexical)
	assert.Equal(t, config.StatusPublished, in.Status)
	assert.Equal(t, SourceHTML, client.sources[0])

	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, config.StatusPublished, post.Status)
}

func TestPublisher_DraftLexical(t *testing.T) {
	client := &recordingClient{}
	p := testPublisher(client)

	_, err := p.Publish(context.Background(), Request{
		Date:   time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		Body:   `{"root":{}}`,
		Format: config.FormatLexical,
		Status: config.StatusDraft,
	})
	require.NoError(t, err)

	in := client.posts[0]
	assert.Equal(t, "Angelina County Arrests - Sunday", in.Title)
	assert.Equal(t, `{"root":{}}`, in.Lexical)
	assert.Empty(t, in.HTML)
	assert.Empty(t, in.PublishedAt)
	assert.Equal(t, SourceLexical, client.sources[0])
}

func TestPublisher_RejectsBadRequests(t *testing.T) {
	client := &recordingClient{}
	p := testPublisher(client)
	date := time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC)

	_, err := p.Publish(context.Background(), Request{Date: date})
	assert.True(t, errors.Is(err, ErrEmptyBody))

	_, err = p.Publish(context.Background(), Request{Date: date, Body: "x", Status: "scheduled"})
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = p.Publish(context.Background(), Request{Date: date, Body: "x", Format: "markdown"})
	assert.True(t, errors.Is(err, ErrInvalidFormat))

	assert.Empty(t, client.posts)
}

func TestPublisher_PropagatesClientError(t *testing.T) {
	client := &recordingClient{err: ErrUnexpectedStatusCode}
	p := testPublisher(client)

	_, err := p.Publish(context.Background(), Request{Date: time.Now(), Body: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))
	assert.Len(t, client.posts, 1)
}

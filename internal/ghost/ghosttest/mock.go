// Package ghosttest provides a hand-wired ghost.Client for tests.
package ghosttest

import (
	"context"
	"sync"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ghost"
)

// CreatePostCall records one CreatePost invocation.
type CreatePostCall struct {
	Post   ghost.PostInput
	Source ghost.Source
}

// MockClient implements ghost.Client. Without a CreatePostFunc it echoes the post back
// with a fixed ID and a URL built from the slug.
type MockClient struct {
	CreatePostFunc func(ctx context.Context, post ghost.PostInput, source ghost.Source) (*ghost.Post, error)

	mu    sync.Mutex
	calls []CreatePostCall
}

var _ ghost.Client = (*MockClient)(nil)

func (m *MockClient) CreatePost(ctx context.Context, post ghost.PostInput, source ghost.Source) (*ghost.Post, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CreatePostCall{Post: post, Source: source})
	m.mu.Unlock()

	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, post, source)
	}

	return &ghost.Post{
		ID:     "post-1",
		Title:  post.Title,
		Slug:   post.Slug,
		URL:    "https://example.ghost.io/" + post.Slug + "/",
		Status: post.Status,
	}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []CreatePostCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]CreatePostCall(nil), m.calls...)
}

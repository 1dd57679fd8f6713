// Package airtabletest provides a hand-wired airtable.Client for tests.
package airtabletest

import (
	"context"
	"errors"
	"sync"

	"github.com/bpollino/angelina-jail-activity-automation/internal/airtable"
)

// ErrNotImplemented is returned by MockClient reads without a Func. Writes without a
// Func succeed and echo the written fields.
var ErrNotImplemented = errors.New("mock: not implemented")

// Call records one invocation of a MockClient method.
type Call struct {
	Method string
	Table  string
	ID     string
	Params airtable.ListParams
	Fields airtable.Fields
}

// MockClient implements airtable.Client with overridable funcs and records every call.
type MockClient struct {
	ListFunc   func(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error)
	GetFunc    func(ctx context.Context, table, id string) (*airtable.Record, error)
	CreateFunc func(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error)
	UpdateFunc func(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
	TablesFunc func(ctx context.Context) ([]airtable.Table, error)

	mu    sync.Mutex
	calls []Call
}

var _ airtable.Client = (*MockClient)(nil)

func (m *MockClient) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Call(nil), m.calls...)
}

// CallsTo returns the recorded calls of one method.
func (m *MockClient) CallsTo(method string) []Call {
	var out []Call

	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}

	return out
}

// List calls ListFunc.
func (m *MockClient) List(ctx context.Context, table string, params airtable.ListParams) ([]airtable.Record, error) {
	m.record(Call{Method: "List", Table: table, Params: params})

	if m.ListFunc != nil {
		return m.ListFunc(ctx, table, params)
	}

	return nil, ErrNotImplemented
}

// Get calls GetFunc.
func (m *MockClient) Get(ctx context.Context, table, id string) (*airtable.Record, error) {
	m.record(Call{Method: "Get", Table: table, ID: id})

	if m.GetFunc != nil {
		return m.GetFunc(ctx, table, id)
	}

	return nil, ErrNotImplemented
}

// Create calls CreateFunc.
func (m *MockClient) Create(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error) {
	m.record(Call{Method: "Create", Table: table, Fields: fields})

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, table, fields)
	}

	return nil, ErrNotImplemented
}

// Update calls UpdateFunc.
func (m *MockClient) Update(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error) {
	m.record(Call{Method: "Update", Table: table, ID: id, Fields: fields})

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, table, id, fields)
	}

	return &airtable.Record{ID: id, Fields: fields}, nil
}

// Tables calls TablesFunc.
func (m *MockClient) Tables(ctx context.Context) ([]airtable.Table, error) {
	m.record(Call{Method: "Tables"})

	if m.TablesFunc != nil {
		return m.TablesFunc(ctx)
	}

	return nil, ErrNotImplemented
}

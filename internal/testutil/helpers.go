// Package testutil provides shared helpers for HTTP-level tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ozsure/quoting/internal/api"
	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/rules"
	"github.com/ozsure/quoting/internal/store"
)

// NewTestServer creates an API server backed by an in-memory store, with
// no audit recorder and rate limiting disabled.
func NewTestServer(t *testing.T, adminKey string) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	log := zerolog.Nop()
	exec := engine.NewExecutor(memStore, nil, log)
	calc := rating.NewCalculator(memStore, exec, log)
	server := api.NewServer(memStore, exec, calc, api.Options{AdminAPIKey: adminKey}, log)
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedRules populates the store with test rules.
func SeedRules(ctx context.Context, st store.Store, rs []rules.Rule) error {
	for _, r := range rs {
		if err := st.UpsertRule(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

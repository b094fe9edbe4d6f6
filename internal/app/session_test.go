package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/samvad-hq/mini-postman/internal/config"
	"github.com/samvad-hq/mini-postman/internal/dispatcher"
	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/presenter"
	"github.com/samvad-hq/mini-postman/pkg/publishers"
)

type proxyRecorder struct {
	mu       sync.Mutex
	requests []domain.ProxyRequest
}

func (p *proxyRecorder) handler(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ProxyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		p.mu.Lock()
		p.requests = append(p.requests, req)
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}
}

func (p *proxyRecorder) all() []domain.ProxyRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ProxyRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func testConfig(t *testing.T, proxyURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:         "mini-postman",
		Env:             "test",
		ProxyURL:        proxyURL,
		CredentialStore: "bbolt",
		BBoltPath:       filepath.Join(dir, "credentials.db"),
		CredentialKey:   "token",
	}
}

func TestSessionLoginThenAuthorizedRequest(t *testing.T) {
	rec := &proxyRecorder{}
	srv := httptest.NewServer(rec.handler(`{"status":200,"data":"{\"token\":\"abc\"}"}`))
	defer srv.Close()

	sess, err := NewSession(context.Background(), testConfig(t, srv.URL), nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	defer sess.Close()

	if sess.LoggedIn() {
		t.Fatalf("fresh session should not be logged in")
	}

	login := domain.RequestDraft{
		URL:        "https://api.example.com/login",
		Method:     domain.MethodPost,
		RawHeaders: `{}`,
		RawBody:    `{"user":"u","pass":"p"}`,
	}
	view := sess.Run(context.Background(), login)
	if view.Failed || !view.HasBadge() || view.Badge != presenter.ClassSuccess {
		t.Fatalf("unexpected login view: %+v", view)
	}
	if !sess.LoggedIn() {
		t.Fatalf("expected token to be captured")
	}
	if sess.State() != presenter.StateIdle {
		t.Fatalf("expected idle after success, got %s", sess.State())
	}

	view = sess.Run(context.Background(), domain.RequestDraft{
		URL:        "https://api.example.com/me",
		Method:     domain.MethodGet,
		RawHeaders: `{"X-Trace":"1"}`,
		RawBody:    `{}`,
	})
	if view.Failed {
		t.Fatalf("unexpected failure: %s", view.ErrorMessage)
	}

	reqs := rec.all()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 proxy requests, got %d", len(reqs))
	}
	if _, ok := reqs[0].Headers[dispatcher.AuthorizationHeader]; ok {
		t.Fatalf("first request should not carry authorization")
	}
	if got := reqs[1].Headers[dispatcher.AuthorizationHeader]; got != "Bearer abc" {
		t.Fatalf("expected bearer header, got %v", got)
	}
	if got := reqs[1].Headers["X-Trace"]; got != "1" {
		t.Fatalf("user header lost: %v", reqs[1].Headers)
	}
}

func TestSessionCredentialSurvivesRestart(t *testing.T) {
	rec := &proxyRecorder{}
	srv := httptest.NewServer(rec.handler(`{"status":200,"data":"{\"token\":\"persisted\"}"}`))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	first, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	first.Run(context.Background(), domain.NewDraft())
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	second, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer second.Close()
	if !second.LoggedIn() {
		t.Fatalf("credential should persist across sessions")
	}
}

func TestSessionInvalidDraftNeverReachesProxy(t *testing.T) {
	rec := &proxyRecorder{}
	srv := httptest.NewServer(rec.handler(`{"status":200,"data":{}}`))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.CredentialStore = "memory"
	sess, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	defer sess.Close()

	view := sess.Run(context.Background(), domain.RequestDraft{
		URL:        "https://api.example.com",
		Method:     domain.MethodGet,
		RawHeaders: `{not json`,
		RawBody:    `{}`,
	})
	if !view.Failed || view.ErrorMessage != dispatcher.MsgInvalidInput {
		t.Fatalf("unexpected view: %+v", view)
	}
	if sess.State() != presenter.StateErrorDisplayed {
		t.Fatalf("expected error state, got %s", sess.State())
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("expected no proxy traffic, got %d requests", n)
	}
}

func TestSessionProxyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(t, url)
	cfg.CredentialStore = "memory"
	sess, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	defer sess.Close()

	view := sess.Run(context.Background(), domain.NewDraft())
	if !view.Failed || view.ErrorMessage != dispatcher.MsgDispatchFailed {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.HasBadge() {
		t.Fatalf("failure should not show a badge")
	}
}

func TestSessionPublishesDispatchEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		_ = json.NewDecoder(r.Body).Decode(&evt)
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	rec := &proxyRecorder{}
	proxy := httptest.NewServer(rec.handler(`{"status":201,"data":{"id":7}}`))
	defer proxy.Close()

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	yml := "publishers:\n  - id: audit\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	if err := os.WriteFile(pubFile, []byte(yml), 0o600); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	cfg := testConfig(t, proxy.URL)
	cfg.CredentialStore = "memory"
	cfg.PublishersFile = pubFile
	sess, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	defer sess.Close()

	sess.Run(context.Background(), domain.RequestDraft{
		URL:        "https://api.example.com/items",
		Method:     domain.MethodPost,
		RawHeaders: `{"X-Secret":"s"}`,
		RawBody:    `{"name":"x"}`,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Outcome != publishers.OutcomeSuccess || evt.Method != "POST" || evt.TargetURL != "https://api.example.com/items" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.StatusCode == nil || *evt.StatusCode != 201 {
		t.Fatalf("unexpected status on event: %+v", evt.StatusCode)
	}
	if evt.ID == "" {
		t.Fatalf("event id should be set")
	}
}

func TestNewSessionRejectsBadInputs(t *testing.T) {
	if _, err := NewSession(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := testConfig(t, "https://proxy.example.com")
	cfg.CredentialStore = "redis"
	if _, err := NewSession(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported store")
	}

	cfg = testConfig(t, "https://proxy.example.com")
	cfg.CredentialStore = "memory"
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewSession(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing publishers file")
	}
}

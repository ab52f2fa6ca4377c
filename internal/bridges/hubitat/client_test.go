package hubitat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type hubRequest struct {
	path  string
	token string
}

type fakeHub struct {
	mu       sync.Mutex
	requests []hubRequest
	status   int
	body     string
}

func newFakeHub(t *testing.T) (*fakeHub, *httptest.Server) {
	t.Helper()
	hub := &fakeHub{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		hub.requests = append(hub.requests, hubRequest{path: r.URL.EscapedPath(), token: r.URL.Query().Get("access_token")})
		w.WriteHeader(hub.status)
		w.Write([]byte(hub.body)) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func (h *fakeHub) last() hubRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) == 0 {
		return hubRequest{}
	}
	return h.requests[len(h.requests)-1]
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: srv.URL + "/", AppID: "12", AccessToken: "tok-1", Timeout: time.Second}, srv.Client())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{BaseURL: "http://hub", AppID: "1", AccessToken: "t"}, false},
		{"no url", Config{AppID: "1", AccessToken: "t"}, true},
		{"no app", Config{BaseURL: "http://hub", AccessToken: "t"}, true},
		{"no token", Config{BaseURL: "http://hub", AppID: "1"}, true},
		{"empty", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			if tt.wantErr != (err != nil) {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSetSpeed(t *testing.T) {
	hub, srv := newFakeHub(t)
	c := newTestClient(t, srv)

	if err := c.SetSpeed(context.Background(), "45", "medium-high"); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}

	got := hub.last()
	if got.path != "/apps/api/12/devices/45/setSpeed/medium-high" {
		t.Errorf("path = %q", got.path)
	}
	if got.token != "tok-1" {
		t.Errorf("access_token = %q, want tok-1", got.token)
	}
}

func TestTurnOff(t *testing.T) {
	hub, srv := newFakeHub(t)
	c := newTestClient(t, srv)

	if err := c.TurnOff(context.Background(), "46"); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if got := hub.last().path; got != "/apps/api/12/devices/46/off" {
		t.Errorf("path = %q", got)
	}
}

func TestCommand_EscapesPathSegments(t *testing.T) {
	hub, srv := newFakeHub(t)
	c := newTestClient(t, srv)

	if err := c.SetSpeed(context.Background(), "a/b", "x y"); err != nil {
		t.Fatal(err)
	}
	if got := hub.last().path; got != "/apps/api/12/devices/a%2Fb/setSpeed/x%20y" {
		t.Errorf("path = %q, want escaped segments", got)
	}
}

func TestCommand_InvalidArguments(t *testing.T) {
	hub, srv := newFakeHub(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	if err := c.SetSpeed(ctx, "45", ""); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("SetSpeed(empty level) error = %v, want ErrInvalidCommand", err)
	}
	if err := c.TurnOff(ctx, ""); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("TurnOff(empty id) error = %v, want ErrInvalidCommand", err)
	}
	if len(hub.requests) != 0 {
		t.Errorf("invalid commands reached the hub: %+v", hub.requests)
	}
}

func TestCommand_HubRejects(t *testing.T) {
	hub, srv := newFakeHub(t)
	hub.status = http.StatusNotFound
	hub.body = "Device not found"
	c := newTestClient(t, srv)

	err := c.TurnOff(context.Background(), "99")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("TurnOff() error = %v, want ErrRequestFailed", err)
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "Device not found") {
		t.Errorf("error = %q, want status and hub message", err)
	}
}

func TestCommand_UnreachableDoesNotLeakToken(t *testing.T) {
	_, srv := newFakeHub(t)
	c := newTestClient(t, srv)
	srv.Close()

	err := c.SetSpeed(context.Background(), "45", "low")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("SetSpeed() error = %v, want ErrRequestFailed", err)
	}
	if strings.Contains(err.Error(), "tok-1") {
		t.Errorf("error %q contains the access token", err)
	}
}

func TestCommand_ContextCancelled(t *testing.T) {
	_, srv := newFakeHub(t)
	c := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.TurnOff(ctx, "45"); !errors.Is(err, context.Canceled) {
		t.Errorf("TurnOff() error = %v, want context.Canceled", err)
	}
}

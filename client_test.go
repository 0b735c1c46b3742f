package tokenvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/MrEthical07/tokenvault/serverconfig"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type configServer struct {
	srv     *httptest.Server
	version atomic.Value
	fail    atomic.Bool
	hits    atomic.Int64
}

func newConfigServer(t *testing.T, version string) *configServer {
	t.Helper()

	cs := &configServer{}
	cs.version.Store(version)
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		if cs.fail.Load() || r.URL.Path != "/api/config" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":%q,"gitHash":"abc123","featureStates":{"pm-1234":true}}`, cs.version.Load().(string))
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func newTestClient(t *testing.T, serverURL string, clock clockwork.Clock) *Client {
	t.Helper()

	log, _ := newTestLogger()
	b := New().
		WithStore(securestore.NewMemoryStore()).
		WithAppID(testAppID).
		WithClock(clock).
		WithLogger(log).
		WithMetricsEnabled(true)
	if serverURL != "" {
		b = b.WithServerURL(serverURL)
	}
	client, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func signedAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: gojwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestClientSupportsCapability(t *testing.T) {
	cs := newConfigServer(t, "2024.2.0")
	client := newTestClient(t, cs.srv.URL, clockwork.NewFakeClockAt(testNow))
	ctx := context.Background()

	if !client.SupportsCapability(ctx, "2024.2.0") {
		t.Fatalf("expected equal version supported")
	}
	if !client.SupportsCipherKeyEncryption(ctx) {
		t.Fatalf("expected cipher key encryption supported")
	}
	if client.SupportsCapability(ctx, "2024.3.0") {
		t.Fatalf("expected newer minimum unsupported")
	}

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricCapabilitySupported] != 2 || snap.Counters[MetricCapabilityUnsupported] != 1 {
		t.Fatalf("unexpected capability counters: %+v", snap.Counters)
	}
	if hits := cs.hits.Load(); hits != 1 {
		t.Fatalf("expected cached config to be reused, got %d fetches", hits)
	}
}

func TestClientMalformedServerVersionIsUnsupported(t *testing.T) {
	cs := newConfigServer(t, "20asdfasdf24.2.0")
	client := newTestClient(t, cs.srv.URL, clockwork.NewFakeClockAt(testNow))

	if client.SupportsCipherKeyEncryption(context.Background()) {
		t.Fatalf("expected malformed version to be unsupported")
	}
}

func TestClientFallsBackToLastSnapshot(t *testing.T) {
	cs := newConfigServer(t, "2024.2.1")
	clock := clockwork.NewFakeClockAt(testNow)
	client := newTestClient(t, cs.srv.URL, clock)
	ctx := context.Background()

	if !client.SupportsCipherKeyEncryption(ctx) {
		t.Fatalf("expected supported on first fetch")
	}

	cs.fail.Store(true)
	clock.Advance(2 * time.Hour)

	if _, err := client.ServerConfig(ctx); !errors.Is(err, serverconfig.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !client.SupportsCipherKeyEncryption(ctx) {
		t.Fatalf("expected last known snapshot to be used")
	}
	if client.MetricsSnapshot().Counters[MetricServerConfigFetchFailure] == 0 {
		t.Fatalf("expected fetch failure metric")
	}
}

func TestClientWithoutServerURL(t *testing.T) {
	client := newTestClient(t, "", clockwork.NewFakeClockAt(testNow))

	if _, err := client.ServerConfig(context.Background()); !errors.Is(err, ErrServerConfigUnavailable) {
		t.Fatalf("expected ErrServerConfigUnavailable, got %v", err)
	}
	if client.SupportsCipherKeyEncryption(context.Background()) {
		t.Fatalf("expected capability absent without server config")
	}
}

func TestClientNilIsNotReady(t *testing.T) {
	var client *Client

	if _, err := client.ServerConfig(context.Background()); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if client.SupportsCapability(context.Background(), "1.0.0") {
		t.Fatalf("expected nil client to report unsupported")
	}
	if cfg := client.Config(); cfg.Keychain.Namespace != "" || cfg.Keychain.AppID != "" {
		t.Fatalf("expected zero config from nil client, got %+v", cfg.Keychain)
	}
	if client.AppID() != "" {
		t.Fatalf("expected empty app ID from nil client")
	}
	if err := client.Close(); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady on Close, got %v", err)
	}
}

func TestClientAccessTokenNeedsRefresh(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	client := newTestClient(t, "", clock)
	ctx := context.Background()

	if _, err := client.AccessTokenNeedsRefresh(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without token, got %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"fresh", signedAccessToken(t, testNow.Add(time.Hour)), false},
		{"inside skew", signedAccessToken(t, testNow.Add(2*time.Minute)), true},
		{"expired", signedAccessToken(t, testNow.Add(-time.Minute)), true},
		{"not a jwt", "opaque-token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Tokens().SetAccessToken(ctx, tt.token, "user-1"); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			got, err := client.AccessTokenNeedsRefresh(ctx, "user-1")
			if err != nil {
				t.Fatalf("AccessTokenNeedsRefresh failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClientLogout(t *testing.T) {
	client := newTestClient(t, "", clockwork.NewFakeClockAt(testNow))
	ctx := context.Background()

	_ = client.Tokens().SetAccessToken(ctx, "a", "user-1")
	_ = client.Tokens().SetRefreshToken(ctx, "r", "user-1")

	if err := client.Logout(ctx, "user-1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := client.Tokens().GetRefreshToken(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refresh token removed, got %v", err)
	}
	if client.MetricsSnapshot().Counters[MetricTokenDelete] != 1 {
		t.Fatalf("expected delete metric")
	}
}

func TestClientCloseTwice(t *testing.T) {
	log, _ := newTestLogger()
	client, err := New().WithStore(securestore.NewMemoryStore()).WithAppID(testAppID).WithLogger(log).Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := client.Close(); err == nil {
		t.Fatalf("expected second close to fail")
	}
	if _, err := client.ServerConfig(context.Background()); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady after close, got %v", err)
	}
}

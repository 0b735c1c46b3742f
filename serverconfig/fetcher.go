package serverconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultConfigPath    = "/api/config"
	defaultFetchTimeout  = 10 * time.Second
	maxConfigBodyBytes   = 1 << 20
	singleflightFetchKey = "config"
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// BaseURL is the API base, e.g. https://vault.example.com.
	BaseURL string
	// Path defaults to /api/config.
	Path string
	// MaxAge is how long Get serves a cached snapshot. Zero always refetches.
	MaxAge time.Duration
	// Timeout bounds one request. Defaults to 10s.
	Timeout time.Duration
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithClock replaces the real clock, mainly for tests.
func WithClock(clock clockwork.Clock) FetcherOption {
	return func(f *Fetcher) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithLogger replaces the standard logrus logger.
func WithLogger(log logrus.FieldLogger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// Fetcher retrieves configuration snapshots and keeps the latest successful one.
// Concurrent refreshes share a single request. A failed fetch leaves the
// previous snapshot in place.
type Fetcher struct {
	cfg    FetcherConfig
	url    string
	client *http.Client
	clock  clockwork.Clock
	log    logrus.FieldLogger

	group   singleflight.Group
	current atomic.Pointer[ServerConfig]
}

// NewFetcher validates cfg and returns a Fetcher with no snapshot.
func NewFetcher(cfg FetcherConfig, opts ...FetcherOption) (*Fetcher, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("server config BaseURL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, errors.New("server config BaseURL must be http or https")
	}
	if cfg.Path == "" {
		cfg.Path = defaultConfigPath
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		cfg.Path = "/" + cfg.Path
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxAge < 0 {
		return nil, errors.New("server config MaxAge must be >= 0")
	}

	f := &Fetcher{
		cfg:    cfg,
		url:    base + cfg.Path,
		client: &http.Client{Timeout: cfg.Timeout},
		clock:  clockwork.NewRealClock(),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.WithField("component", "serverconfig")
	return f, nil
}

// Current returns the latest snapshot, or nil before the first successful fetch.
func (f *Fetcher) Current() *ServerConfig {
	return f.current.Load()
}

// Get returns the cached snapshot while it is younger than MaxAge, and refreshes
// otherwise.
func (f *Fetcher) Get(ctx context.Context) (*ServerConfig, error) {
	if cur := f.current.Load(); cur != nil && f.clock.Since(cur.Date) < f.cfg.MaxAge {
		return cur, nil
	}
	return f.Refresh(ctx)
}

// Refresh fetches a new snapshot unconditionally. Callers arriving while a fetch is
// in flight receive its result. The shared request is bounded by Timeout and is
// not cancelled by any one caller; ctx only stops this caller's wait.
func (f *Fetcher) Refresh(ctx context.Context) (*ServerConfig, error) {
	ch := f.group.DoChan(singleflightFetchKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.cfg.Timeout)
		defer cancel()
		return f.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.log.Debug("Joined in-flight server config fetch")
		}
		return res.Val.(*ServerConfig), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context) (*ServerConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.WithError(err).Warn("Server config fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxConfigBodyBytes))
		f.log.WithField("status", resp.StatusCode).Warn("Server config endpoint returned non-200")
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := Decode(io.LimitReader(resp.Body, maxConfigBodyBytes))
	if err != nil {
		f.log.WithError(err).Warn("Server config response could not be decoded")
		return nil, err
	}

	snapshot := New(f.clock.Now(), body)
	f.current.Store(snapshot)
	f.log.WithFields(logrus.Fields{
		"version":  snapshot.Version,
		"git_hash": snapshot.GitHash,
	}).Debug("Server config updated")
	return snapshot, nil
}

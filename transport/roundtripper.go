package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/tokenvault"
	"github.com/MrEthical07/tokenvault/jwt"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRefreshSkew    = 5 * time.Minute
	defaultRefreshTimeout = 30 * time.Second
)

var (
	// ErrNotAuthenticated is returned when the request has no user or the user has
	// no stored tokens.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshFailed wraps a Refresher failure.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// TokenPair is the result of a refresh. An empty RefreshToken keeps the stored one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return f(ctx, refreshToken)
}

// Config configures a RoundTripper.
type Config struct {
	// Tokens is required.
	Tokens tokenvault.TokenRepository
	// Refresher is optional. Without it stored access tokens are sent as-is.
	Refresher Refresher
	// RefreshSkew refreshes access tokens this long before exp. Defaults to 5m.
	RefreshSkew time.Duration
	// RefreshTimeout bounds one shared refresh. Defaults to 30s.
	RefreshTimeout time.Duration
	// Base defaults to http.DefaultTransport.
	Base  http.RoundTripper
	Clock clockwork.Clock
	Log   logrus.FieldLogger
}

// RoundTripper injects "Authorization: Bearer <access token>".
type RoundTripper struct {
	tokens    tokenvault.TokenRepository
	refresher Refresher
	skew      time.Duration
	timeout   time.Duration
	base      http.RoundTripper
	clock     clockwork.Clock
	log       logrus.FieldLogger

	group singleflight.Group
}

// New validates cfg and returns a RoundTripper.
func New(cfg Config) (*RoundTripper, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("transport: token repository required")
	}
	if cfg.RefreshSkew < 0 {
		return nil, errors.New("transport: RefreshSkew must be >= 0")
	}
	if cfg.RefreshSkew == 0 {
		cfg.RefreshSkew = defaultRefreshSkew
	}
	if cfg.RefreshTimeout < 0 {
		return nil, errors.New("transport: RefreshTimeout must be >= 0")
	}
	if cfg.RefreshTimeout == 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	if cfg.Base == nil {
		cfg.Base = http.DefaultTransport
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	return &RoundTripper{
		tokens:    cfg.Tokens,
		refresher: cfg.Refresher,
		skew:      cfg.RefreshSkew,
		timeout:   cfg.RefreshTimeout,
		base:      cfg.Base,
		clock:     cfg.Clock,
		log:       cfg.Log.WithField("component", "transport"),
	}, nil
}

// Client returns an *http.Client using t.
func (t *RoundTripper) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	userID, ok := tokenvault.UserIDFromContext(ctx)
	if !ok {
		closeBody(req)
		return nil, fmt.Errorf("%w: no user in request context", ErrNotAuthenticated)
	}

	access, err := t.accessToken(ctx, userID)
	if err != nil {
		closeBody(req)
		return nil, err
	}

	resp, err := t.base.RoundTrip(authorize(req, access))
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.refresher == nil || !replayable(req) {
		return resp, err
	}

	retry, err := rewind(req)
	if err != nil {
		return resp, nil
	}

	t.log.WithField("user_id", userID).Debug("Access token rejected, refreshing")
	access, err = t.refresh(ctx, userID, access)
	if err != nil {
		closeBody(retry)
		return resp, nil
	}

	closeResponse(resp)
	return t.base.RoundTrip(authorize(retry, access))
}

// accessToken returns the stored access token, refreshing it first when it is about
// to expire and a Refresher is configured.
func (t *RoundTripper) accessToken(ctx context.Context, userID string) (string, error) {
	access, err := t.tokens.GetAccessToken(ctx, userID)
	if errors.Is(err, tokenvault.ErrNotFound) {
		return "", fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if err != nil {
		return "", err
	}

	if t.refresher == nil || !t.expiresSoon(access) {
		return access, nil
	}
	return t.refresh(ctx, userID, access)
}

func (t *RoundTripper) expiresSoon(access string) bool {
	claims, err := jwt.ParseUnverified(access)
	if err != nil {
		// Opaque tokens are refreshed on 401 only.
		return false
	}
	return claims.ExpiresWithin(t.clock.Now(), t.skew)
}

// refresh exchanges the stored refresh token once per user at a time. stale is the
// access token the caller saw; if another caller already replaced it, the new one
// is returned without refreshing again. The shared refresh outlives any single
// caller's cancellation, bounded by the refresh timeout.
func (t *RoundTripper) refresh(ctx context.Context, userID, stale string) (string, error) {
	ch := t.group.DoChan(userID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()

		if current, err := t.tokens.GetAccessToken(ctx, userID); err == nil && current != stale && !t.expiresSoon(current) {
			return current, nil
		}

		refreshToken, err := t.tokens.GetRefreshToken(ctx, userID)
		if errors.Is(err, tokenvault.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		if err != nil {
			return nil, err
		}

		pair, err := t.refresher.Refresh(ctx, refreshToken)
		if err != nil {
			t.log.WithError(err).WithField("user_id", userID).Warn("Token refresh failed")
			return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		if pair.AccessToken == "" {
			return nil, fmt.Errorf("%w: empty access token", ErrRefreshFailed)
		}

		if err := t.tokens.SetAccessToken(ctx, pair.AccessToken, userID); err != nil {
			return nil, err
		}
		if pair.RefreshToken != "" {
			if err := t.tokens.SetRefreshToken(ctx, pair.RefreshToken, userID); err != nil {
				return nil, err
			}
		}
		t.log.WithField("user_id", userID).Debug("Tokens refreshed")
		return pair.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func authorize(req *http.Request, access string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+access)
	return out
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func rewind(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

func closeResponse(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_ = resp.Body.Close()
}

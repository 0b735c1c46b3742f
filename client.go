package tokenvault

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/MrEthical07/tokenvault/internal/audit"
	"github.com/MrEthical07/tokenvault/jwt"
	"github.com/MrEthical07/tokenvault/serverconfig"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Client composes the token repository and the server config fetcher. The two
// never call each other; Client only hands out both.
type Client struct {
	config  Config
	tokens  *KeychainTokenRepository
	fetcher *serverconfig.Fetcher
	metrics *Metrics
	audit   *audit.Dispatcher
	clock   clockwork.Clock
	log     logrus.FieldLogger

	closed atomic.Bool
}

// Tokens returns the repository. It stays usable after Close, without audit.
func (c *Client) Tokens() *KeychainTokenRepository {
	if c == nil {
		return nil
	}
	return c.tokens
}

// AppID returns the resolved app ID.
func (c *Client) AppID() string {
	if c == nil {
		return ""
	}
	return c.config.Keychain.AppID
}

// Config returns a copy of the effective configuration.
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return cloneConfig(c.config)
}

// ServerConfig returns the current server configuration snapshot, fetching it when
// missing or older than Server.MaxAge.
func (c *Client) ServerConfig(ctx context.Context) (*serverconfig.ServerConfig, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrClientNotReady
	}
	if c.fetcher == nil {
		return nil, ErrServerConfigUnavailable
	}

	cfg, err := c.fetcher.Get(ctx)
	if err != nil {
		c.metrics.Inc(MetricServerConfigFetchFailure)
		return nil, err
	}
	c.metrics.Inc(MetricServerConfigFetchSuccess)
	return cfg, nil
}

// SupportsCapability reports whether the server's version is at least minVersion.
// When the server config cannot be fetched the last known snapshot is used; with
// no snapshot at all the capability is treated as absent.
func (c *Client) SupportsCapability(ctx context.Context, minVersion string) bool {
	cfg, err := c.ServerConfig(ctx)
	if err != nil && c != nil && c.fetcher != nil {
		cfg = c.fetcher.Current()
	}

	ok := cfg.SupportsCapability(minVersion)
	if c != nil {
		if ok {
			c.metrics.Inc(MetricCapabilitySupported)
		} else {
			c.metrics.Inc(MetricCapabilityUnsupported)
		}
	}
	return ok
}

// SupportsCipherKeyEncryption gates cipher key encryption on the server version.
func (c *Client) SupportsCipherKeyEncryption(ctx context.Context) bool {
	return c.SupportsCapability(ctx, serverconfig.MinVersionCipherKeyEncryption)
}

// AccessTokenNeedsRefresh reports whether userID's access token is expired or
// expires within Session.AccessTokenRefreshSkew. An undecodable token needs a
// refresh. ErrNotFound is returned when no access token is stored.
func (c *Client) AccessTokenNeedsRefresh(ctx context.Context, userID string) (bool, error) {
	if c == nil {
		return false, ErrClientNotReady
	}

	token, err := c.tokens.GetAccessToken(ctx, userID)
	if err != nil {
		return false, err
	}

	claims, err := jwt.ParseUnverified(token)
	if err != nil {
		c.log.WithError(err).Debug("Stored access token is not a decodable JWT")
		return true, nil
	}
	return claims.ExpiresWithin(c.clock.Now(), c.config.Session.AccessTokenRefreshSkew), nil
}

// Logout removes both stored tokens for userID.
func (c *Client) Logout(ctx context.Context, userID string) error {
	if c == nil {
		return ErrClientNotReady
	}
	return c.tokens.DeleteTokens(ctx, userID)
}

// MetricsSnapshot returns a copy of the client metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return c.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close flushes pending audit events. Server config calls fail afterwards.
func (c *Client) Close() error {
	if c == nil {
		return ErrClientNotReady
	}
	if !c.closed.CompareAndSwap(false, true) {
		return errors.New("client already closed")
	}
	c.audit.Close()
	return nil
}

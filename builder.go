package tokenvault

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/tokenvault/internal/audit"
	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/MrEthical07/tokenvault/serverconfig"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// appIDKey is the unformatted key of the persisted app ID under the namespace.
const appIDKey = "appId"

// Builder assembles a Client. A Builder can be used once.
type Builder struct {
	config Config
	store  securestore.Store

	httpClient *http.Client
	clock      clockwork.Clock
	log        logrus.FieldLogger
	auditSink  AuditSink

	built bool
}

// New returns a Builder starting from the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the secure store backing every token. Required.
func (b *Builder) WithStore(store securestore.Store) *Builder {
	b.store = store
	return b
}

// WithAppID pins the app ID instead of loading or generating one.
func (b *Builder) WithAppID(appID string) *Builder {
	b.config.Keychain.AppID = appID
	return b
}

// WithServerURL enables server config retrieval from baseURL.
func (b *Builder) WithServerURL(baseURL string) *Builder {
	b.config.Server.BaseURL = baseURL
	return b
}

// WithHTTPClient sets the client used for server config requests.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithClock replaces the real clock.
func (b *Builder) WithClock(clock clockwork.Clock) *Builder {
	b.clock = clock
	return b
}

// WithLogger replaces the logrus standard logger.
func (b *Builder) WithLogger(log logrus.FieldLogger) *Builder {
	b.log = log
	return b
}

// WithAuditSink sets the audit destination and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the store latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, resolves the app ID and returns a Client.
// Resolving the app ID may read from and write to the store.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("secure store required")
	}

	clock := b.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "tokenvault")

	// -------- APP ID --------
	appID, err := resolveAppID(ctx, b.store, cfg.Keychain, log)
	if err != nil {
		return nil, err
	}
	cfg.Keychain.AppID = appID

	// -------- SERVER CONFIG --------
	var fetcher *serverconfig.Fetcher
	if cfg.Server.BaseURL != "" {
		opts := []serverconfig.FetcherOption{
			serverconfig.WithClock(clock),
			serverconfig.WithLogger(log),
		}
		if b.httpClient != nil {
			opts = append(opts, serverconfig.WithHTTPClient(b.httpClient))
		}
		fetcher, err = serverconfig.NewFetcher(serverconfig.FetcherConfig{
			BaseURL: cfg.Server.BaseURL,
			Path:    cfg.Server.ConfigPath,
			MaxAge:  cfg.Server.MaxAge,
			Timeout: cfg.Server.Timeout,
		}, opts...)
		if err != nil {
			return nil, err
		}
	}

	metrics := NewMetrics(cfg.Metrics)
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	tokens := &KeychainTokenRepository{
		store:   b.store,
		appID:   appID,
		metrics: metrics,
		audit:   dispatcher,
		clock:   clock,
		log:     log,
	}

	b.built = true

	return &Client{
		config:  cfg,
		tokens:  tokens,
		fetcher: fetcher,
		metrics: metrics,
		audit:   dispatcher,
		clock:   clock,
		log:     log,
	}, nil
}

// resolveAppID returns the configured app ID, or the one persisted at
// "<namespace>:appId", generating and persisting a UUID on first use.
func resolveAppID(ctx context.Context, store securestore.Store, cfg KeychainConfig, log logrus.FieldLogger) (string, error) {
	if cfg.AppID != "" {
		return cfg.AppID, nil
	}

	key := fmt.Sprintf(storageKeyFormat, cfg.Namespace, appIDKey)
	appID, ok, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load app id: %w", err)
	}
	if ok && appID != "" {
		return appID, nil
	}

	appID = uuid.NewString()
	if err := store.Set(ctx, key, appID); err != nil {
		return "", fmt.Errorf("persist app id: %w", err)
	}
	log.WithField("app_id", appID).Info("Generated new app ID")
	return appID, nil
}

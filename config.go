package tokenvault

import (
	"errors"
	"strings"
	"time"
)

// Config holds everything the Builder needs. Treat it as immutable once passed to
// Builder.WithConfig.
type Config struct {
	Keychain KeychainConfig
	Server   ServerAPIConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
KEYCHAIN CONFIG
====================================
*/

// KeychainConfig controls storage key derivation.
type KeychainConfig struct {
	// Namespace prefixes client-internal entries such as the persisted app ID. It is
	// also the keyring service name for the OS keychain backend.
	Namespace string
	// AppID is the per-installation namespace of every token key. When empty the
	// Builder loads it from the store, generating one on first run.
	AppID string
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerAPIConfig points the client at the server's configuration endpoint.
// An empty BaseURL disables server config retrieval.
type ServerAPIConfig struct {
	BaseURL    string
	ConfigPath string
	MaxAge     time.Duration
	Timeout    time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls access token freshness checks.
type SessionConfig struct {
	// AccessTokenRefreshSkew treats an access token as expired this long before its
	// exp claim.
	AccessTokenRefreshSkew time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const (
	defaultNamespace  = "tokenvault"
	maxNamespaceBytes = 128
	maxAppIDBytes     = 128
)

// DefaultConfig returns the configuration the Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Keychain: KeychainConfig{
			Namespace: defaultNamespace,
		},
		Server: ServerAPIConfig{
			ConfigPath: "/api/config",
			MaxAge:     time.Hour,
			Timeout:    10 * time.Second,
		},
		Session: SessionConfig{
			AccessTokenRefreshSkew: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// No reference fields today; keep the copy point for future slices/maps.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Keychain
	ns := c.Keychain.Namespace
	if strings.TrimSpace(ns) == "" {
		return errors.New("Keychain Namespace must not be empty")
	}
	if len(ns) > maxNamespaceBytes {
		return errors.New("Keychain Namespace is too long")
	}
	if strings.ContainsAny(ns, ":\x00") {
		return errors.New("Keychain Namespace must not contain ':' or NUL")
	}
	if len(c.Keychain.AppID) > maxAppIDBytes {
		return errors.New("Keychain AppID is too long")
	}
	if strings.ContainsAny(c.Keychain.AppID, ":\x00") {
		return errors.New("Keychain AppID must not contain ':' or NUL")
	}

	// Server
	if base := strings.TrimSpace(c.Server.BaseURL); base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return errors.New("Server BaseURL must be http or https")
		}
		if c.Server.Timeout <= 0 {
			return errors.New("Server Timeout must be > 0")
		}
	}
	if c.Server.MaxAge < 0 {
		return errors.New("Server MaxAge must be >= 0")
	}

	// Session
	if c.Session.AccessTokenRefreshSkew < 0 {
		return errors.New("Session AccessTokenRefreshSkew must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

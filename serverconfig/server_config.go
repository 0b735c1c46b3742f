package serverconfig

import (
	"math"
	"time"
)

// MinVersionCipherKeyEncryption is the first server release that accepts
// per-item cipher keys.
const MinVersionCipherKeyEncryption = "2024.2.0"

// ServerConfig is an immutable snapshot of a configuration response.
type ServerConfig struct {
	// Date is when the response was retrieved.
	Date          time.Time
	Environment   *EnvironmentResponse
	FeatureStates map[string]any
	GitHash       string
	Server        *ThirdPartyServer
	Version       string
}

// New builds a snapshot from resp retrieved at date. The feature map and optional
// descriptors are copied so later changes to resp do not leak in.
func New(date time.Time, resp *ConfigResponse) *ServerConfig {
	cfg := &ServerConfig{
		Date:          date,
		FeatureStates: map[string]any{},
	}
	if resp == nil {
		return cfg
	}
	cfg.GitHash = resp.GitHash
	cfg.Version = resp.Version
	for k, v := range resp.FeatureStates {
		cfg.FeatureStates[k] = v
	}
	if resp.Environment != nil {
		env := *resp.Environment
		cfg.Environment = &env
	}
	if resp.Server != nil {
		srv := *resp.Server
		cfg.Server = &srv
	}
	return cfg
}

// SupportsCapability reports whether the server version is at least minVersion.
// A nil receiver or a malformed server version reports false.
func (c *ServerConfig) SupportsCapability(minVersion string) bool {
	if c == nil {
		return false
	}
	return versionAtLeast(c.Version, minVersion)
}

// SupportsCipherKeyEncryption gates per-item cipher keys.
func (c *ServerConfig) SupportsCipherKeyEncryption() bool {
	return c.SupportsCapability(MinVersionCipherKeyEncryption)
}

// IsOfficialServer reports whether no third-party server descriptor was sent.
func (c *ServerConfig) IsOfficialServer() bool {
	return c != nil && c.Server == nil
}

// FeatureFlag returns the raw value of a feature flag.
func (c *ServerConfig) FeatureFlag(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.FeatureStates[name]
	return v, ok
}

// BoolFlag returns a boolean flag, or def when missing or not a boolean.
func (c *ServerConfig) BoolFlag(name string, def bool) bool {
	v, ok := c.FeatureFlag(name)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// IntFlag returns an integer flag, or def when missing, not a number, or not integral.
func (c *ServerConfig) IntFlag(name string, def int) int {
	v, ok := c.FeatureFlag(name)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return def
		}
		return int(n)
	default:
		return def
	}
}

// StringFlag returns a string flag, or def when missing or not a string.
func (c *ServerConfig) StringFlag(name string, def string) string {
	v, ok := c.FeatureFlag(name)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

package serverconfig

import (
	"strings"
	"testing"
	"time"
)

func newSubject(version string) *ServerConfig {
	return New(time.Now(), &ConfigResponse{
		FeatureStates: map[string]any{},
		GitHash:       "123",
		Version:       version,
	})
}

func TestSupportsCipherKeyEncryptionEqualValidVersion(t *testing.T) {
	if !newSubject("2024.2.0").SupportsCipherKeyEncryption() {
		t.Fatal("expected equal version to be supported")
	}
}

func TestSupportsCipherKeyEncryptionGreaterValidVersion(t *testing.T) {
	if !newSubject("2024.3.15").SupportsCipherKeyEncryption() {
		t.Fatal("expected greater version to be supported")
	}
}

func TestSupportsCipherKeyEncryptionLesserVersion(t *testing.T) {
	if newSubject("2023.1.28").SupportsCipherKeyEncryption() {
		t.Fatal("expected lesser version to be unsupported")
	}
}

func TestSupportsCipherKeyEncryptionWrongFormat(t *testing.T) {
	if newSubject("20asdfasdf24.2.0").SupportsCipherKeyEncryption() {
		t.Fatal("expected malformed version to be unsupported")
	}
}

func TestSupportsCapabilityNilConfig(t *testing.T) {
	var cfg *ServerConfig
	if cfg.SupportsCapability("1.0.0") {
		t.Fatal("nil config must not support anything")
	}
}

func TestNewCopiesResponse(t *testing.T) {
	resp := &ConfigResponse{
		FeatureStates: map[string]any{"flag": true},
		Version:       "2024.2.0",
		Environment:   &EnvironmentResponse{Vault: "https://vault.example"},
	}
	cfg := New(time.Unix(100, 0), resp)

	resp.FeatureStates["flag"] = false
	resp.Environment.Vault = "https://evil.example"
	resp.Version = "1.0.0"

	if !cfg.BoolFlag("flag", false) {
		t.Fatal("snapshot feature map changed after construction")
	}
	if cfg.Environment.Vault != "https://vault.example" {
		t.Fatal("snapshot environment changed after construction")
	}
	if cfg.Version != "2024.2.0" {
		t.Fatal("snapshot version changed after construction")
	}
	if !cfg.Date.Equal(time.Unix(100, 0)) {
		t.Fatalf("unexpected date %v", cfg.Date)
	}
}

func TestNewNilResponse(t *testing.T) {
	cfg := New(time.Now(), nil)
	if cfg.SupportsCapability("0.0.0") {
		t.Fatal("empty version must not support capabilities")
	}
	if len(cfg.FeatureStates) != 0 {
		t.Fatal("expected empty feature map")
	}
}

func TestTypedFeatureFlags(t *testing.T) {
	body := `{
		"version": "2024.6.2",
		"gitHash": "abc123",
		"featureStates": {
			"enable-cipher-key-encryption": true,
			"unassigned-items-banner": "on",
			"email-verification": 3,
			"fractional": 1.5
		},
		"server": {"name": "Vaultwarden", "url": "https://vw.example"}
	}`
	resp, err := Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg := New(time.Now(), resp)

	if !cfg.BoolFlag("enable-cipher-key-encryption", false) {
		t.Fatal("expected bool flag true")
	}
	if got := cfg.StringFlag("unassigned-items-banner", ""); got != "on" {
		t.Fatalf("expected string flag on, got %q", got)
	}
	if got := cfg.IntFlag("email-verification", 0); got != 3 {
		t.Fatalf("expected int flag 3, got %d", got)
	}
	if got := cfg.IntFlag("fractional", 7); got != 7 {
		t.Fatalf("expected default for fractional number, got %d", got)
	}
	if got := cfg.BoolFlag("unassigned-items-banner", true); !got {
		t.Fatal("mistyped flag should yield default")
	}
	if got := cfg.BoolFlag("missing", true); !got {
		t.Fatal("missing flag should yield default")
	}
	if cfg.IsOfficialServer() {
		t.Fatal("third-party server descriptor present")
	}
	if cfg.Server.Name != "Vaultwarden" {
		t.Fatalf("unexpected server name %q", cfg.Server.Name)
	}
}

func TestDecodeInvalidBody(t *testing.T) {
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

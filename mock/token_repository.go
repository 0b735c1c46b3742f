package mock

import (
	"context"
	"sync"

	"github.com/MrEthical07/tokenvault"
)

// DefaultAppID is the app ID Storage keys are derived with unless AppID is set.
const DefaultAppID = "mock-app-id"

// Result is the configured outcome of a Get call.
type Result struct {
	Value string
	Err   error
}

// Call records one repository call. Value is only set for writes.
type Call struct {
	Method string
	UserID string
	Value  string
}

// TokenRepository is a configurable fake. Exported fields may be changed between
// calls; they are read under the same lock the methods use, so set them before
// sharing the fake across goroutines.
type TokenRepository struct {
	mu sync.Mutex

	AppID   string
	Storage map[string]string

	GetAccessTokenResult  Result
	GetRefreshTokenResult Result
	SetAccessTokenErr     error
	SetRefreshTokenErr    error
	DeleteTokensErr       error

	calls []Call
}

var _ tokenvault.TokenRepository = (*TokenRepository)(nil)

// NewTokenRepository returns a fake whose reads succeed with "ACCESS_TOKEN" and
// "REFRESH_TOKEN" until something is stored.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		AppID:                 DefaultAppID,
		Storage:               map[string]string{},
		GetAccessTokenResult:  Result{Value: "ACCESS_TOKEN"},
		GetRefreshTokenResult: Result{Value: "REFRESH_TOKEN"},
	}
}

// FormattedKey returns the Storage key for kind and userID.
func (m *TokenRepository) FormattedKey(kind tokenvault.CredentialKind, userID string) string {
	appID := m.AppID
	if appID == "" {
		appID = DefaultAppID
	}
	return tokenvault.StorageKey(appID, tokenvault.KeychainItem{Kind: kind, UserID: userID})
}

// GetAccessToken returns GetAccessTokenResult.Err, the stored value, or GetAccessTokenResult.Value.
func (m *TokenRepository) GetAccessToken(_ context.Context, userID string) (string, error) {
	return m.get("GetAccessToken", tokenvault.AccessToken, userID)
}

// GetRefreshToken returns GetRefreshTokenResult.Err, the stored value, or GetRefreshTokenResult.Value.
func (m *TokenRepository) GetRefreshToken(_ context.Context, userID string) (string, error) {
	return m.get("GetRefreshToken", tokenvault.RefreshToken, userID)
}

// SetAccessToken stores value under the formatted key unless SetAccessTokenErr is set.
func (m *TokenRepository) SetAccessToken(_ context.Context, value, userID string) error {
	return m.set("SetAccessToken", tokenvault.AccessToken, value, userID)
}

// SetRefreshToken stores value under the formatted key unless SetRefreshTokenErr is set.
func (m *TokenRepository) SetRefreshToken(_ context.Context, value, userID string) error {
	return m.set("SetRefreshToken", tokenvault.RefreshToken, value, userID)
}

// DeleteTokens removes both stored tokens for userID.
func (m *TokenRepository) DeleteTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: "DeleteTokens", UserID: userID})
	if m.DeleteTokensErr != nil {
		return m.DeleteTokensErr
	}
	delete(m.Storage, m.FormattedKey(tokenvault.AccessToken, userID))
	delete(m.Storage, m.FormattedKey(tokenvault.RefreshToken, userID))
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (m *TokenRepository) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and Storage, keeping configured results.
func (m *TokenRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = nil
	m.Storage = map[string]string{}
}

func (m *TokenRepository) get(method string, kind tokenvault.CredentialKind, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	configured := m.GetAccessTokenResult
	if kind == tokenvault.RefreshToken {
		configured = m.GetRefreshTokenResult
	}

	m.calls = append(m.calls, Call{Method: method, UserID: userID})
	if configured.Err != nil {
		return "", configured.Err
	}
	if v, ok := m.Storage[m.FormattedKey(kind, userID)]; ok {
		return v, nil
	}
	if configured.Value == "" {
		return "", tokenvault.ErrNotFound
	}
	return configured.Value, nil
}

func (m *TokenRepository) set(method string, kind tokenvault.CredentialKind, value, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	configured := m.SetAccessTokenErr
	if kind == tokenvault.RefreshToken {
		configured = m.SetRefreshTokenErr
	}

	m.calls = append(m.calls, Call{Method: method, UserID: userID, Value: value})
	if configured != nil {
		return configured
	}
	if m.Storage == nil {
		m.Storage = map[string]string{}
	}
	m.Storage[m.FormattedKey(kind, userID)] = value
	return nil
}

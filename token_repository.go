package tokenvault

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokenvault/internal/audit"
	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// TokenRepository reads and writes the two credential classes for a user.
//
// Get methods return ErrNotFound when nothing is stored and the store's own error
// (matching ErrStoreAccess) when the store fails. Set methods overwrite.
type TokenRepository interface {
	GetAccessToken(ctx context.Context, userID string) (string, error)
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	SetAccessToken(ctx context.Context, value, userID string) error
	SetRefreshToken(ctx context.Context, value, userID string) error
}

// KeychainTokenRepository is the TokenRepository over a securestore.Store. Each call
// is a single store operation on the key derived from (appID, kind, userID).
type KeychainTokenRepository struct {
	store   securestore.Store
	appID   string
	metrics *Metrics
	audit   *audit.Dispatcher
	clock   clockwork.Clock
	log     logrus.FieldLogger
}

var _ TokenRepository = (*KeychainTokenRepository)(nil)

// NewKeychainTokenRepository returns a repository with metrics and audit disabled.
// Clients built with the Builder get a fully wired repository from Client.Tokens.
func NewKeychainTokenRepository(store securestore.Store, appID string) *KeychainTokenRepository {
	return &KeychainTokenRepository{
		store: store,
		appID: appID,
		clock: clockwork.NewRealClock(),
		log:   logrus.StandardLogger(),
	}
}

// AppID returns the namespace of every key this repository touches.
func (r *KeychainTokenRepository) AppID() string {
	return r.appID
}

// FormattedKey returns the store key for kind and userID.
func (r *KeychainTokenRepository) FormattedKey(kind CredentialKind, userID string) string {
	return StorageKey(r.appID, KeychainItem{Kind: kind, UserID: userID})
}

// GetAccessToken returns the stored access token for userID.
func (r *KeychainTokenRepository) GetAccessToken(ctx context.Context, userID string) (string, error) {
	return r.get(ctx, AccessToken, userID)
}

// GetRefreshToken returns the stored refresh token for userID.
func (r *KeychainTokenRepository) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	return r.get(ctx, RefreshToken, userID)
}

// SetAccessToken stores value as the access token for userID.
func (r *KeychainTokenRepository) SetAccessToken(ctx context.Context, value, userID string) error {
	return r.set(ctx, AccessToken, value, userID)
}

// SetRefreshToken stores value as the refresh token for userID.
func (r *KeychainTokenRepository) SetRefreshToken(ctx context.Context, value, userID string) error {
	return r.set(ctx, RefreshToken, value, userID)
}

// DeleteTokens removes both tokens for userID. Missing tokens are not an error; both
// deletes are attempted even if the first fails.
func (r *KeychainTokenRepository) DeleteTokens(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	var errs []error
	for _, kind := range [...]CredentialKind{AccessToken, RefreshToken} {
		start := r.clock.Now()
		err := r.store.Delete(ctx, r.FormattedKey(kind, userID))
		r.metrics.Observe(MetricStoreLatency, r.clock.Since(start))
		if err != nil {
			r.log.WithError(err).WithField("kind", kind.String()).Warn("Token delete failed")
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)

	r.metrics.Inc(MetricTokenDelete)
	r.emit(ctx, AuditTokensDelete, userID, err, nil)
	return err
}

func (r *KeychainTokenRepository) get(ctx context.Context, kind CredentialKind, userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}

	start := r.clock.Now()
	value, ok, err := r.store.Get(ctx, r.FormattedKey(kind, userID))
	r.metrics.Observe(MetricStoreLatency, r.clock.Since(start))

	if err != nil {
		r.metrics.Inc(MetricTokenReadFailure)
		r.log.WithError(err).WithField("kind", kind.String()).Warn("Token read failed")
		return "", err
	}
	if !ok {
		r.metrics.Inc(MetricTokenReadNotFound)
		return "", ErrNotFound
	}

	r.metrics.Inc(MetricTokenReadSuccess)
	return value, nil
}

func (r *KeychainTokenRepository) set(ctx context.Context, kind CredentialKind, value, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	start := r.clock.Now()
	err := r.store.Set(ctx, r.FormattedKey(kind, userID), value)
	r.metrics.Observe(MetricStoreLatency, r.clock.Since(start))

	if err != nil {
		r.metrics.Inc(MetricTokenWriteFailure)
		r.log.WithError(err).WithField("kind", kind.String()).Warn("Token write failed")
	} else {
		r.metrics.Inc(MetricTokenWriteSuccess)
	}

	eventType := AuditAccessTokenWrite
	if kind == RefreshToken {
		eventType = AuditRefreshTokenWrite
	}
	r.emit(ctx, eventType, userID, err, map[string]string{"kind": kind.String()})
	return err
}

func (r *KeychainTokenRepository) emit(ctx context.Context, eventType, userID string, err error, metadata map[string]string) {
	if r.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: r.clock.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Success:   err == nil,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	r.audit.Emit(ctx, event)
}

func validateUserID(userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	return nil
}

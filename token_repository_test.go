package tokenvault

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/tokenvault/securestore"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemoryStore()
	repo := newTestRepository(t, store, nil)

	if err := repo.SetAccessToken(ctx, "tokenA", "user-1"); err != nil {
		t.Fatalf("SetAccessToken failed: %v", err)
	}
	got, err := repo.GetAccessToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if got != "tokenA" {
		t.Fatalf("expected tokenA, got %q", got)
	}

	value, ok, err := store.Get(ctx, testAppID+":accessToken_user-1")
	if err != nil || !ok || value != "tokenA" {
		t.Fatalf("expected value at derived key, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestRepositoryRefreshOnlyLeavesAccessMissing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, securestore.NewMemoryStore(), nil)

	if err := repo.SetRefreshToken(ctx, "refreshB", "user-2"); err != nil {
		t.Fatalf("SetRefreshToken failed: %v", err)
	}

	if _, err := repo.GetAccessToken(ctx, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := repo.GetRefreshToken(ctx, "user-2")
	if err != nil || got != "refreshB" {
		t.Fatalf("expected refreshB, got %q err=%v", got, err)
	}
}

func TestRepositoryUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, securestore.NewMemoryStore(), nil)

	if err := repo.SetAccessToken(ctx, "alice-token", "alice"); err != nil {
		t.Fatalf("set alice failed: %v", err)
	}
	if err := repo.SetAccessToken(ctx, "bob-token", "bob"); err != nil {
		t.Fatalf("set bob failed: %v", err)
	}

	for user, want := range map[string]string{"alice": "alice-token", "bob": "bob-token"} {
		got, err := repo.GetAccessToken(ctx, user)
		if err != nil || got != want {
			t.Fatalf("user %s: expected %q, got %q err=%v", user, want, got, err)
		}
	}
	if _, err := repo.GetAccessToken(ctx, "carol"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for carol, got %v", err)
	}
}

func TestRepositorySetOverwritesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemoryStore()
	repo := newTestRepository(t, store, nil)

	for _, v := range []string{"v1", "v2", "v2"} {
		if err := repo.SetRefreshToken(ctx, v, "user-1"); err != nil {
			t.Fatalf("SetRefreshToken(%q) failed: %v", v, err)
		}
	}

	got, err := repo.GetRefreshToken(ctx, "user-1")
	if err != nil || got != "v2" {
		t.Fatalf("expected v2, got %q err=%v", got, err)
	}
	if n := len(store.Keys()); n != 1 {
		t.Fatalf("expected exactly one stored key, got %d", n)
	}
}

func TestRepositoryEmptyValueIsStored(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, securestore.NewMemoryStore(), nil)

	if err := repo.SetAccessToken(ctx, "", "user-1"); err != nil {
		t.Fatalf("SetAccessToken failed: %v", err)
	}
	got, err := repo.GetAccessToken(ctx, "user-1")
	if err != nil || got != "" {
		t.Fatalf("expected empty stored value, got %q err=%v", got, err)
	}
}

func TestRepositoryLockedStoreSurfacesStoreAccess(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemoryStore()
	repo := newTestRepository(t, store, nil)

	if err := repo.SetAccessToken(ctx, "tokenA", "user-1"); err != nil {
		t.Fatalf("SetAccessToken failed: %v", err)
	}
	store.SetLocked(true)

	if _, err := repo.GetAccessToken(ctx, "user-1"); !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected ErrStoreAccess, got %v", err)
	}
	if err := repo.SetRefreshToken(ctx, "x", "user-1"); !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected ErrStoreAccess on set, got %v", err)
	}
	if err := repo.SetRefreshToken(ctx, "x", "user-1"); !errors.Is(err, securestore.ErrStoreLocked) {
		t.Fatalf("expected cause to stay matchable, got %v", err)
	}
}

func TestRepositoryPassesStoreErrorsThroughUnchanged(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("keychain daemon gone")
	store := &failingStore{err: storeErr}
	repo := newTestRepository(t, store, nil)

	if _, err := repo.GetRefreshToken(ctx, "user-1"); err != storeErr {
		t.Fatalf("expected store error unchanged, got %v", err)
	}
	if err := repo.SetAccessToken(ctx, "v", "user-1"); err != storeErr {
		t.Fatalf("expected store error unchanged, got %v", err)
	}
}

func TestRepositoryRejectsEmptyUserIDWithoutStoreAccess(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{err: errors.New("must not be called")}
	repo := newTestRepository(t, store, nil)

	if _, err := repo.GetAccessToken(ctx, ""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if err := repo.SetRefreshToken(ctx, "v", ""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if err := repo.DeleteTokens(ctx, ""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("expected no store calls, got %d", store.calls)
	}
}

func TestRepositoryDeleteTokens(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemoryStore()
	repo := newTestRepository(t, store, nil)

	_ = repo.SetAccessToken(ctx, "a", "user-1")
	_ = repo.SetRefreshToken(ctx, "r", "user-1")
	_ = repo.SetAccessToken(ctx, "other", "user-2")

	if err := repo.DeleteTokens(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteTokens failed: %v", err)
	}
	if _, err := repo.GetAccessToken(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected access token removed, got %v", err)
	}
	if _, err := repo.GetRefreshToken(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refresh token removed, got %v", err)
	}
	if got, err := repo.GetAccessToken(ctx, "user-2"); err != nil || got != "other" {
		t.Fatalf("expected other user untouched, got %q err=%v", got, err)
	}

	if err := repo.DeleteTokens(ctx, "user-1"); err != nil {
		t.Fatalf("expected delete of missing tokens to succeed, got %v", err)
	}
}

func TestRepositoryDeleteTokensJoinsErrors(t *testing.T) {
	store := securestore.NewMemoryStore()
	store.SetLocked(true)
	repo := newTestRepository(t, store, nil)

	err := repo.DeleteTokens(context.Background(), "user-1")
	if !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected ErrStoreAccess, got %v", err)
	}
}

func TestRepositoryOverRedis(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	repo := newTestRepository(t, securestore.NewRedisStore(rdb, "tv"), nil)

	if err := repo.SetAccessToken(ctx, "tokenA", "user-1"); err != nil {
		t.Fatalf("SetAccessToken failed: %v", err)
	}
	raw, err := mr.Get("tv:" + testAppID + ":accessToken_user-1")
	if err != nil || raw != "tokenA" {
		t.Fatalf("expected raw redis value tokenA, got %q err=%v", raw, err)
	}

	mr.Close()
	if _, err := repo.GetAccessToken(ctx, "user-1"); !errors.Is(err, ErrStoreAccess) {
		t.Fatalf("expected ErrStoreAccess after redis shutdown, got %v", err)
	}
}

func TestRepositoryMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	store := securestore.NewMemoryStore()
	repo := newTestRepository(t, store, metrics)

	_ = repo.SetAccessToken(ctx, "a", "user-1")
	_, _ = repo.GetAccessToken(ctx, "user-1")
	_, _ = repo.GetRefreshToken(ctx, "user-1")
	store.SetLocked(true)
	_, _ = repo.GetAccessToken(ctx, "user-1")
	_ = repo.SetAccessToken(ctx, "b", "user-1")

	want := map[MetricID]uint64{
		MetricTokenWriteSuccess: 1,
		MetricTokenReadSuccess:  1,
		MetricTokenReadNotFound: 1,
		MetricTokenReadFailure:  1,
		MetricTokenWriteFailure: 1,
	}
	for id, n := range want {
		if got := metrics.Value(id); got != n {
			t.Fatalf("metric %d: expected %d, got %d", id, n, got)
		}
	}

	var observed uint64
	for _, v := range metrics.Snapshot().Histograms[MetricStoreLatency] {
		observed += v
	}
	if observed != 5 {
		t.Fatalf("expected 5 latency observations, got %d", observed)
	}
}

func TestRepositoryNeverLogsTokenValues(t *testing.T) {
	ctx := context.Background()
	store := securestore.NewMemoryStore()
	log, hook := newTestLogger()
	repo := newTestRepository(t, store, nil)
	repo.log = log

	const secret = "super-secret-token-value"
	_ = repo.SetAccessToken(ctx, secret, "user-1")
	store.SetLocked(true)
	_ = repo.SetAccessToken(ctx, secret, "user-1")
	_, _ = repo.GetAccessToken(ctx, "user-1")

	if len(hook.AllEntries()) == 0 {
		t.Fatalf("expected failure log entries")
	}
	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		if err != nil {
			t.Fatalf("format entry: %v", err)
		}
		if strings.Contains(line, secret) {
			t.Fatalf("token value leaked into log: %s", line)
		}
	}
}

func TestRepositoryConcurrentWritersDistinctUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, securestore.NewMemoryStore(), nil)

	const users = 32
	var wg sync.WaitGroup
	wg.Add(users)
	for i := 0; i < users; i++ {
		user := "user-" + strings.Repeat("x", i)
		go func() {
			defer wg.Done()
			if err := repo.SetAccessToken(ctx, user+"-token", user); err != nil {
				t.Errorf("set %s failed: %v", user, err)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < users; i++ {
		user := "user-" + strings.Repeat("x", i)
		got, err := repo.GetAccessToken(ctx, user)
		if err != nil || got != user+"-token" {
			t.Fatalf("user %s: got %q err=%v", user, got, err)
		}
	}
}

package tokenvault

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const testAppID = "00000000-0000-4000-8000-000000000001"

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestLogger() (logrus.FieldLogger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func newTestRepository(t *testing.T, store securestore.Store, metrics *Metrics) *KeychainTokenRepository {
	t.Helper()

	log, _ := newTestLogger()
	return &KeychainTokenRepository{
		store:   store,
		appID:   testAppID,
		metrics: metrics,
		clock:   clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		log:     log,
	}
}

// failingStore fails every call with err and counts calls.
type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) Get(context.Context, string) (string, bool, error) {
	s.calls++
	return "", false, s.err
}

func (s *failingStore) Set(context.Context, string, string) error {
	s.calls++
	return s.err
}

func (s *failingStore) Delete(context.Context, string) error {
	s.calls++
	return s.err
}

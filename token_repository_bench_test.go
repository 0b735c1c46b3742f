package tokenvault

import (
	"context"
	"strconv"
	"testing"

	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkGetAccessTokenMemory(b *testing.B) {
	repo := newBenchmarkRepository(b, securestore.NewMemoryStore())
	benchmarkGet(b, repo)
}

func BenchmarkGetAccessTokenRedis(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := newBenchmarkRepository(b, securestore.NewRedisStore(rdb, "tv"))
	benchmarkGet(b, repo)
}

func BenchmarkSetAccessTokenMemory(b *testing.B) {
	repo := newBenchmarkRepository(b, securestore.NewMemoryStore())
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := repo.SetAccessToken(ctx, "token-value", "user-1"); err != nil {
			b.Fatalf("set failed: %v", err)
		}
	}
}

func BenchmarkGetAccessTokenParallel(b *testing.B) {
	repo := newBenchmarkRepository(b, securestore.NewMemoryStore())
	ctx := context.Background()
	for i := 0; i < 64; i++ {
		_ = repo.SetAccessToken(ctx, "token-value", "user-"+strconv.Itoa(i))
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := repo.GetAccessToken(ctx, "user-"+strconv.Itoa(i%64)); err != nil {
				b.Fatalf("get failed: %v", err)
			}
			i++
		}
	})
}

func benchmarkGet(b *testing.B, repo *KeychainTokenRepository) {
	ctx := context.Background()
	if err := repo.SetAccessToken(ctx, "token-value", "user-1"); err != nil {
		b.Fatalf("seed failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.GetAccessToken(ctx, "user-1"); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}

func newBenchmarkRepository(b *testing.B, store securestore.Store) *KeychainTokenRepository {
	b.Helper()

	repo := NewKeychainTokenRepository(store, testAppID)
	repo.metrics = NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	log, _ := newTestLogger()
	repo.log = log
	return repo
}

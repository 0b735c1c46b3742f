package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/tokenvault"
	"github.com/MrEthical07/tokenvault/securestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		users       = flag.Int("users", 100000, "number of users to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (read + write)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "tv", "redis key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	client, err := tokenvault.New().
		WithStore(securestore.NewRedisStore(rdb, *prefix)).
		WithLogger(log).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Printf("app id %s\n", client.AppID())

	repo := client.Tokens()
	userIDs := make([]string, *users)
	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("user-%d", i)
		if err := repo.SetAccessToken(ctx, tokenFor("access", i, 0), userIDs[i]); err != nil {
			fmt.Fprintf(os.Stderr, "seed access token failed: %v\n", err)
			os.Exit(1)
		}
		if err := repo.SetRefreshToken(ctx, tokenFor("refresh", i, 0), userIDs[i]); err != nil {
			fmt.Fprintf(os.Stderr, "seed refresh token failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := repo.GetAccessToken(ctx, userIDs[r.Intn(len(userIDs))])
		return err
	})
	writeStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, op int) error {
		idx := r.Intn(len(userIDs))
		if err := repo.SetAccessToken(ctx, tokenFor("access", idx, op), userIDs[idx]); err != nil {
			return err
		}
		return repo.SetRefreshToken(ctx, tokenFor("refresh", idx, op), userIDs[idx])
	})

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("write", writeStats)
	printLatency(client.MetricsSnapshot())
}

// runPhase runs ops calls of op across concurrency workers and collects latencies.
func runPhase(ops, concurrency int, seedStep int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func printLatency(snap tokenvault.MetricsSnapshot) {
	bounds := []string{"1ms", "5ms", "10ms", "25ms", "50ms", "100ms", "250ms", "+Inf"}
	fmt.Print("store latency:")
	for i, n := range snap.Histograms[tokenvault.MetricStoreLatency] {
		if i < len(bounds) {
			fmt.Printf(" <=%s:%d", bounds[i], n)
		}
	}
	fmt.Println()
}

func tokenFor(kind string, user, generation int) string {
	return fmt.Sprintf("%s.%d.%d", kind, user, generation)
}

package main

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	goVerify "github.com/MrEthical07/goVerify"
	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/keys"
	"github.com/MrEthical07/goVerify/revocation"
)

type fixture struct {
	token   string
	jti     string
	revoked bool
}

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of distinct tokens to mint")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "verifications per phase")
		alg         = flag.String("alg", "ES256", "signing algorithm: HS256, RS256, ES256, or EdDSA")
		revokedPct  = flag.Int("revoked-pct", 5, "percentage of tokens placed on the revocation list")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "rv", "revocation key prefix")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 || *revokedPct < 0 || *revokedPct > 100 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0; revoked-pct must be 0..100")
		os.Exit(2)
	}

	ctx := context.Background()

	signingKey, material, err := generateKey(algorithm.ID(*alg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "key generation failed: %v\n", err)
		os.Exit(2)
	}
	set, err := keys.NewSet(material.WithID("load"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "key set failed: %v\n", err)
		os.Exit(1)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := revocation.NewStore(client, *prefix)

	policy := goVerify.DefaultPolicy(algorithm.ID(*alg))
	policy.ExpectedIssuer = "goverify-loadtest"
	policy.ExpectedAudience = []string{"load"}

	fmt.Printf("minting %d %s tokens...\n", *tokens, *alg)
	startSeed := time.Now()
	fixtures, err := mint(ctx, store, algorithm.ID(*alg), signingKey, *tokens, *revokedPct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("minted in %s\n", time.Since(startSeed).Round(time.Millisecond))

	m, _ := set.Lookup("load")
	coreStats := runPhase(fixtures, *ops, *concurrency, func(f *fixture) bool {
		_, err := goVerify.VerifyToken(f.token, m, policy, time.Now())
		return err == nil
	})

	v, err := goVerify.New().
		WithPolicy(policy).
		WithKeys(set).
		WithRevocation(store).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build verifier failed: %v\n", err)
		os.Exit(1)
	}
	defer v.Close()

	verifierStats := runPhase(fixtures, *ops, *concurrency, func(f *fixture) bool {
		_, err := v.Verify(ctx, f.token)
		if f.revoked {
			return errors.Is(err, goVerify.ErrTokenRevoked)
		}
		return err == nil
	})

	fmt.Println("---- results ----")
	printStats("verify_token", coreStats)
	printStats("verifier+revocation", verifierStats)

	snap := v.MetricsSnapshot()
	fmt.Printf("verifier counters: success=%d revoked=%d revocation_errors=%d\n",
		snap.Counters[goVerify.MetricVerifySuccess],
		snap.Counters[goVerify.MetricTokenRevoked],
		snap.Counters[goVerify.MetricRevocationError],
	)
}

func mint(ctx context.Context, store *revocation.Store, alg algorithm.ID, key crypto.PrivateKey, n, revokedPct int) ([]fixture, error) {
	s, ok := algorithm.Resolve(alg)
	if !ok || s.Method() == nil {
		return nil, fmt.Errorf("cannot sign with %s", alg)
	}

	now := time.Now()
	out := make([]fixture, n)
	for i := range out {
		jti := uuid.NewString()
		tok := jwt.NewWithClaims(s.Method(), jwt.MapClaims{
			"iss": "goverify-loadtest",
			"aud": "load",
			"sub": fmt.Sprintf("user-%d", i),
			"jti": jti,
			"iat": now.Unix(),
			"exp": now.Add(24 * time.Hour).Unix(),
		})
		tok.Header["kid"] = "load"
		signed, err := tok.SignedString(key)
		if err != nil {
			return nil, err
		}
		out[i] = fixture{token: signed, jti: jti, revoked: i%100 < revokedPct}
		if out[i].revoked {
			if err := store.Revoke(ctx, jti, now.Add(24*time.Hour)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func generateKey(alg algorithm.ID) (crypto.PrivateKey, keys.Material, error) {
	switch alg {
	case algorithm.HS256:
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, keys.Material{}, err
		}
		m, err := keys.HMAC(secret)
		return secret, m, err
	case algorithm.RS256:
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, keys.Material{}, err
		}
		m, err := keys.RSA(&k.PublicKey)
		return k, m, err
	case algorithm.ES256:
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, keys.Material{}, err
		}
		m, err := keys.ECDSA(&k.PublicKey)
		return k, m, err
	case algorithm.EdDSA:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, keys.Material{}, err
		}
		m, err := keys.Ed25519(pub)
		return priv, m, err
	default:
		return nil, keys.Material{}, fmt.Errorf("unsupported load algorithm %q", alg)
	}
}

func runPhase(fixtures []fixture, ops, concurrency int, verify func(*fixture) bool) phaseStats {
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
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				f := &fixtures[r.Intn(len(fixtures))]
				t0 := time.Now()
				ok := verify(f)
				d := time.Since(t0)
				if !ok {
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

// printStats reports unexpected outcomes as failures: a revoked token the
// verifier accepted counts, a revoked token it rejected does not.
func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d unexpected=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

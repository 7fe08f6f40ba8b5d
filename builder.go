package goVerify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goVerify/algorithm"
	"github.com/MrEthical07/goVerify/keys"
)

// Builder assembles a Verifier. A Builder is single-use: Build may succeed
// only once.
type Builder struct {
	config Config

	keys       *keys.Set
	revocation RevocationChecker
	auditSink  AuditSink
	logger     *slog.Logger
	clock      func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration. The allow-list
// starts empty; WithPolicy or WithConfig must supply it.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPolicy replaces only the verification policy.
func (b *Builder) WithPolicy(p Policy) *Builder {
	b.config.Policy = clonePolicy(p)
	return b
}

// WithKeys sets the keys tokens are verified against, selected by kid.
func (b *Builder) WithKeys(set *keys.Set) *Builder {
	b.keys = set
	return b
}

// WithRevocation sets the jti revocation lookup consulted after a token verifies.
func (b *Builder) WithRevocation(r RevocationChecker) *Builder {
	b.revocation = r
	return b
}

// WithAuditSink sets the sink and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Verify latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithLogger sets the logger for backend failures. Defaults to a discarding logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source passed to VerifyToken. Tests use it to
// pin now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns a ready Verifier.
func (b *Builder) Build() (*Verifier, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.keys.Len() == 0 {
		return nil, errors.New("key set required")
	}
	if err := checkKeyFamilies(cfg.Policy, b.keys); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	v := &Verifier{
		config:     cfg,
		keys:       b.keys,
		revocation: b.revocation,
		logger:     logger.With("component", "goverify"),
		clock:      clock,
		metrics:    NewMetrics(cfg.Metrics),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink, clock),
	}

	b.built = true

	return v, nil
}

// checkKeyFamilies refuses a key set that cannot serve any allowed algorithm.
func checkKeyFamilies(p Policy, set *keys.Set) error {
	have := make(map[algorithm.Family]bool)
	for _, m := range set.Materials() {
		have[m.Family] = true
	}
	for _, f := range p.Families() {
		if have[f] {
			return nil
		}
	}
	return fmt.Errorf("no configured key matches the allowed algorithm families %v", p.Families())
}

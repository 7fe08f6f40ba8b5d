package goVerify

import (
	"errors"
	"time"

	"github.com/MrEthical07/goVerify/algorithm"
)

// Config holds everything a Verifier needs besides keys and collaborators.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Policy     Policy
	Audit      AuditConfig
	Metrics    MetricsConfig
	Revocation RevocationConfig
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls how Verifier consults its RevocationChecker.
type RevocationConfig struct {
	// FailClosed rejects tokens with ErrRevocationUnavailable when the
	// backend errors. When false the failure is logged and the token passes.
	FailClosed bool
	// Timeout bounds each lookup. Zero means the caller's context only.
	Timeout time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Policy: Policy{
			ClockSkew:         DefaultClockSkew,
			RequireExpiration: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Revocation: RevocationConfig{
			FailClosed: true,
			Timeout:    50 * time.Millisecond,
		},
	}
}

// DefaultConfig returns the defaults New starts from, allowing algs.
func DefaultConfig(algs ...algorithm.ID) Config {
	cfg := defaultConfig()
	cfg.Policy.AllowedAlgorithms = append([]algorithm.ID(nil), algs...)
	return cfg
}

// HighSecurityConfig tightens DefaultConfig: iat required, a 10s skew, and
// audit enabled without dropping events.
func HighSecurityConfig(algs ...algorithm.ID) Config {
	cfg := DefaultConfig(algs...)
	cfg.Policy.ClockSkew = 10 * time.Second
	cfg.Policy.RequireIssuedAt = true
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	cfg.Metrics.Enabled = true
	cfg.Revocation.FailClosed = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Policy = clonePolicy(cfg.Policy)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports configuration that Build must refuse.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	if c.Revocation.Timeout < 0 {
		return errors.New("Revocation Timeout must be >= 0")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is a valid but questionable configuration choice.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but weaken verification.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	p := c.Policy
	if p.ClockSkew > 2*time.Minute {
		add("skew_large", "ClockSkew above 2m lets expired tokens through for longer")
	}
	if !p.RequireExpiration {
		add("expiration_optional", "tokens without exp never expire")
	}
	if p.ExpectedIssuer == "" {
		add("issuer_unchecked", "any issuer is accepted")
	}
	if len(p.ExpectedAudience) == 0 {
		add("audience_unchecked", "tokens minted for other audiences are accepted")
	}

	families := p.Families()
	symmetric, asymmetric := false, false
	for _, f := range families {
		if f.Symmetric() {
			symmetric = true
		} else {
			asymmetric = true
		}
	}
	if symmetric && asymmetric {
		add("mixed_families", "allowing HMAC next to public-key algorithms invites key confusion")
	}
	if len(families) > 1 {
		add("multiple_families", "more than one key family is allowed")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", "verification outcomes are not audited")
	}
	if !c.Revocation.FailClosed {
		add("revocation_fail_open", "revoked tokens pass while the revocation backend is down")
	}
	return ws
}

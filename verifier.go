package goVerify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goVerify/internal/compact"
	"github.com/MrEthical07/goVerify/keys"
)

// RevocationChecker reports whether a token ID has been revoked.
// Implementations must be safe for concurrent use.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Verifier runs VerifyToken for servers: it picks the key by kid, reads the
// clock, consults revocation, and records metrics and audit events. The core
// failure kind is never altered; shell failures use their own errors.
//
// Verifier methods are safe to call from multiple goroutines after Build.
type Verifier struct {
	config     Config
	keys       *keys.Set
	revocation RevocationChecker
	logger     *slog.Logger
	clock      func() time.Time
	metrics    *Metrics
	audit      *auditDispatcher
}

// Verify verifies token under the configured policy at the current clock time.
//
// Errors are either a *VerificationError from VerifyToken or one of
// ErrVerifierNotReady, ErrUnknownKeyID, ErrTokenRevoked, and
// ErrRevocationUnavailable.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if v == nil || v.keys == nil {
		return nil, ErrVerifierNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var start time.Time
	if v.metrics.LatencyEnabled() {
		start = time.Now()
	}

	event := AuditEvent{
		EventType: AuditEventVerify,
		IP:        clientIPFromContext(ctx),
		RequestID: requestIDFromContext(ctx),
	}

	c, metric, err := v.verify(ctx, token, &event)
	v.metrics.Inc(metric)
	if !start.IsZero() {
		v.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	event.Success = err == nil
	if err != nil {
		event.Error = errorCode(err)
	}
	v.audit.Emit(ctx, event)

	return c, err
}

func (v *Verifier) verify(ctx context.Context, token string, event *AuditEvent) (*Claims, MetricID, error) {
	tok, err := compact.Parse(token)
	if err != nil {
		return nil, MetricForKind(KindOf(err)), err
	}
	event.Algorithm = tok.Algorithm()
	event.KeyID = tok.KeyID()

	if err := admit(tok, v.config.Policy); err != nil {
		return nil, MetricForKind(KindOf(err)), err
	}

	key, ok := v.keys.Lookup(tok.KeyID())
	if !ok {
		return nil, MetricUnknownKeyID, ErrUnknownKeyID
	}

	c, err := verifyParsed(tok, key, v.config.Policy, v.clock())
	if err != nil {
		return nil, MetricForKind(KindOf(err)), err
	}
	event.Subject = c.Subject()
	event.Issuer = c.Issuer()
	event.TokenID = c.ID()

	if metric, err := v.checkRevoked(ctx, c.ID()); err != nil {
		return nil, metric, err
	}
	return c, MetricVerifySuccess, nil
}

func (v *Verifier) checkRevoked(ctx context.Context, jti string) (MetricID, error) {
	if v.revocation == nil || jti == "" {
		return MetricVerifySuccess, nil
	}
	if v.config.Revocation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.config.Revocation.Timeout)
		defer cancel()
	}

	revoked, err := v.revocation.IsRevoked(ctx, jti)
	if err != nil {
		v.logger.WarnContext(ctx, "revocation lookup failed",
			slog.String("jti", jti),
			slog.Bool("fail_closed", v.config.Revocation.FailClosed),
			slog.Any("error", err))
		if v.config.Revocation.FailClosed {
			return MetricRevocationError, ErrRevocationUnavailable
		}
		// Fail open: count the backend error, report the token as verified.
		v.metrics.Inc(MetricRevocationError)
		return MetricVerifySuccess, nil
	}
	if revoked {
		return MetricTokenRevoked, ErrTokenRevoked
	}
	return MetricVerifySuccess, nil
}

// Policy returns a copy of the policy this Verifier enforces.
func (v *Verifier) Policy() Policy {
	if v == nil {
		return Policy{}
	}
	return clonePolicy(v.config.Policy)
}

// Close flushes pending audit events. Verify must not be called afterwards.
func (v *Verifier) Close() {
	if v == nil {
		return
	}
	if v.audit != nil {
		v.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped so far.
func (v *Verifier) AuditDropped() uint64 {
	if v == nil || v.audit == nil {
		return 0
	}
	return v.audit.Dropped()
}

// MetricsSnapshot returns the current counter values.
func (v *Verifier) MetricsSnapshot() MetricsSnapshot {
	if v == nil || v.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return v.metrics.Snapshot()
}

// errorCode maps err to a stable audit string.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownKeyID):
		return "unknown_key_id"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrRevocationUnavailable):
		return "revocation_unavailable"
	case errors.Is(err, ErrVerifierNotReady):
		return "verifier_not_ready"
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return "internal"
}

package goVerify

import (
	"time"

	"github.com/MrEthical07/goVerify/algorithm"
)

// SecurityReport summarizes the effective verification posture of a Verifier.
type SecurityReport struct {
	AllowedAlgorithms   []algorithm.ID
	KeyFamilies         []string
	KeyCount            int
	ClockSkew           time.Duration
	IssuerChecked       bool
	AudienceChecked     bool
	ExpirationRequired  bool
	IssuedAtRequired    bool
	RequiredClaims      []string
	RevocationEnabled   bool
	RevocationFailClose bool
	AuditEnabled        bool
	MetricsEnabled      bool
	LintCodes           []string
}

// SecurityReport reports the effective configuration. It never includes key bytes.
func (v *Verifier) SecurityReport() SecurityReport {
	if v == nil {
		return SecurityReport{}
	}

	p := v.config.Policy
	seen := make(map[algorithm.Family]bool)
	var families []string
	for _, m := range v.keys.Materials() {
		if !seen[m.Family] {
			seen[m.Family] = true
			families = append(families, m.Family.String())
		}
	}

	return SecurityReport{
		AllowedAlgorithms:   append([]algorithm.ID(nil), p.AllowedAlgorithms...),
		KeyFamilies:         families,
		KeyCount:            v.keys.Len(),
		ClockSkew:           p.ClockSkew,
		IssuerChecked:       p.ExpectedIssuer != "",
		AudienceChecked:     len(p.ExpectedAudience) > 0,
		ExpirationRequired:  p.RequireExpiration,
		IssuedAtRequired:    p.RequireIssuedAt,
		RequiredClaims:      append([]string(nil), p.RequiredClaims...),
		RevocationEnabled:   v.revocation != nil,
		RevocationFailClose: v.revocation != nil && v.config.Revocation.FailClosed,
		AuditEnabled:        v.audit != nil,
		MetricsEnabled:      v.metrics.Enabled(),
		LintCodes:           v.config.Lint().Codes(),
	}
}

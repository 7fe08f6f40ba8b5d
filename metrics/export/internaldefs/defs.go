package internaldefs

import (
	goVerify "github.com/MrEthical07/goVerify"
)

// CounterDef names one Verifier counter for exporters.
type CounterDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// HistogramDef names one Verifier histogram for exporters.
type HistogramDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: goVerify.MetricVerifySuccess, Name: "goverify_verify_success_total", Help: "Tokens that passed every check."},
	{ID: goVerify.MetricStructureError, Name: "goverify_structure_error_total", Help: "Tokens without exactly three non-empty segments."},
	{ID: goVerify.MetricMalformedEncoding, Name: "goverify_malformed_encoding_total", Help: "Tokens with a segment that is not valid base64url."},
	{ID: goVerify.MetricInvalidJSON, Name: "goverify_invalid_json_total", Help: "Tokens whose header or payload is not a JSON object."},
	{ID: goVerify.MetricUnknownAlgorithm, Name: "goverify_unknown_algorithm_total", Help: "Tokens naming an algorithm outside the registry."},
	{ID: goVerify.MetricAlgorithmNotAllowed, Name: "goverify_algorithm_not_allowed_total", Help: "Tokens rejected by the algorithm allow-list."},
	{ID: goVerify.MetricKeyMismatch, Name: "goverify_key_mismatch_total", Help: "Tokens whose algorithm does not fit the selected key."},
	{ID: goVerify.MetricSignatureInvalid, Name: "goverify_signature_invalid_total", Help: "Tokens with a bad signature."},
	{ID: goVerify.MetricExpired, Name: "goverify_expired_total", Help: "Tokens past exp."},
	{ID: goVerify.MetricNotYetValid, Name: "goverify_not_yet_valid_total", Help: "Tokens before nbf."},
	{ID: goVerify.MetricIssuedInFuture, Name: "goverify_issued_in_future_total", Help: "Tokens with iat in the future."},
	{ID: goVerify.MetricMissingClaim, Name: "goverify_missing_claim_total", Help: "Tokens lacking a required claim."},
	{ID: goVerify.MetricIssuerMismatch, Name: "goverify_issuer_mismatch_total", Help: "Tokens from an unexpected issuer."},
	{ID: goVerify.MetricAudienceMismatch, Name: "goverify_audience_mismatch_total", Help: "Tokens minted for another audience."},
	{ID: goVerify.MetricMalformedClaim, Name: "goverify_malformed_claim_total", Help: "Tokens with a registered claim of the wrong type."},
	{ID: goVerify.MetricUnknownKeyID, Name: "goverify_unknown_key_id_total", Help: "Tokens whose kid matched no configured key."},
	{ID: goVerify.MetricTokenRevoked, Name: "goverify_token_revoked_total", Help: "Valid tokens found on the revocation list."},
	{ID: goVerify.MetricRevocationError, Name: "goverify_revocation_error_total", Help: "Failed revocation backend lookups."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goVerify.MetricVerifyLatency, Name: "goverify_verify_latency_seconds", Help: "Verify latency histogram."},
}

// UpperBounds are the finite bucket bounds in seconds; the last bucket is +Inf.
var UpperBounds = []float64{
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.0025,
	0.005,
	0.01,
}

// HistogramBounds are UpperBounds as exposition labels, with +Inf appended.
var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.0025",
	"0.005",
	"0.01",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds for instrument names.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"0_01",
	"inf",
}

// AuditDroppedName is the counter for events lost to dispatcher backpressure.
const AuditDroppedName = "goverify_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// NormalizeBuckets copies raw into a fixed-size array, zero-filling when a
// snapshot has no histogram.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

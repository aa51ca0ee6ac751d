package certificate

import (
	"time"

	"github.com/google/uuid"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// DefaultTTL is how long a freshly built certificate stays valid unless
// overridden with WithTTL.
const DefaultTTL = time.Hour

// TraceEntry records one policy engine's verdict inside a certificate.
type TraceEntry struct {
	EngineID  string    `json:"engine_id"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// record holds the certificate fields shared by every pipeline stage.
// The stage types wrap it unexported, so nothing outside this package
// can fabricate a stage it did not earn.
type record struct {
	CertificateID    string                  `json:"certificate_id"`
	Capability       capability.ID           `json:"capability"`
	Version          string                  `json:"version"`
	Effects          []capability.EffectType `json:"effects"`
	InputSchemaHash  string                  `json:"input_schema_hash"`
	OutputSchemaHash string                  `json:"output_schema_hash"`
	Agent            string                  `json:"agent"`
	Tenant           string                  `json:"tenant"`
	PolicyTrace      []TraceEntry            `json:"policy_trace"`
	IssuedAt         time.Time               `json:"issued_at"`
	ExpiresAt        time.Time               `json:"expires_at"`
	CorrelationID    string                  `json:"correlation_id"`
	Signature        string                  `json:"signature,omitempty"`
}

// Unchecked is a freshly built certificate: a claim, not yet a proof.
type Unchecked struct {
	rec record
}

// PolicyChecked is a certificate whose claim passed a policy engine.
type PolicyChecked struct {
	rec record
}

// CapabilityChecked is a certificate whose capability was confirmed
// available. One step short of dispatchable.
type CapabilityChecked struct {
	rec record
}

// Verified is the only certificate form a handler may consume. It can
// be produced solely by CapabilityChecked.Verify or by Import, both of
// which re-check expiry.
type Verified struct {
	rec record
}

// Option configures certificate construction.
type Option func(*buildConfig)

type buildConfig struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides the default one-hour certificate lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *buildConfig) { c.ttl = ttl }
}

// WithClock overrides the wall clock used for issue and expiry stamps.
// For tests.
func WithClock(now func() time.Time) Option {
	return func(c *buildConfig) { c.now = now }
}

// BuildParams carries the claimed invocation the pipeline will check.
type BuildParams struct {
	Capability       capability.ID
	Version          string
	Effects          []capability.EffectType
	InputSchemaHash  string
	OutputSchemaHash string
	Agent            string
	Tenant           string
	CorrelationID    string
}

// Build creates an Unchecked certificate for a claimed invocation.
// Construction is pure: no I/O, no shared state, safe to call from any
// number of goroutines.
func Build(params BuildParams, opts ...Option) Unchecked {
	cfg := buildConfig{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	issued := cfg.now()
	return Unchecked{rec: record{
		CertificateID:    uuid.Must(uuid.NewV7()).String(),
		Capability:       params.Capability,
		Version:          params.Version,
		Effects:          params.Effects,
		InputSchemaHash:  params.InputSchemaHash,
		OutputSchemaHash: params.OutputSchemaHash,
		Agent:            params.Agent,
		Tenant:           params.Tenant,
		IssuedAt:         issued,
		ExpiresAt:        issued.Add(cfg.ttl),
		CorrelationID:    params.CorrelationID,
	}}
}

// WithPolicyCheck consumes an external policy verdict. Only Allow
// advances the certificate; Deny, Rewrite, and Redirect all fail with
// POLICY_DENIED carrying the decision's reason.
func (c Unchecked) WithPolicyCheck(engineID string, result PolicyResult, now time.Time) (PolicyChecked, error) {
	if result.Decision != DecisionAllow {
		reason := result.Reason
		if reason == "" {
			reason = "policy decision was " + result.Decision.String()
		}
		return PolicyChecked{}, &Error{Code: ErrCodePolicyDenied, Capability: c.rec.Capability, Reason: reason}
	}
	next := c.rec
	next.PolicyTrace = append(next.PolicyTrace, TraceEntry{
		EngineID:  engineID,
		Decision:  result.Decision.String(),
		CheckedAt: now,
	})
	return PolicyChecked{rec: next}, nil
}

// WithCapabilityCheck confirms the certificate's capability is in the
// availability set (normally the capability graph's node set).
func (c PolicyChecked) WithCapabilityCheck(available map[capability.ID]struct{}) (CapabilityChecked, error) {
	if _, ok := available[c.rec.Capability]; !ok {
		return CapabilityChecked{}, &Error{
			Code:       ErrCodeCapabilityNotAvailable,
			Capability: c.rec.Capability,
			Reason:     "capability is not in the availability set",
		}
	}
	return CapabilityChecked{rec: c.rec}, nil
}

// Verify re-checks expiry at this final instant. A certificate that
// passed both earlier checks still fails here if its time has run out.
func (c CapabilityChecked) Verify(now time.Time) (Verified, error) {
	if now.After(c.rec.ExpiresAt) {
		return Verified{}, &Error{Code: ErrCodeExpired, Capability: c.rec.Capability, Reason: "certificate expired before verification"}
	}
	return Verified{rec: c.rec}, nil
}

// Handler-facing accessors. Only Verified exposes these.

// CertificateID returns the unique id of the certificate.
func (v Verified) CertificateID() string { return v.rec.CertificateID }

// Capability returns the certified capability id.
func (v Verified) Capability() capability.ID { return v.rec.Capability }

// Version returns the capability version the certificate was built for.
func (v Verified) Version() string { return v.rec.Version }

// Effects returns the declared effect list.
func (v Verified) Effects() []capability.EffectType { return v.rec.Effects }

// Agent returns the certified agent identity.
func (v Verified) Agent() string { return v.rec.Agent }

// Tenant returns the certified tenant identity.
func (v Verified) Tenant() string { return v.rec.Tenant }

// CorrelationID returns the invocation correlation id.
func (v Verified) CorrelationID() string { return v.rec.CorrelationID }

// IssuedAt returns when the certificate was built.
func (v Verified) IssuedAt() time.Time { return v.rec.IssuedAt }

// ExpiresAt returns when the certificate stops being valid.
func (v Verified) ExpiresAt() time.Time { return v.rec.ExpiresAt }

// PolicyTrace returns the recorded policy verdicts.
func (v Verified) PolicyTrace() []TraceEntry { return v.rec.PolicyTrace }

package ledger

import (
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// EventType tags the payload of a governance event.
type EventType string

const (
	// EventCapabilityGranted records a capability grant to a principal.
	EventCapabilityGranted EventType = "capability_granted"
	// EventCapabilityRevoked records a capability revocation.
	EventCapabilityRevoked EventType = "capability_revoked"
	// EventPolicyChanged records a change to the active policy.
	EventPolicyChanged EventType = "policy_changed"
	// EventDelegationCreated records issuance of a delegation token.
	EventDelegationCreated EventType = "delegation_created"
	// EventDelegationExpired records a delegation token passing its window.
	EventDelegationExpired EventType = "delegation_expired"
	// EventModeChanged records a runtime governance-mode switch.
	EventModeChanged EventType = "mode_changed"
	// EventPolicyDecision records one policy verdict on an invocation.
	EventPolicyDecision EventType = "policy_decision"
	// EventSecurityViolation records an audit fact, not a control-flow
	// fault: violations are appended here rather than raised as errors.
	EventSecurityViolation EventType = "security_violation"
	// EventAuditCheckpoint marks a point-in-time audit anchor.
	EventAuditCheckpoint EventType = "audit_checkpoint"
)

// Event is one governance ledger entry. IDs are assigned by the ledger
// in strict append order and never reused, even across restarts.
type Event struct {
	ID            int64             `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Type          EventType         `json:"type"`
	Agent         string            `json:"agent"`
	Tenant        string            `json:"tenant"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Capability    capability.ID     `json:"capability,omitempty"`
	Command       string            `json:"command,omitempty"`
	Decision      string            `json:"decision,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	TokenID       string            `json:"token_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// IsPolicyDecision reports whether the event records a policy verdict.
func (e Event) IsPolicyDecision() bool {
	return e.Type == EventPolicyDecision
}

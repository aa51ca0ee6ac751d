package ledger

import (
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// ReplayResult summarizes one deterministic pass over a ledger
// timeslice. Identical inputs always produce identical counts: replay
// depends only on the events in range, never on wall-clock time or
// iteration order.
type ReplayResult struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	TotalEvents     int       `json:"total_events"`
	PolicyDecisions int       `json:"policy_decisions"`
	Allowed         int       `json:"allowed"`
	Denied          int       `json:"denied"`
}

// PolicyFunc re-evaluates a historical invocation under a hypothetical
// policy. It returns the decision ("allow" or "deny") and a reason.
type PolicyFunc func(id capability.ID, command string) (decision, reason string)

// DecisionDifference reports one historical decision that a
// hypothetical policy would have decided differently.
type DecisionDifference struct {
	EventID    int64         `json:"event_id"`
	Capability capability.ID `json:"capability"`
	Command    string        `json:"command,omitempty"`
	Recorded   string        `json:"recorded"`
	Replayed   string        `json:"replayed"`
	Reason     string        `json:"reason,omitempty"`
}

// ReplayEngine runs deterministic replays over a ledger. It only reads;
// no replay ever mutates the ledger.
type ReplayEngine struct {
	ledger *Ledger
}

// NewReplayEngine creates a replay engine over a ledger.
func NewReplayEngine(l *Ledger) *ReplayEngine {
	return &ReplayEngine{ledger: l}
}

// ReplayTimeslice counts all events and policy decisions in the range
// [start, end].
func (r *ReplayEngine) ReplayTimeslice(start, end time.Time) ReplayResult {
	events := r.ledger.Query().Between(start, end).Execute()

	result := ReplayResult{Start: start, End: end, TotalEvents: len(events)}
	for _, e := range events {
		if !e.IsPolicyDecision() {
			continue
		}
		result.PolicyDecisions++
		switch e.Decision {
		case "allow":
			result.Allowed++
		case "deny":
			result.Denied++
		}
	}
	return result
}

// ReplayWithPolicy re-evaluates every policy decision in the range
// against a caller-supplied policy function and reports each
// divergence. This is the governance "what-if" mechanism: the ledger is
// never modified, only compared against.
func (r *ReplayEngine) ReplayWithPolicy(start, end time.Time, policy PolicyFunc) []DecisionDifference {
	events := r.ledger.Query().Between(start, end).Types(EventPolicyDecision).Execute()

	var differences []DecisionDifference
	for _, e := range events {
		replayed, reason := policy(e.Capability, e.Command)
		if replayed == e.Decision {
			continue
		}
		differences = append(differences, DecisionDifference{
			EventID:    e.ID,
			Capability: e.Capability,
			Command:    e.Command,
			Recorded:   e.Decision,
			Replayed:   replayed,
			Reason:     reason,
		})
	}
	return differences
}

package harness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/certificate"
	"github.com/seanchatmangpt/sigil/internal/delegation"
	"github.com/seanchatmangpt/sigil/internal/ledger"
)

// DefaultNow is the fixed scenario clock when none is declared.
const DefaultNow = "2026-01-02T15:00:00Z"

// OutcomeVerified is the trace outcome of a fully authorized step.
const OutcomeVerified = "verified"

// TraceEvent is one flow step's authorization outcome.
type TraceEvent struct {
	Step       int    `json:"step"`
	Capability string `json:"capability"`
	Agent      string `json:"agent"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	LedgerID   int64  `json:"ledger_id"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Ledger is the governance ledger the run appended to, for
	// follow-on queries in tests.
	Ledger *ledger.Ledger `json:"-"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario: registers its capabilities, builds its
// delegation chain, pushes every flow step through the certificate
// pipeline, and checks expectations and assertions. The returned error
// covers setup problems only; authorization failures land in the trace.
func Run(s *Scenario) (*Result, error) {
	nowStr := s.Now
	if nowStr == "" {
		nowStr = DefaultNow
	}
	now, err := time.Parse(time.RFC3339, nowStr)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: parse now: %w", s.Name, err)
	}

	registry, available, err := buildRegistry(s.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	chain, err := buildChain(s.Delegations, now)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	led := ledger.New(ledger.WithNow(func() time.Time { return now }))
	result := &Result{Pass: true, Ledger: led}

	for i, step := range s.Flow {
		event := runStep(i, step, registry, available, chain, led, now)
		result.Trace = append(result.Trace, event)

		if step.Expect != nil && event.Outcome != step.Expect.Outcome {
			result.addError("step %d: expected outcome %q, got %q", i, step.Expect.Outcome, event.Outcome)
		}
	}

	checkAssertions(s, result, led)
	return result, nil
}

// runStep authorizes one invocation and records the decision.
func runStep(i int, step FlowStep, registry *capability.Registry, available map[capability.ID]struct{}, chain *delegation.Chain, led *ledger.Ledger, now time.Time) TraceEvent {
	event := TraceEvent{Step: i, Capability: step.Invoke, Agent: step.Agent}

	id := capability.ID(step.Invoke)
	var effects []capability.EffectType
	if entry := registry.Lookup(id); entry != nil {
		effects = entry.Metadata.Effects
	}

	outcome, reason := authorize(step, id, effects, available, chain, now)
	event.Outcome = outcome
	event.Reason = reason

	decision := "deny"
	if outcome == OutcomeVerified {
		decision = "allow"
	}
	ledgerID, err := led.RecordPolicyDecision(step.Agent, step.Tenant, step.Correlation, id, step.Command, decision, reason)
	if err == nil {
		event.LedgerID = ledgerID
	}
	return event
}

// authorize runs the chain check and certificate pipeline for one step,
// returning the outcome name and failure reason.
func authorize(step FlowStep, id capability.ID, effects []capability.EffectType, available map[capability.ID]struct{}, chain *delegation.Chain, now time.Time) (string, string) {
	if step.UseChain {
		if err := chain.Verify(now); err != nil {
			return outcomeFor(err), errReason(err)
		}
		if err := chain.CheckCapability(id, capability.MaxLevel(effects)); err != nil {
			return outcomeFor(err), errReason(err)
		}
	}

	cert := certificate.Build(certificate.BuildParams{
		Capability:    id,
		Effects:       effects,
		Agent:         step.Agent,
		Tenant:        step.Tenant,
		CorrelationID: step.Correlation,
	}, certificate.WithClock(func() time.Time { return now }))

	policy := certificate.Allow()
	if step.Policy == "deny" {
		policy = certificate.Deny(step.Reason)
	}
	pc, err := cert.WithPolicyCheck("harness", policy, now)
	if err != nil {
		return outcomeFor(err), errReason(err)
	}

	cc, err := pc.WithCapabilityCheck(available)
	if err != nil {
		return outcomeFor(err), errReason(err)
	}

	verifyAt := now.Add(time.Duration(step.VerifyDelaySeconds) * time.Second)
	if _, err := cc.Verify(verifyAt); err != nil {
		return outcomeFor(err), errReason(err)
	}

	if step.UseChain {
		if err := chain.RecordUse(now); err != nil {
			return outcomeFor(err), errReason(err)
		}
	}
	return OutcomeVerified, ""
}

func buildRegistry(decls []CapabilityDecl) (*capability.Registry, map[capability.ID]struct{}, error) {
	registry := capability.NewRegistry()
	available := make(map[capability.ID]struct{})
	for _, decl := range decls {
		id, err := capability.NewID(decl.ID)
		if err != nil {
			return nil, nil, err
		}
		var meta capability.EffectMetadata
		meta.Idempotent = decl.Idempotent
		for _, name := range decl.Effects {
			effect, err := capability.ParseEffectType(name)
			if err != nil {
				return nil, nil, fmt.Errorf("capability %s: %w", id, err)
			}
			meta.Effects = append(meta.Effects, effect)
		}
		name := decl.Name
		if name == "" {
			name = string(id)
		}
		if _, err := registry.Register(id, name, meta); err != nil {
			return nil, nil, err
		}
		if decl.Available == nil || *decl.Available {
			available[id] = struct{}{}
		}
	}
	return registry, available, nil
}

func buildChain(decls []DelegationDecl, now time.Time) (*delegation.Chain, error) {
	if len(decls) == 0 {
		return nil, nil
	}

	origin := delegation.NewPrincipal(decls[0].Delegator, decls[0].Tenant)
	var tokens []*delegation.Token
	var prev *delegation.Token
	for i, decl := range decls {
		constraint := hopConstraint(decl)
		temporal := hopTemporal(decl, now)
		delegate := delegation.DelegatedPrincipal(decl.Delegate, decl.Tenant)

		var token *delegation.Token
		var err error
		if i == 0 {
			token, err = delegation.NewToken(origin, delegate, constraint, temporal)
		} else {
			token, err = prev.SubDelegate(delegate, constraint, temporal)
		}
		if err != nil {
			return nil, fmt.Errorf("delegation hop %d: %w", i, err)
		}
		tokens = append(tokens, token)
		prev = token
	}
	return delegation.NewChain(origin, tokens...), nil
}

func hopConstraint(decl DelegationDecl) delegation.CapabilityConstraint {
	constraint := delegation.Unrestricted()
	if len(decl.Allow) > 0 {
		ids := make([]capability.ID, len(decl.Allow))
		for i, raw := range decl.Allow {
			ids[i] = capability.ID(raw)
		}
		constraint = delegation.AllowOnly(ids...)
	}
	if len(decl.Forbid) > 0 {
		forbidden := make(map[capability.ID]struct{}, len(decl.Forbid))
		for _, raw := range decl.Forbid {
			forbidden[capability.ID(raw)] = struct{}{}
		}
		constraint.Forbidden = forbidden
	}
	if decl.MaxEffectLevel != nil {
		constraint.MaxEffectLevel = *decl.MaxEffectLevel
	}
	return constraint
}

func hopTemporal(decl DelegationDecl, now time.Time) delegation.TemporalConstraint {
	temporal := delegation.TemporalConstraint{MaxUses: decl.MaxUses}
	if decl.TTLSeconds > 0 {
		temporal.NotBefore = now
		temporal.NotAfter = now.Add(time.Duration(decl.TTLSeconds) * time.Second)
	}
	return temporal
}

func checkAssertions(s *Scenario, result *Result, led *ledger.Ledger) {
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertLedgerCount:
			count := led.Query().Types(ledger.EventType(a.EventType)).Count()
			if count != a.Count {
				result.addError("assertion %d: expected %d %s events, got %d", i, a.Count, a.EventType, count)
			}
		case AssertOutcomeOrder:
			if len(a.Outcomes) != len(result.Trace) {
				result.addError("assertion %d: expected %d outcomes, trace has %d", i, len(a.Outcomes), len(result.Trace))
				continue
			}
			for j, want := range a.Outcomes {
				if result.Trace[j].Outcome != want {
					result.addError("assertion %d: step %d outcome %q, want %q", i, j, result.Trace[j].Outcome, want)
				}
			}
		default:
			result.addError("assertion %d: unknown type %q", i, a.Type)
		}
	}
}

// outcomeFor lowercases a pipeline or delegation error code for use as
// a trace outcome.
func outcomeFor(err error) string {
	var certErr *certificate.Error
	if errors.As(err, &certErr) {
		return strings.ToLower(string(certErr.Code))
	}
	var delErr *delegation.Error
	if errors.As(err, &delErr) {
		return strings.ToLower(string(delErr.Code))
	}
	return "error"
}

func errReason(err error) string {
	var certErr *certificate.Error
	if errors.As(err, &certErr) {
		return certErr.Reason
	}
	var delErr *delegation.Error
	if errors.As(err, &delErr) {
		return delErr.Message
	}
	return err.Error()
}

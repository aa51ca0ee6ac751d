package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a declarative end-to-end authorization test: a capability
// universe, an optional delegation chain, and a flow of invocations
// with expected outcomes. Scenarios run against a fixed clock so their
// traces are reproducible.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Now is the fixed clock in RFC3339, defaulting to
	// 2026-01-02T15:00:00Z for deterministic golden comparison.
	Now string `yaml:"now,omitempty"`

	// Capabilities declares the capability universe.
	Capabilities []CapabilityDecl `yaml:"capabilities"`

	// Delegations declares a chain of hops. The first hop names the
	// delegator (the chain origin); each later hop is delegated by the
	// previous hop's delegate.
	Delegations []DelegationDecl `yaml:"delegations,omitempty"`

	// Flow is the sequence of invocations to authorize.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the resulting trace and ledger.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CapabilityDecl registers one capability for the scenario.
type CapabilityDecl struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name,omitempty"`
	Effects    []string `yaml:"effects"`
	Idempotent bool     `yaml:"idempotent,omitempty"`

	// Available controls membership in the availability set checked by
	// the certificate pipeline. Defaults to true.
	Available *bool `yaml:"available,omitempty"`
}

// DelegationDecl is one hop of the scenario's delegation chain.
type DelegationDecl struct {
	// Delegator is required on the first hop and ignored afterwards.
	Delegator string `yaml:"delegator,omitempty"`
	Delegate  string `yaml:"delegate"`
	Tenant    string `yaml:"tenant,omitempty"`

	// Allow and Forbid populate the hop's capability constraint; both
	// empty means unrestricted.
	Allow  []string `yaml:"allow,omitempty"`
	Forbid []string `yaml:"forbid,omitempty"`

	MaxEffectLevel *int  `yaml:"max_effect_level,omitempty"`
	TTLSeconds     int64 `yaml:"ttl_seconds,omitempty"`
	MaxUses        int64 `yaml:"max_uses,omitempty"`
}

// FlowStep is one invocation through the authorization pipeline.
type FlowStep struct {
	Invoke      string `yaml:"invoke"`
	Agent       string `yaml:"agent"`
	Tenant      string `yaml:"tenant"`
	Command     string `yaml:"command,omitempty"`
	Correlation string `yaml:"correlation,omitempty"`

	// Policy is the external engine's verdict: "allow" (default) or
	// "deny". Reason accompanies a deny.
	Policy string `yaml:"policy,omitempty"`
	Reason string `yaml:"reason,omitempty"`

	// UseChain routes the step through the scenario's delegation chain
	// before the certificate pipeline, and records a use on success.
	UseChain bool `yaml:"use_chain,omitempty"`

	// VerifyDelaySeconds moves the final verification this far past the
	// fixed clock, for expiry scenarios.
	VerifyDelaySeconds int64 `yaml:"verify_delay_seconds,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause names the expected outcome of a flow step: "verified" or
// a lowercased pipeline/delegation error code such as "policy_denied".
type ExpectClause struct {
	Outcome string `yaml:"outcome"`
}

// Assertion validates the trace or ledger after the flow completes.
type Assertion struct {
	// Type is "ledger_count" or "outcome_order".
	Type string `yaml:"type"`

	// EventType and Count drive ledger_count.
	EventType string `yaml:"event_type,omitempty"`
	Count     int    `yaml:"count,omitempty"`

	// Outcomes drives outcome_order: the full expected outcome
	// sequence.
	Outcomes []string `yaml:"outcomes,omitempty"`
}

// Assertion type constants.
const (
	AssertLedgerCount  = "ledger_count"
	AssertOutcomeOrder = "outcome_order"
)

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios reads every .yaml scenario in a directory, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Capabilities) == 0 {
		return fmt.Errorf("at least one capability is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("at least one flow step is required")
	}
	if len(s.Delegations) > 0 && s.Delegations[0].Delegator == "" {
		return fmt.Errorf("first delegation hop needs a delegator")
	}
	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow step %d: invoke is required", i)
		}
		switch step.Policy {
		case "", "allow", "deny":
		default:
			return fmt.Errorf("flow step %d: unknown policy %q", i, step.Policy)
		}
		if step.UseChain && len(s.Delegations) == 0 {
			return fmt.Errorf("flow step %d: use_chain without delegations", i)
		}
	}
	return nil
}

package delegation

import (
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// Chain is an ordered sequence of delegation tokens running from an
// origin principal to the current executor.
//
// Invariants checked by Verify:
//   - token[0].Delegator == Origin
//   - token[i].Delegator == token[i-1].Delegate for i > 0
//   - last token's Delegate == Executor
type Chain struct {
	Origin   Principal
	Tokens   []*Token
	Executor Principal
}

// NewChain builds a chain from an origin and its ordered tokens. The
// executor is the last token's delegate, or the origin itself for an
// empty chain. Structural verification is deferred to Verify.
func NewChain(origin Principal, tokens ...*Token) *Chain {
	executor := origin
	if len(tokens) > 0 {
		executor = tokens[len(tokens)-1].Delegate
	}
	return &Chain{Origin: origin, Tokens: tokens, Executor: executor}
}

// Extend returns a new chain with one more token appended. The receiver
// is not modified.
func (c *Chain) Extend(token *Token) *Chain {
	tokens := make([]*Token, 0, len(c.Tokens)+1)
	tokens = append(tokens, c.Tokens...)
	tokens = append(tokens, token)
	return NewChain(c.Origin, tokens...)
}

// Verify checks chain continuity and then verifies each token at now.
// A continuity break fails with BROKEN_CHAIN before any token check.
func (c *Chain) Verify(now time.Time) error {
	expected := c.Origin
	for _, token := range c.Tokens {
		if token.Delegator != expected {
			return &Error{
				Code:    ErrCodeBrokenChain,
				TokenID: token.ID,
				Message: "token delegator does not match previous delegate",
			}
		}
		expected = token.Delegate
	}
	if expected != c.Executor {
		return &Error{Code: ErrCodeBrokenChain, Message: "executor does not match final delegate"}
	}
	for _, token := range c.Tokens {
		if err := token.Verify(now); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveConstraints folds Intersect over every token's constraint,
// starting from the unrestricted constraint. Each link can only narrow
// rights, so the result is the tightest constraint along the chain.
// Evaluated on demand; nothing is cached.
func (c *Chain) EffectiveConstraints() CapabilityConstraint {
	effective := Unrestricted()
	for _, token := range c.Tokens {
		effective = effective.Intersect(token.Constraint)
	}
	return effective
}

// AllowsCapability reports whether the chain's effective constraints
// permit a capability at effect level 0.
func (c *Chain) AllowsCapability(id capability.ID) bool {
	return c.EffectiveConstraints().Allows(id, 0)
}

// CheckCapability returns CAPABILITY_NOT_ALLOWED when the chain's
// effective constraints reject a capability whose effects peak at
// effectLevel.
func (c *Chain) CheckCapability(id capability.ID, effectLevel int) error {
	if !c.EffectiveConstraints().Allows(id, effectLevel) {
		return &Error{
			Code:    ErrCodeCapabilityNotAllowed,
			Message: "capability " + id.String() + " is outside the chain's effective constraints",
		}
	}
	return nil
}

// RecordUse records one use on every token in the chain, failing on the
// first token that is expired or exhausted.
func (c *Chain) RecordUse(now time.Time) error {
	for _, token := range c.Tokens {
		if err := token.RecordUse(now); err != nil {
			return err
		}
	}
	return nil
}

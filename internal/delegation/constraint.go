package delegation

import (
	"github.com/seanchatmangpt/sigil/internal/capability"
)

// LevelUnbounded is the effect-level cap that permits every effect.
const LevelUnbounded = 3

// CapabilityConstraint restricts which capabilities a delegation grants.
//
// A nil Allowed set means "all capabilities"; a non-nil set restricts to
// its members. Forbidden always wins over Allowed. AllowedNouns and
// AllowedVerbs restrict by path segment; nil means unrestricted.
// MaxEffectLevel caps how intrusive a permitted operation's effects may
// be (see capability.EffectType.Level).
//
// Constraints form a meet-semilattice under Intersect: the result is
// always at least as restrictive as both operands, and Intersect is
// commutative, associative, and idempotent.
type CapabilityConstraint struct {
	Allowed        map[capability.ID]struct{}
	Forbidden      map[capability.ID]struct{}
	AllowedNouns   map[string]struct{}
	AllowedVerbs   map[string]struct{}
	MaxEffectLevel int
}

// Unrestricted returns the top of the constraint lattice: every
// capability at every effect level is permitted.
func Unrestricted() CapabilityConstraint {
	return CapabilityConstraint{MaxEffectLevel: LevelUnbounded}
}

// AllowOnly returns a constraint permitting exactly the given IDs at any
// effect level.
func AllowOnly(ids ...capability.ID) CapabilityConstraint {
	c := Unrestricted()
	c.Allowed = idSet(ids)
	return c
}

// Forbid returns a constraint forbidding the given IDs and permitting
// everything else.
func Forbid(ids ...capability.ID) CapabilityConstraint {
	c := Unrestricted()
	c.Forbidden = idSet(ids)
	return c
}

func idSet(ids []capability.ID) map[capability.ID]struct{} {
	set := make(map[capability.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Intersect returns the meet of two constraints: allow-sets intersect,
// forbidden-sets union, segment sets intersect, and the effect cap takes
// the minimum.
func (c CapabilityConstraint) Intersect(other CapabilityConstraint) CapabilityConstraint {
	result := CapabilityConstraint{
		Allowed:      intersectSets(c.Allowed, other.Allowed),
		Forbidden:    unionSets(c.Forbidden, other.Forbidden),
		AllowedNouns: intersectStringSets(c.AllowedNouns, other.AllowedNouns),
		AllowedVerbs: intersectStringSets(c.AllowedVerbs, other.AllowedVerbs),
	}
	result.MaxEffectLevel = c.MaxEffectLevel
	if other.MaxEffectLevel < result.MaxEffectLevel {
		result.MaxEffectLevel = other.MaxEffectLevel
	}
	return result
}

// intersectSets treats nil as "everything". The result is nil only when
// both inputs are nil, so intersecting preserves identity (A ∩ A == A).
func intersectSets(a, b map[capability.ID]struct{}) map[capability.ID]struct{} {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return copyIDSet(b)
	case b == nil:
		return copyIDSet(a)
	}
	result := make(map[capability.ID]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			result[id] = struct{}{}
		}
	}
	return result
}

// unionSets treats nil as "nothing". The result is nil only when both
// inputs are nil.
func unionSets(a, b map[capability.ID]struct{}) map[capability.ID]struct{} {
	if a == nil && b == nil {
		return nil
	}
	result := make(map[capability.ID]struct{}, len(a)+len(b))
	for id := range a {
		result[id] = struct{}{}
	}
	for id := range b {
		result[id] = struct{}{}
	}
	return result
}

func intersectStringSets(a, b map[string]struct{}) map[string]struct{} {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return copyStringSet(b)
	case b == nil:
		return copyStringSet(a)
	}
	result := make(map[string]struct{})
	for s := range a {
		if _, ok := b[s]; ok {
			result[s] = struct{}{}
		}
	}
	return result
}

func copyIDSet(s map[capability.ID]struct{}) map[capability.ID]struct{} {
	out := make(map[capability.ID]struct{}, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func copyStringSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Allows reports whether the constraint permits a capability whose
// effects peak at effectLevel. Forbidden wins over every allow rule.
func (c CapabilityConstraint) Allows(id capability.ID, effectLevel int) bool {
	if _, forbidden := c.Forbidden[id]; forbidden {
		return false
	}
	if c.Allowed != nil {
		if _, ok := c.Allowed[id]; !ok {
			return false
		}
	}
	if c.AllowedNouns != nil {
		if _, ok := c.AllowedNouns[id.Noun()]; !ok {
			return false
		}
	}
	if c.AllowedVerbs != nil {
		if _, ok := c.AllowedVerbs[id.Verb()]; !ok {
			return false
		}
	}
	return effectLevel <= c.MaxEffectLevel
}

// AllowedSet materializes the effective allow-set against a universe of
// candidate IDs: the members of universe the constraint permits at
// effect level 0. Used by tests to check delegation narrowing.
func (c CapabilityConstraint) AllowedSet(universe []capability.ID) map[capability.ID]struct{} {
	result := make(map[capability.ID]struct{})
	for _, id := range universe {
		if c.Allows(id, 0) {
			result[id] = struct{}{}
		}
	}
	return result
}

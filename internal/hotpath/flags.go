package hotpath

import "strings"

// EffectFlags is a bit-set classification of an invocation's effects.
// Membership tests and merges are O(1); a zero value means unclassified.
type EffectFlags uint16

const (
	FlagReadOnly EffectFlags = 1 << iota
	FlagMutateState
	FlagMutateConfig
	FlagNetwork
	FlagStorage
	FlagPrivileged
	FlagIdempotent
	FlagAsyncCapable
)

// Has reports whether every flag in want is set.
func (f EffectFlags) Has(want EffectFlags) bool {
	return f&want == want
}

// Merge combines two flag sets. Bitwise OR, so the operation is
// commutative, associative, and idempotent: effect requirements can be
// folded along a delegation or composition chain in any order.
func (f EffectFlags) Merge(other EffectFlags) EffectFlags {
	return f | other
}

// Mutating reports whether the flags include any state- or
// config-mutating effect.
func (f EffectFlags) Mutating() bool {
	return f&(FlagMutateState|FlagMutateConfig) != 0
}

var flagNames = []struct {
	flag EffectFlags
	name string
}{
	{FlagReadOnly, "read_only"},
	{FlagMutateState, "mutate_state"},
	{FlagMutateConfig, "mutate_config"},
	{FlagNetwork, "network"},
	{FlagStorage, "storage"},
	{FlagPrivileged, "privileged"},
	{FlagIdempotent, "idempotent"},
	{FlagAsyncCapable, "async_capable"},
}

// String renders the set flags as a pipe-separated list. For logs and
// test failures, not the hot path.
func (f EffectFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

package capability

import "fmt"

// EffectType classifies the side effects of an operation.
type EffectType int

const (
	// EffectReadOnly means the operation observes state without changing it.
	EffectReadOnly EffectType = iota + 1
	// EffectMutateState means the operation changes application state.
	EffectMutateState
	// EffectMutateConfig means the operation changes configuration.
	EffectMutateConfig
	// EffectNetwork means the operation performs network I/O.
	EffectNetwork
	// EffectStorage means the operation performs durable storage I/O.
	EffectStorage
	// EffectPrivileged means the operation requires elevated rights.
	EffectPrivileged
)

// effectNames maps effect types to their wire names.
var effectNames = map[EffectType]string{
	EffectReadOnly:     "read_only",
	EffectMutateState:  "mutate_state",
	EffectMutateConfig: "mutate_config",
	EffectNetwork:      "network",
	EffectStorage:      "storage",
	EffectPrivileged:   "privileged",
}

// ParseEffectType converts a wire name back to an EffectType.
func ParseEffectType(name string) (EffectType, error) {
	for et, n := range effectNames {
		if n == name {
			return et, nil
		}
	}
	return 0, fmt.Errorf("unknown effect type %q", name)
}

// String returns the wire name of the effect type.
func (e EffectType) String() string {
	if n, ok := effectNames[e]; ok {
		return n
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// Level returns the intrusiveness ordering of the effect:
// read-only < mutate < network/storage < privileged.
// Used by delegation constraints to cap how intrusive a delegated
// operation may be.
func (e EffectType) Level() int {
	switch e {
	case EffectReadOnly:
		return 0
	case EffectMutateState, EffectMutateConfig:
		return 1
	case EffectNetwork, EffectStorage:
		return 2
	case EffectPrivileged:
		return 3
	default:
		return 3 // unknown effects are treated as maximally intrusive
	}
}

// MaxLevel returns the highest Level() among the given effects,
// or 0 for an empty list.
func MaxLevel(effects []EffectType) int {
	max := 0
	for _, e := range effects {
		if l := e.Level(); l > max {
			max = l
		}
	}
	return max
}

// SensitivityLevel ranks how sensitive the data touched by an operation is.
type SensitivityLevel int

const (
	SensitivityPublic SensitivityLevel = iota
	SensitivityInternal
	SensitivityConfidential
	SensitivityRestricted
)

// String returns the wire name of the sensitivity level.
func (s SensitivityLevel) String() string {
	switch s {
	case SensitivityPublic:
		return "public"
	case SensitivityInternal:
		return "internal"
	case SensitivityConfidential:
		return "confidential"
	case SensitivityRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("sensitivity(%d)", int(s))
	}
}

// ParseSensitivity converts a wire name back to a SensitivityLevel.
func ParseSensitivity(name string) (SensitivityLevel, error) {
	switch name {
	case "public", "":
		return SensitivityPublic, nil
	case "internal":
		return SensitivityInternal, nil
	case "confidential":
		return SensitivityConfidential, nil
	case "restricted":
		return SensitivityRestricted, nil
	default:
		return 0, fmt.Errorf("unknown sensitivity level %q", name)
	}
}

// EffectMetadata describes the side-effect profile of a capability.
// Attached once at registration and read-only afterwards.
type EffectMetadata struct {
	Effects        []EffectType
	Sensitivity    SensitivityLevel
	Idempotent     bool
	RequiredRole   string
	DataTags       []string
	Isolation      string
	SupportsDryRun bool
}

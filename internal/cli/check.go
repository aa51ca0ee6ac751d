package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/certificate"
	"github.com/seanchatmangpt/sigil/internal/ledger"
	"github.com/seanchatmangpt/sigil/internal/manifest"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	Agent       string
	Tenant      string
	Correlation string
	Command     string
	DenyReason  string
	LedgerPath  string
	TTL         time.Duration
}

// CheckResult is the outcome of one authorization check.
type CheckResult struct {
	Capability  string          `json:"capability"`
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Certificate json.RawMessage `json:"certificate,omitempty"`
	LedgerID    int64           `json:"ledger_id,omitempty"`
}

func (r CheckResult) String() string {
	if r.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Capability, r.Outcome, r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Capability, r.Outcome)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <manifest-dir> <capability-id>",
		Short: "Authorize one invocation through the certificate pipeline",
		Long: `Run a claimed invocation through policy check, capability
availability check, and final verification. Prints the verified
certificate on success. With --ledger, the decision is appended to the
governance log either way.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Agent, "agent", "", "agent identity (required)")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant identity (required)")
	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "correlation id")
	cmd.Flags().StringVar(&opts.Command, "command", "", "command line being authorized")
	cmd.Flags().StringVar(&opts.DenyReason, "deny", "", "simulate a policy deny with this reason")
	cmd.Flags().StringVar(&opts.LedgerPath, "ledger", "", "governance log to append the decision to")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", certificate.DefaultTTL, "certificate time to live")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runCheck(rootOpts *RootOptions, opts *CheckOptions, dir, rawID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	m, loadErrors := manifest.LoadDir(dir, manifest.LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := diagnostics(loadErrors[0])
		if err := formatter.Error(code, message, nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, message)
	}

	id, err := capability.NewID(rawID)
	if err != nil {
		if ferr := formatter.Error(manifest.ErrCodeCapability, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "invalid capability id", err)
	}

	var effects []capability.EffectType
	if entry := m.Registry.Lookup(id); entry != nil {
		effects = entry.Metadata.Effects
	}
	formatter.VerboseLog("checking %s for agent=%s tenant=%s", id, opts.Agent, opts.Tenant)

	result := CheckResult{Capability: string(id)}
	now := time.Now()
	verified, authErr := authorizeOnce(id, effects, m.Graph.AvailableSet(), opts, now)
	if authErr != nil {
		result.Outcome = outcomeName(authErr)
		result.Reason = reasonOf(authErr)
	} else {
		result.Outcome = "verified"
		if result.Certificate, err = verified.Export(); err != nil {
			return WrapExitError(ExitCommandError, "export certificate", err)
		}
	}

	if opts.LedgerPath != "" {
		ledgerID, err := recordDecision(opts, id, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "append to governance log", err)
		}
		result.LedgerID = ledgerID
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if authErr != nil {
		return NewExitError(ExitFailure, result.Outcome)
	}
	return nil
}

// authorizeOnce drives the three pipeline transitions for one check.
func authorizeOnce(id capability.ID, effects []capability.EffectType, available map[capability.ID]struct{}, opts *CheckOptions, now time.Time) (certificate.Verified, error) {
	cert := certificate.Build(certificate.BuildParams{
		Capability:    id,
		Effects:       effects,
		Agent:         opts.Agent,
		Tenant:        opts.Tenant,
		CorrelationID: opts.Correlation,
	}, certificate.WithClock(func() time.Time { return now }), certificate.WithTTL(opts.TTL))

	policy := certificate.Allow()
	if opts.DenyReason != "" {
		policy = certificate.Deny(opts.DenyReason)
	}
	pc, err := cert.WithPolicyCheck("cli", policy, now)
	if err != nil {
		return certificate.Verified{}, err
	}
	cc, err := pc.WithCapabilityCheck(available)
	if err != nil {
		return certificate.Verified{}, err
	}
	return cc.Verify(now)
}

func recordDecision(opts *CheckOptions, id capability.ID, result CheckResult) (int64, error) {
	led, err := ledger.Open(opts.LedgerPath)
	if err != nil {
		return 0, err
	}
	defer led.Close()

	decision := "allow"
	if result.Outcome != "verified" {
		decision = "deny"
	}
	return led.RecordPolicyDecision(opts.Agent, opts.Tenant, opts.Correlation, id, opts.Command, decision, result.Reason)
}

// outcomeName lowercases a pipeline error code for CLI output.
func outcomeName(err error) string {
	var certErr *certificate.Error
	if errors.As(err, &certErr) {
		return strings.ToLower(string(certErr.Code))
	}
	return "error"
}

func reasonOf(err error) string {
	var certErr *certificate.Error
	if errors.As(err, &certErr) {
		return certErr.Reason
	}
	return err.Error()
}

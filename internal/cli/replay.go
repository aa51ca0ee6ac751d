package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/ledger"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	Start    string
	End      string
	DenyAll  bool
	AllowAll bool
}

// ReplayOutput is the replay command's result payload.
type ReplayOutput struct {
	Result      ledger.ReplayResult         `json:"result"`
	Differences []ledger.DecisionDifference `json:"differences,omitempty"`
}

func (o ReplayOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "events=%d policy_decisions=%d allowed=%d denied=%d",
		o.Result.TotalEvents, o.Result.PolicyDecisions, o.Result.Allowed, o.Result.Denied)
	if len(o.Differences) > 0 {
		fmt.Fprintf(&b, "\n%d divergence(s):", len(o.Differences))
		for _, d := range o.Differences {
			fmt.Fprintf(&b, "\n  #%d %s: %s -> %s", d.EventID, d.Capability, d.Recorded, d.Replayed)
		}
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <governance.log>",
		Short: "Replay a ledger time-slice",
		Long: `Replay the policy decisions recorded in a time range and report
their counts. With --allow-all or --deny-all, re-evaluate each decision
against that blanket policy and report every divergence, without
mutating the ledger.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "range start (RFC3339)")
	cmd.Flags().StringVar(&opts.End, "end", "", "range end (RFC3339)")
	cmd.Flags().BoolVar(&opts.AllowAll, "allow-all", false, "what-if policy that allows everything")
	cmd.Flags().BoolVar(&opts.DenyAll, "deny-all", false, "what-if policy that denies everything")
	cmd.MarkFlagsMutuallyExclusive("allow-all", "deny-all")

	return cmd
}

func runReplay(rootOpts *RootOptions, opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	led, err := ledger.Open(path)
	if err != nil {
		if ferr := formatter.Error("LEDGER_OPEN", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "open governance log", err)
	}
	defer led.Close()

	start, end, err := parseRange(opts.Start, opts.End)
	if err != nil {
		if ferr := formatter.Error("BAD_RANGE", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "parse time range", err)
	}

	engine := ledger.NewReplayEngine(led)
	output := ReplayOutput{Result: engine.ReplayTimeslice(start, end)}
	formatter.VerboseLog("replayed %d event(s)", output.Result.TotalEvents)

	if opts.AllowAll || opts.DenyAll {
		verdict := "allow"
		if opts.DenyAll {
			verdict = "deny"
		}
		output.Differences = engine.ReplayWithPolicy(start, end, func(capability.ID, string) (string, string) {
			return verdict, "blanket " + verdict
		})
	}

	return formatter.Success(output)
}

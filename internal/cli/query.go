package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/sigil/internal/ledger"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	Agent       string
	Tenant      string
	Correlation string
	Types       []string
	Start       string
	End         string
}

// QueryOutput is the query command's result payload.
type QueryOutput struct {
	Count  int            `json:"count"`
	Events []ledger.Event `json:"events"`
}

func (o QueryOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d event(s)\n", o.Count)
	for _, e := range o.Events {
		fmt.Fprintf(&b, "  #%d %s %s agent=%s tenant=%s", e.ID, e.Timestamp.Format(time.RFC3339), e.Type, e.Agent, e.Tenant)
		if e.Capability != "" {
			fmt.Fprintf(&b, " capability=%s", e.Capability)
		}
		if e.Decision != "" {
			fmt.Fprintf(&b, " decision=%s", e.Decision)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <governance.log>",
		Short: "Query the governance ledger",
		Long: `Filter governance events by time range, agent, tenant, correlation
id, and event type. Filters compose as a conjunction.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Agent, "agent", "", "filter by agent")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "filter by tenant")
	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "filter by correlation id")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "filter by event type (repeatable)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "range start (RFC3339)")
	cmd.Flags().StringVar(&opts.End, "end", "", "range end (RFC3339)")

	return cmd
}

func runQuery(rootOpts *RootOptions, opts *QueryOptions, path string, cmd *cobra.Command) error {
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
	formatter.VerboseLog("loaded %d event(s) from %s", led.Len(), path)

	q := led.Query()
	if opts.Agent != "" {
		q = q.Agent(opts.Agent)
	}
	if opts.Tenant != "" {
		q = q.Tenant(opts.Tenant)
	}
	if opts.Correlation != "" {
		q = q.Correlation(opts.Correlation)
	}
	if len(opts.Types) > 0 {
		types := make([]ledger.EventType, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = ledger.EventType(t)
		}
		q = q.Types(types...)
	}
	if opts.Start != "" || opts.End != "" {
		start, end, err := parseRange(opts.Start, opts.End)
		if err != nil {
			if ferr := formatter.Error("BAD_RANGE", err.Error(), nil); ferr != nil {
				return ferr
			}
			return WrapExitError(ExitCommandError, "parse time range", err)
		}
		q = q.Between(start, end)
	}

	events := q.Execute()
	return formatter.Success(QueryOutput{Count: len(events), Events: events})
}

// parseRange parses RFC3339 bounds, defaulting an empty start to the
// zero time and an empty end to the far future.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = time.Parse(time.RFC3339, startStr); err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
	}
	if endStr == "" {
		end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	} else if end, err = time.Parse(time.RFC3339, endStr); err != nil {
		return start, end, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

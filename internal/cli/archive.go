package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/sigil/internal/ledger/archive"
)

// ArchiveOutput is the archive command's result payload.
type ArchiveOutput struct {
	Inserted int64 `json:"inserted"`
	Total    int64 `json:"total"`
	LastID   int64 `json:"last_id"`
}

func (o ArchiveOutput) String() string {
	return fmt.Sprintf("archived %d new event(s); archive holds %d through id %d", o.Inserted, o.Total, o.LastID)
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <governance.log> <archive.db>",
		Short: "Mirror a governance log into a SQLite archive",
		Long: `Import a JSONL governance log into a SQLite archive for audit
queries. Importing is idempotent: events already archived are skipped,
so re-running after the log grows archives only the new tail.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runArchive(rootOpts *RootOptions, logPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	a, err := archive.Open(dbPath)
	if err != nil {
		if ferr := formatter.Error("ARCHIVE_OPEN", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	inserted, err := a.Import(ctx, logPath)
	if err != nil {
		if ferr := formatter.Error("ARCHIVE_IMPORT", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "import governance log", err)
	}

	total, err := a.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "count archive", err)
	}
	lastID, err := a.LastID(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "read archive head", err)
	}

	formatter.VerboseLog("imported %s into %s", logPath, dbPath)
	return formatter.Success(ArchiveOutput{Inserted: inserted, Total: total, LastID: lastID})
}

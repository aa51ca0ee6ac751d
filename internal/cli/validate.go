package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/sigil/internal/manifest"
)

// ValidationIssue is one manifest diagnostic in CLI output.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds manifest validation results.
type ValidationResult struct {
	Valid        bool              `json:"valid"`
	Files        int               `json:"files"`
	Capabilities int               `json:"capabilities"`
	Edges        int               `json:"edges"`
	Issues       []ValidationIssue `json:"issues,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("manifest valid: %d capabilities, %d edges across %d file(s)", r.Capabilities, r.Edges, r.Files)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "manifest invalid: %d issue(s)\n", len(r.Issues))
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "  [%s] %s\n", issue.Code, issue.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate a capability manifest",
		Long: `Validate CUE capability manifests: effect metadata, identifiers,
and graph edges. Collects every diagnostic so a manifest author sees
all problems in one pass.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, loadErrors := manifest.LoadDir(dir, manifest.LoadModeCollectAll)
	if m == nil && len(loadErrors) > 0 {
		code, message := diagnostics(loadErrors[0])
		if err := formatter.Error(code, message, nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, message)
	}

	formatter.VerboseLog("loaded %d CUE file(s) from %s", m.FileCount, dir)

	result := ValidationResult{
		Valid:        len(loadErrors) == 0,
		Files:        m.FileCount,
		Capabilities: m.Registry.Len(),
	}
	for _, id := range m.Graph.IDs() {
		result.Edges += len(m.Graph.OutEdges(id))
	}
	for _, err := range loadErrors {
		code, message := diagnostics(err)
		result.Issues = append(result.Issues, ValidationIssue{Code: code, Message: message})
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("manifest has %d issue(s)", len(result.Issues)))
	}
	return nil
}

// diagnostics extracts the code and message from a manifest error.
func diagnostics(err error) (string, string) {
	var loadErr *manifest.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return manifest.ErrCodeGeneric, err.Error()
}

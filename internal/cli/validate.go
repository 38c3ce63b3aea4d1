package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avialog/partregistry/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// metadataDoc is the JSON document layout accepted by validate. The
// specification blob is given inline; only its length is constrained.
type metadataDoc struct {
	Serial        string `json:"serial"`
	Manufacturer  string `json:"manufacturer"`
	Specification string `json:"specification"`
	Status        string `json:"status"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <metadata.json>",
		Short: "Validate a part metadata document",
		Long: `Validate a part metadata document against the registry constraint schema.

The document must be a JSON object with serial, manufacturer,
specification, and status fields, e.g.:

  {"serial": "SN-1042", "manufacturer": "Acme", "specification": "", "status": "new"}

Exit codes:
  0 - Document is valid
  1 - Document violates the schema
  2 - Command error (file missing, malformed JSON)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read metadata document", err)
	}

	var doc metadataDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return WrapExitError(ExitCommandError, "parse metadata document", err)
	}

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "load constraint schema", err)
	}

	if err := validator.ValidateNew(doc.Serial, doc.Manufacturer, len(doc.Specification), doc.Status); err != nil {
		if ferr := out.Failure(err.Error()); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, "metadata document is invalid")
	}

	return out.Success(fmt.Sprintf("%s: valid", path))
}

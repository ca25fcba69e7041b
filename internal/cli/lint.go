package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// lintCommand creates the lint command.
func (c *CLI) lintCommand() *cobra.Command {
	var (
		pipfilePath string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate a Pipfile and report diagnostics",
		Long: `Lint parses the Pipfile and checks it for problems: malformed version
specifiers and markers, duplicate packages under name normalization,
references to undeclared sources, empty scripts, and more.

Errors make the manifest invalid; warnings flag constructs that parse but
are probably mistakes. The exit code is non-zero when errors are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}
			logger.Debug("linting manifest", "path", path)

			diags := m.Validate()
			if len(diags) == 0 {
				if !quiet {
					printSuccess("%s is valid", path)
				}
				return nil
			}

			for _, d := range diags {
				printDiagnostic(d)
			}
			errs := diags.Errors()
			if len(errs) > 0 {
				return fmt.Errorf("%d error(s) in %s", len(errs), path)
			}
			if !quiet {
				printInfo("%s is valid with %d warning(s)", path, len(diags))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress success output")
	return cmd
}

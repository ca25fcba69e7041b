package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// fmtCommand creates the fmt command.
func (c *CLI) fmtCommand() *cobra.Command {
	var (
		pipfilePath string
		check       bool
	)

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite a Pipfile in canonical form",
		Long: `Fmt re-encodes the Pipfile deterministically: sections in standard
order, packages sorted by name, string shorthand for bare requirements
and inline tables for the rest. Formatting an already canonical file is a
no-op.

With --check, no file is written; the exit code reports whether the file
is already canonical.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}

			formatted, err := m.Bytes()
			if err != nil {
				return err
			}
			current, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			if bytes.Equal(current, formatted) {
				printSuccess("%s is already formatted", path)
				return nil
			}

			warnDroppedKeys(m)

			if check {
				return fmt.Errorf("%s is not canonically formatted", path)
			}

			if err := m.Write(path); err != nil {
				return err
			}
			printSuccess("Formatted %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().BoolVar(&check, "check", false, "report instead of rewriting; non-zero exit if not canonical")
	return cmd
}

// warnDroppedKeys reports requirement keys the canonical encoding does
// not carry. Rewriting loses them, so the user gets a warning first.
func warnDroppedKeys(m *pipfile.Manifest) {
	for _, dev := range []bool{false, true} {
		section := m.Section(dev)
		label := "packages"
		if dev {
			label = "dev-packages"
		}
		for _, name := range section.Names() {
			for _, key := range section[name].Unknown {
				printWarning("dropping unknown key %q from [%s] %s", key, label, name)
			}
		}
	}
}

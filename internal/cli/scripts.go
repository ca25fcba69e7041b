package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
	"github.com/umarmnaq/pipenv/pkg/runner"
)

// scriptsCommand creates the scripts listing command.
func (c *CLI) scriptsCommand() *cobra.Command {
	var pipfilePath string

	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List the [scripts] aliases defined in the Pipfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}
			if len(m.Scripts) == 0 {
				printInfo("No scripts defined in %s", path)
				return nil
			}

			fmt.Println(StyleTitle.Render("Scripts"))
			for _, name := range m.Scripts.Names() {
				printKeyValue(name, m.Scripts[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	return cmd
}

// runCommand creates the run command. Arguments after the alias (or
// after --) are passed through to the child process.
func (c *CLI) runCommand() *cobra.Command {
	var pipfilePath string

	cmd := &cobra.Command{
		Use:   "run <alias> [args...]",
		Short: "Run a [scripts] alias from the Pipfile",
		Long: `Run resolves an alias from the [scripts] section, splits it into a
command using POSIX shell word rules (no expansion), appends any extra
arguments, and executes it with the project directory as working
directory and the project's .env loaded into the environment.

The child's exit code becomes this command's exit code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}

			alias, extra := args[0], args[1:]
			r := runner.New(m, projectDir(path))

			code, err := r.Run(cmd.Context(), alias, extra)
			if err != nil {
				if errors.GetCode(err) == errors.ErrCodeScriptNotFound {
					return suggestAliases(err, m)
				}
				return err
			}
			if code != 0 {
				// Pass the child's exit code through.
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func projectDir(manifestPath string) string {
	return filepath.Dir(manifestPath)
}

func suggestAliases(err error, m *pipfile.Manifest) error {
	names := m.Scripts.Names()
	if len(names) == 0 {
		return fmt.Errorf("%s (no scripts are defined)", errors.UserMessage(err))
	}
	return fmt.Errorf("%s (defined: %s)", errors.UserMessage(err), strings.Join(names, ", "))
}

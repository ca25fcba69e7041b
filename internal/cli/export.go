package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/convert"
	"github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/lockfile"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		pipfilePath string
		format      string
		output      string
		dev         bool
		hashes      bool
		condaName   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Translate the Pipfile to another dependency format",
		Long: `Export writes the manifest's declared dependencies in another tool's
format. Supported formats:

  requirements   pip requirements.txt (default)
  conda          conda environment.yml

With --hashes, versions and artifact hashes are pinned from Pipfile.lock;
the lockfile must exist and match the current Pipfile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}

			var lock *lockfile.Lockfile
			if hashes {
				lock, err = lockfile.Read(lockfilePath(path))
				if err != nil {
					return err
				}
				if err := lock.VerifyHash(m); err != nil {
					return fmt.Errorf("%w (run lock again before exporting with hashes)", err)
				}
			}

			out, closeOut, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeOut()

			switch format {
			case "requirements":
				opts := convert.RequirementsOptions{Dev: dev, Lock: lock}
				err = convert.Requirements(out, m, opts)
			case "conda":
				err = convert.CondaEnv(out, m, convert.CondaOptions{Name: condaName, Dev: dev})
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (requirements, conda)", format)
			}
			if err != nil {
				return err
			}

			if output != "" {
				printSuccess("Exported %s", format)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().StringVar(&format, "format", "requirements", "output format (requirements, conda)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&dev, "dev", false, "include [dev-packages]")
	cmd.Flags().BoolVar(&hashes, "hashes", false, "pin versions and hashes from Pipfile.lock")
	cmd.Flags().StringVar(&condaName, "name", "", "conda environment name")
	return cmd
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// importCommand creates the import command, the reverse translation.
func (c *CLI) importCommand() *cobra.Command {
	var (
		input  string
		output string
		dev    bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a Pipfile from an existing requirements.txt",
		Long: `Import reads a pip requirements file and writes the equivalent
Pipfile: index options become [[source]] entries, editable installs
become path requirements, and VCS references keep their ref. Option
lines with no Pipfile equivalent are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			m, err := convert.FromRequirements(in, dev)
			if err != nil {
				return err
			}

			if output == "" {
				return m.Encode(os.Stdout)
			}
			if _, err := os.Stat(output); err == nil {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists", output)
			}
			if err := m.Write(output); err != nil {
				return err
			}
			printSuccess("Imported %d package(s)", len(m.Packages)+len(m.DevPackages))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "requirements file to read (default: stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Pipfile to write (default: stdout)")
	cmd.Flags().BoolVar(&dev, "dev", false, "import into [dev-packages]")
	return cmd
}

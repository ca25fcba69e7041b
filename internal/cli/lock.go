package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/lockfile"
)

// hashCommand creates the hash command.
func (c *CLI) hashCommand() *cobra.Command {
	var pipfilePath string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the Pipfile's content hash",
		Long: `Hash prints the SHA-256 hash of the Pipfile's dependency-relevant
content: sources, requires, and both package sections. Scripts and tool
options do not affect the hash. This is the value recorded under
_meta.hash in Pipfile.lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}
			hash, err := m.Hash()
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	return cmd
}

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		pipfilePath string
		initLock    bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that Pipfile.lock matches the Pipfile",
		Long: `Verify recomputes the Pipfile's content hash and compares it against
the hash recorded in Pipfile.lock. A mismatch means the Pipfile changed
since the lock was written and the lock is stale.

With --init, a missing lockfile is created as a skeleton carrying the
current hash, sources, and requires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, path, err := loadManifest(pipfilePath)
			if err != nil {
				return err
			}
			lockPath := lockfilePath(path)

			lock, err := lockfile.Read(lockPath)
			if err != nil {
				if !initLock {
					return err
				}
				if _, statErr := os.Stat(lockPath); statErr == nil {
					return err
				}
				lock, err = lockfile.FromManifest(m)
				if err != nil {
					return err
				}
				if err := lock.Write(lockPath); err != nil {
					return err
				}
				printSuccess("Created %s", lockPath)
				return nil
			}

			if err := lock.VerifyHash(m); err != nil {
				return err
			}
			printSuccess("%s is up to date with the Pipfile", lockPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().BoolVar(&initLock, "init", false, "create a skeleton lockfile if missing")
	return cmd
}

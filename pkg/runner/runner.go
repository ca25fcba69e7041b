// Package runner executes [scripts] aliases. An alias expands to a
// command line that runs with the project directory as working directory
// and the project's .env file loaded into the environment, mirroring how
// pipenv run behaves.
package runner

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// DotenvLocationVar overrides the .env path, matching pipenv's
// PIPENV_DOTENV_LOCATION.
const DotenvLocationVar = "PIPENV_DOTENV_LOCATION"

// Runner resolves and executes script aliases from a manifest.
type Runner struct {
	manifest *pipfile.Manifest
	dir      string // project directory, holds the .env file

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// New returns a Runner for the manifest rooted at dir.
func New(m *pipfile.Manifest, dir string) *Runner {
	return &Runner{
		manifest: m,
		dir:      dir,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Aliases returns the defined script names in sorted order.
func (r *Runner) Aliases() []string {
	return r.manifest.Scripts.Names()
}

// Command resolves an alias to its argv, with extra arguments appended.
func (r *Runner) Command(alias string, extra []string) ([]string, error) {
	command, ok := r.manifest.Scripts[alias]
	if !ok {
		return nil, errors.New(errors.ErrCodeScriptNotFound, "no script named %q in [scripts]", alias)
	}
	argv, err := SplitCommand(command)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScript, err, "script %q", alias)
	}
	if len(argv) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidScript, "script %q expands to an empty command", alias)
	}
	return append(argv, extra...), nil
}

// Run executes an alias and returns the child's exit code. A missing or
// malformed alias returns -1 with an error; a child that ran but failed
// returns its real exit code with a nil error, so callers can pass it
// through unchanged.
func (r *Runner) Run(ctx context.Context, alias string, extra []string) (int, error) {
	argv, err := r.Command(alias, extra)
	if err != nil {
		return -1, err
	}

	env, err := r.environ()
	if err != nil {
		return -1, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir
	cmd.Env = env
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, errors.Wrap(errors.ErrCodeInternal, err, "running %q", argv[0])
	}
	return 0, nil
}

// environ builds the child environment: the current process environment
// overlaid with the project's .env file. Values already set in the
// process environment win, the same precedence pipenv applies.
func (r *Runner) environ() ([]string, error) {
	fromFile, err := r.loadDotenv()
	if err != nil {
		return nil, err
	}

	merged := map[string]string{}
	for k, v := range fromFile {
		merged[k] = v
	}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env, nil
}

func (r *Runner) loadDotenv() (map[string]string, error) {
	path := filepath.Join(r.dir, ".env")
	if override := os.Getenv(DotenvLocationVar); override != "" {
		path = override
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "loading %s", path)
	}
	return vars, nil
}

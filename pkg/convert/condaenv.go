package convert

import (
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// CondaOptions controls conda environment file generation.
type CondaOptions struct {
	Name string // environment name, defaults to "env"
	Dev  bool   // include [dev-packages]
}

// condaEnv is the environment.yml document shape. Pip-installed packages
// ride under a nested pip entry, the convention conda itself uses for
// exported environments.
type condaEnv struct {
	Name         string   `yaml:"name"`
	Channels     []string `yaml:"channels"`
	Dependencies []any    `yaml:"dependencies"`
}

type condaPip struct {
	Pip []string `yaml:"pip"`
}

// CondaEnv writes the manifest as a conda environment.yml. Python itself
// and pip become conda dependencies; every Pipfile package becomes a pip
// requirement line, since PyPI packages are not generally available as
// conda packages under the same names.
func CondaEnv(w io.Writer, m *pipfile.Manifest, opts CondaOptions) error {
	name := opts.Name
	if name == "" {
		name = "env"
	}

	python := "python"
	if v := m.PythonVersion(); v != "" {
		python = "python=" + v
	}

	var pip bytesLines
	pipOpts := RequirementsOptions{Dev: opts.Dev, ExcludeIndex: true}
	if err := Requirements(&pip, m, pipOpts); err != nil {
		return err
	}
	// Index URLs travel as pip lines inside the pip block.
	for i, src := range m.Sources {
		if i == 0 {
			if src.URL == pipfile.DefaultSourceURL {
				continue
			}
			pip.lines = append([]string{"--index-url " + src.URL}, pip.lines...)
			continue
		}
		pip.lines = append(pip.lines, "--extra-index-url "+src.URL)
	}

	env := condaEnv{
		Name:         name,
		Channels:     []string{"defaults"},
		Dependencies: []any{python, "pip", condaPip{Pip: pip.lines}},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(env); err != nil {
		return err
	}
	return enc.Close()
}

// bytesLines collects written output as trimmed lines.
type bytesLines struct {
	lines []string
	buf   strings.Builder
}

func (b *bytesLines) Write(p []byte) (int, error) {
	b.buf.Write(p)
	for {
		s := b.buf.String()
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(s[:i]); line != "" {
			b.lines = append(b.lines, line)
		}
		b.buf.Reset()
		b.buf.WriteString(s[i+1:])
	}
	return len(p), nil
}

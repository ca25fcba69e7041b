// Package pipfile implements the Pipfile dependency manifest: the TOML
// format declaring package sources, runtime and development requirements,
// script aliases, and pipenv options.
//
// # Format
//
// A Pipfile has up to six sections:
//
//	[[source]]
//	url = "https://pypi.org/simple"
//	verify_ssl = true
//	name = "pypi"
//
//	[packages]
//	requests = { version = ">=2.28", extras = ["socks"] }
//	records = "*"
//
//	[dev-packages]
//	pytest = "*"
//
//	[requires]
//	python_version = "3.11"
//
//	[pipenv]
//	allow_prereleases = false
//
//	[scripts]
//	tests = "pytest -v tests"
//
// Requirements are written either as a bare constraint string or as a table
// with version, extras, environment markers, and local/VCS fields. Both
// shapes decode into [Requirement].
//
// # Round-trips
//
// Parsing and re-encoding a manifest preserves every entry and value; only
// formatting and the order of unordered sections change. [Manifest.Encode]
// emits the canonical form: fixed section order with sorted package names.
package pipfile

import (
	"maps"
	"sort"
)

// DefaultSourceURL is the registry used when a manifest declares no
// [[source]] section.
const DefaultSourceURL = "https://pypi.org/simple"

// DefaultSourceName names the implicit default source.
const DefaultSourceName = "pypi"

// Filename is the manifest filename pipenv looks for.
const Filename = "Pipfile"

// LockFilename is the companion lock filename.
const LockFilename = "Pipfile.lock"

// Source is a [[source]] package registry entry. Field order matches the
// order pipenv writes: url, verify_ssl, name.
type Source struct {
	URL       string `toml:"url" json:"url"`
	VerifySSL bool   `toml:"verify_ssl" json:"verify_ssl"`
	Name      string `toml:"name" json:"name"`
}

// DefaultSource returns the implicit pypi.org source.
func DefaultSource() Source {
	return Source{Name: DefaultSourceName, URL: DefaultSourceURL, VerifySSL: true}
}

// Packages maps package names to their requirements, one of the
// [packages] / [dev-packages] sections.
type Packages map[string]Requirement

// Names returns the package names in sorted order.
func (p Packages) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scripts maps alias names to literal shell command strings.
type Scripts map[string]string

// Names returns the alias names in sorted order.
func (s Scripts) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Requires pins interpreter requirements for the project.
type Requires struct {
	PythonVersion     string `toml:"python_version,omitempty" json:"python_version,omitempty"`
	PythonFullVersion string `toml:"python_full_version,omitempty" json:"python_full_version,omitempty"`
}

// Options is the [pipenv] tool-option block.
type Options struct {
	AllowPrereleases        bool `toml:"allow_prereleases,omitempty" json:"allow_prereleases,omitempty"`
	InstallSearchAllSources bool `toml:"install_search_all_sources,omitempty" json:"install_search_all_sources,omitempty"`
}

// Manifest is a parsed Pipfile.
type Manifest struct {
	Sources     []Source  `toml:"source,omitempty"`
	Packages    Packages  `toml:"packages"`
	DevPackages Packages  `toml:"dev-packages"`
	Requires    *Requires `toml:"requires,omitempty"`
	Pipenv      *Options  `toml:"pipenv,omitempty"`
	Scripts     Scripts   `toml:"scripts,omitempty"`

	// Undecoded lists top-level keys the parser did not recognize,
	// reported as lint warnings by Validate.
	Undecoded []string `toml:"-"`
}

// New returns an empty manifest with the default source.
func New() *Manifest {
	return &Manifest{
		Sources:     []Source{DefaultSource()},
		Packages:    Packages{},
		DevPackages: Packages{},
	}
}

// Source returns the named source, or false when no source has that name.
func (m *Manifest) Source(name string) (Source, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// PrimarySource returns the first declared source, falling back to the
// implicit default for manifests without a [[source]] section.
func (m *Manifest) PrimarySource() Source {
	if len(m.Sources) > 0 {
		return m.Sources[0]
	}
	return DefaultSource()
}

// AllowsPrereleases reports whether [pipenv] allow_prereleases is set.
func (m *Manifest) AllowsPrereleases() bool {
	return m.Pipenv != nil && m.Pipenv.AllowPrereleases
}

// PythonVersion returns the [requires] interpreter series, or "".
func (m *Manifest) PythonVersion() string {
	if m.Requires == nil {
		return ""
	}
	if m.Requires.PythonVersion != "" {
		return m.Requires.PythonVersion
	}
	return m.Requires.PythonFullVersion
}

// Section returns the runtime or development package section.
func (m *Manifest) Section(dev bool) Packages {
	if dev {
		return m.DevPackages
	}
	return m.Packages
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{
		Sources:     append([]Source(nil), m.Sources...),
		Packages:    clonePackages(m.Packages),
		DevPackages: clonePackages(m.DevPackages),
		Scripts:     maps.Clone(m.Scripts),
		Undecoded:   append([]string(nil), m.Undecoded...),
	}
	if m.Requires != nil {
		r := *m.Requires
		out.Requires = &r
	}
	if m.Pipenv != nil {
		p := *m.Pipenv
		out.Pipenv = &p
	}
	return out
}

func clonePackages(p Packages) Packages {
	if p == nil {
		return nil
	}
	out := make(Packages, len(p))
	for name, req := range p {
		out[name] = req.clone()
	}
	return out
}

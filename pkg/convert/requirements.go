// Package convert implements mechanical translations between the Pipfile
// manifest and the dependency formats of neighboring tools: pip
// requirements files and conda environment files. Translation preserves
// the declared intent (names, constraints, extras, markers, sources); it
// performs no dependency resolution.
package convert

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/umarmnaq/pipenv/pkg/lockfile"
	"github.com/umarmnaq/pipenv/pkg/pep508"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// RequirementsOptions controls requirements.txt generation.
type RequirementsOptions struct {
	Dev          bool               // include [dev-packages]
	ExcludeIndex bool               // omit -i / --extra-index-url lines
	Lock         *lockfile.Lockfile // pin versions and hashes from a lock, optional
}

// Requirements writes the manifest as a pip requirements file.
// Entries appear in sorted name order; the primary source becomes the -i
// line and the remaining sources become --extra-index-url lines.
func Requirements(w io.Writer, m *pipfile.Manifest, opts RequirementsOptions) error {
	if !opts.ExcludeIndex {
		for i, src := range m.Sources {
			flag := "--extra-index-url"
			if i == 0 {
				flag = "-i"
			}
			if _, err := fmt.Fprintf(w, "%s %s\n", flag, src.URL); err != nil {
				return err
			}
		}
	}

	if err := writeSection(w, m.Packages, lockSection(opts.Lock, false)); err != nil {
		return err
	}
	if opts.Dev {
		if err := writeSection(w, m.DevPackages, lockSection(opts.Lock, true)); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, pkgs pipfile.Packages, lock map[string]lockfile.Entry) error {
	for _, name := range pkgs.Names() {
		line, err := requirementLine(name, pkgs[name], lock)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func lockSection(lock *lockfile.Lockfile, dev bool) map[string]lockfile.Entry {
	if lock == nil {
		return nil
	}
	if dev {
		return lock.Develop
	}
	return lock.Default
}

// requirementLine renders one package as a requirements.txt line.
func requirementLine(name string, req pipfile.Requirement, lock map[string]lockfile.Entry) (string, error) {
	switch {
	case req.Git != "":
		return vcsLine(name, req), nil
	case req.Path != "":
		if req.Editable {
			return "-e " + req.Path, nil
		}
		return req.Path, nil
	case req.File != "":
		return req.File, nil
	}

	var b strings.Builder
	b.WriteString(name)
	if len(req.Extras) > 0 {
		extras := append([]string(nil), req.Extras...)
		sort.Strings(extras)
		b.WriteString("[" + strings.Join(extras, ",") + "]")
	}

	version := req.Version
	var hashes []string
	if entry, ok := lock[pep508.NormalizeName(name)]; ok {
		if entry.Version != "" {
			version = entry.Version
		}
		hashes = entry.Hashes
	}
	if version != "" && version != "*" {
		b.WriteString(version)
	}

	if markers := req.CombinedMarkers(); markers != "" {
		b.WriteString(" ; " + markers)
	}
	for _, h := range hashes {
		b.WriteString(" --hash=" + h)
	}
	return b.String(), nil
}

func vcsLine(name string, req pipfile.Requirement) string {
	var b strings.Builder
	if req.Editable {
		b.WriteString("-e ")
	}
	b.WriteString("git+" + req.Git)
	if req.Ref != "" {
		b.WriteString("@" + req.Ref)
	}
	b.WriteString("#egg=" + name)
	if req.Subdirectory != "" {
		b.WriteString("&subdirectory=" + req.Subdirectory)
	}
	return b.String()
}

// FromRequirements parses a pip requirements stream into a manifest
// section, the translation pipenv performs when importing an existing
// requirements.txt. Index options become [[source]] entries; editable
// lines become path requirements; unsupported option lines are skipped.
func FromRequirements(r io.Reader, dev bool) (*pipfile.Manifest, error) {
	m := pipfile.New()
	section := m.Section(dev)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-i ") || strings.HasPrefix(line, "--index-url "):
			setPrimarySource(m, argOf(line))
			continue
		case strings.HasPrefix(line, "--extra-index-url "):
			addSource(m, argOf(line))
			continue
		case strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "--editable "):
			name, req := editableRequirement(argOf(line))
			section[name] = req
			continue
		case strings.HasPrefix(line, "-"):
			// Other pip options (-r includes, --hash continuations, ...)
			// have no Pipfile equivalent.
			continue
		case strings.Contains(line, "://") || strings.HasPrefix(line, "git+"):
			name, req := urlRequirement(line)
			section[name] = req
			continue
		}

		parsed, err := pep508.ParseRequirement(strings.Split(line, " --hash=")[0])
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}

		req := pipfile.Requirement{Version: "*"}
		if !parsed.Specifiers.Empty() {
			req.Version = parsed.Specifiers.String()
		}
		req.Extras = parsed.Extras
		if parsed.Marker != nil {
			req.Markers = parsed.Marker.String()
		}
		section[pep508.NormalizeName(parsed.Name)] = req
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func argOf(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func setPrimarySource(m *pipfile.Manifest, url string) {
	if url == "" {
		return
	}
	if len(m.Sources) > 0 && m.Sources[0].URL == pipfile.DefaultSourceURL {
		m.Sources[0].URL = url
		return
	}
	addSource(m, url)
}

func addSource(m *pipfile.Manifest, url string) {
	if url == "" {
		return
	}
	for _, s := range m.Sources {
		if s.URL == url {
			return
		}
	}
	m.Sources = append(m.Sources, pipfile.Source{
		URL:       url,
		VerifySSL: true,
		Name:      fmt.Sprintf("source-%d", len(m.Sources)),
	})
}

// editableRequirement maps "-e ./path" or "-e git+url#egg=name" to a
// Pipfile entry.
func editableRequirement(arg string) (string, pipfile.Requirement) {
	if strings.HasPrefix(arg, "git+") || strings.Contains(arg, "://") {
		name, req := urlRequirement(arg)
		req.Editable = true
		return name, req
	}
	return pathName(arg), pipfile.Requirement{Path: arg, Editable: true}
}

// urlRequirement maps a VCS or archive URL line to a Pipfile entry, using
// the #egg fragment for the package name when present.
func urlRequirement(line string) (string, pipfile.Requirement) {
	name := ""
	if i := strings.Index(line, "#egg="); i >= 0 {
		name = line[i+5:]
		if j := strings.IndexAny(name, "&#"); j >= 0 {
			name = name[:j]
		}
		line = line[:i]
	}

	if git, ok := strings.CutPrefix(line, "git+"); ok {
		req := pipfile.Requirement{Git: git}
		if at := strings.LastIndex(git, "@"); at > strings.LastIndex(git, "/") {
			req.Git, req.Ref = git[:at], git[at+1:]
		}
		if name == "" {
			name = pathName(req.Git)
		}
		return pep508.NormalizeName(name), req
	}

	if name == "" {
		name = pathName(line)
	}
	return pep508.NormalizeName(name), pipfile.Requirement{File: line}
}

// pathName derives a package name from the final path segment.
func pathName(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.TrimSuffix(p, ".git")
	if p == "" || p == "." {
		return "local-package"
	}
	return pep508.NormalizeName(p)
}

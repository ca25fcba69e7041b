package pep508

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/umarmnaq/pipenv/pkg/pep440"
)

// Requirement is a parsed PEP 508 dependency line.
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers pep440.SpecifierSet
	URL        string  // set for "name @ url" requirements
	Marker     *Marker // nil when the line carries no marker
}

var nameRegex = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

// ParseRequirement parses a dependency line such as
// "requests[socks,security]>=2.0,<3 ; python_version < '3.8'".
func ParseRequirement(line string) (*Requirement, error) {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return nil, fmt.Errorf("empty requirement")
	}

	var markerText string
	if i := strings.Index(rest, ";"); i >= 0 {
		markerText = strings.TrimSpace(rest[i+1:])
		rest = strings.TrimSpace(rest[:i])
	}

	m := nameRegex.FindString(rest)
	if m == "" {
		return nil, fmt.Errorf("invalid requirement %q: no package name", line)
	}
	req := &Requirement{Name: m}
	rest = strings.TrimSpace(rest[len(m):])

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, fmt.Errorf("invalid requirement %q: unterminated extras", line)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		req.URL = strings.TrimSpace(rest[1:])
		if req.URL == "" {
			return nil, fmt.Errorf("invalid requirement %q: empty URL", line)
		}
	} else if rest != "" {
		rest = strings.TrimPrefix(rest, "(")
		rest = strings.TrimSuffix(rest, ")")
		specs, err := pep440.ParseSpecifierSet(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid requirement %q: %w", line, err)
		}
		req.Specifiers = specs
	}

	if markerText != "" {
		marker, err := ParseMarker(markerText)
		if err != nil {
			return nil, err
		}
		req.Marker = marker
	}

	return req, nil
}

// String renders the requirement as a canonical PEP 508 line.
func (r *Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	switch {
	case r.URL != "":
		b.WriteString(" @ " + r.URL)
	case !r.Specifiers.Empty():
		b.WriteString(r.Specifiers.String())
	}
	if r.Marker != nil {
		b.WriteString(" ; " + r.Marker.String())
	}
	return b.String()
}

// NormalizeName converts a package name to its PEP 503 canonical form:
// lowercase with runs of ".", "-" and "_" collapsed to a single "-".
func NormalizeName(name string) string {
	var b strings.Builder
	prevSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '.' || r == '-' || r == '_' {
			prevSep = true
			continue
		}
		if prevSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Package pep440 implements Python version identifiers and version
// specifiers as defined by PEP 440.
//
// Versions follow the scheme [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local].
// Alternate spellings accepted by pip (alpha, beta, c, pre, preview, rev,
// dash-separated post releases, v prefix) are normalized during parsing.
//
// Specifiers are single comparison clauses such as ">=2.28" or "==1.4.*";
// a SpecifierSet is a comma-separated conjunction of clauses, the grammar
// used by Pipfile version constraints.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRegex captures the PEP 440 version grammar after normalization of
// case and separator spellings.
var versionRegex = regexp.MustCompile(`^v?` +
	`(?:(\d+)!)?` + // epoch
	`(\d+(?:\.\d+)*)` + // release segment
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` + // pre-release
	`(?:(?:-(\d+))|(?:[-_.]?(post|rev|r)[-_.]?(\d*)))?` + // post-release
	`(?:[-_.]?(dev)[-_.]?(\d*))?` + // dev release
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`, // local version
)

// preAliases maps alternate pre-release spellings to canonical form.
var preAliases = map[string]string{
	"alpha":   "a",
	"beta":    "b",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
}

// Version is a parsed PEP 440 version identifier.
type Version struct {
	Epoch   int
	Release []int
	Pre     *Tag   // nil when absent
	Post    *int   // nil when absent
	Dev     *int   // nil when absent
	Local   string // empty when absent

	original string
}

// Tag is a pre-release tag: a phase letter ("a", "b", "rc") and a number.
type Tag struct {
	Phase  string
	Number int
}

// Parse parses a version string. Leading/trailing whitespace and a leading
// "v" are accepted, matching pip's lenient handling.
func Parse(s string) (*Version, error) {
	orig := strings.TrimSpace(s)
	m := versionRegex.FindStringSubmatch(strings.ToLower(orig))
	if m == nil {
		return nil, fmt.Errorf("invalid version: %q", s)
	}

	v := &Version{original: orig}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version: %q", s)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		phase := m[3]
		if alias, ok := preAliases[phase]; ok {
			phase = alias
		}
		v.Pre = &Tag{Phase: phase, Number: atoiDefault(m[4])}
	}
	if m[5] != "" { // implicit post release: "1.0-1"
		n := atoiDefault(m[5])
		v.Post = &n
	} else if m[6] != "" {
		n := atoiDefault(m[7])
		v.Post = &n
	}
	if m[8] != "" {
		n := atoiDefault(m[9])
		v.Dev = &n
	}
	v.Local = m[10]

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time constants.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// String returns the canonical normalized form of the version.
func (v *Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Phase, v.Pre.Number)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(normalizeLocal(v.Local))
	}
	return b.String()
}

// Original returns the version string as it appeared in the input.
func (v *Version) Original() string { return v.original }

// IsPrerelease reports whether the version is a pre-release or dev release.
func (v *Version) IsPrerelease() bool { return v.Pre != nil || v.Dev != nil }

// IsPostrelease reports whether the version is a post-release.
func (v *Version) IsPostrelease() bool { return v.Post != nil }

// phaseRank orders pre-release phases: a < b < rc.
var phaseRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// Compare returns -1, 0, or +1 ordering v against o per PEP 440.
//
// The ordering places dev releases before pre-releases, pre-releases before
// the final release, and post-releases after it. Trailing zeros in the
// release segment are insignificant ("1.0" == "1.0.0").
func (v *Version) Compare(o *Version) int {
	if c := cmpInt(v.Epoch, o.Epoch); c != 0 {
		return c
	}
	if c := cmpRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmpPre(v, o); c != 0 {
		return c
	}
	if c := cmpOptional(v.Post, o.Post, -1); c != 0 {
		return c
	}
	if c := cmpOptional(v.Dev, o.Dev, 1); c != 0 {
		return c
	}
	return cmpLocal(v.Local, o.Local)
}

// Equal reports whether v and o compare equal, ignoring local segments on
// neither side (local segments participate in equality).
func (v *Version) Equal(o *Version) bool { return v.Compare(o) == 0 }

// Less reports whether v orders before o.
func (v *Version) Less(o *Version) bool { return v.Compare(o) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if c := cmpInt(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// cmpPre compares pre-release segments. A version with neither pre nor
// post but a dev segment sorts below a bare pre-release; a version with no
// pre-release sorts above one that has it.
func cmpPre(a, b *Version) int {
	ar, an := preKey(a)
	br, bn := preKey(b)
	if c := cmpInt(ar, br); c != 0 {
		return c
	}
	return cmpInt(an, bn)
}

// preKey maps the pre-release segment to a sortable (rank, number) pair.
// Rank -1 marks dev-only releases (sort first), rank 3 marks final
// releases (sort after every pre-release phase).
func preKey(v *Version) (rank, num int) {
	if v.Pre == nil {
		if v.Post == nil && v.Dev != nil {
			return -1, 0
		}
		return 3, 0
	}
	return phaseRank[v.Pre.Phase], v.Pre.Number
}

// cmpOptional compares optional numeric segments where absence sorts
// according to missing: -1 when absence sorts first (post), +1 when
// absence sorts last (dev).
func cmpOptional(a, b *int, missing int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return missing
	case b == nil:
		return -missing
	default:
		return cmpInt(*a, *b)
	}
}

// cmpLocal compares local version segments: absent sorts before present,
// segments compare piecewise with numeric segments above alphanumeric.
func cmpLocal(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	as := splitLocal(a)
	bs := splitLocal(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		aNum, bNum := isDigits(as[i]), isDigits(bs[i])
		switch {
		case aNum && bNum:
			an, _ := strconv.Atoi(as[i])
			bn, _ := strconv.Atoi(bs[i])
			if c := cmpInt(an, bn); c != 0 {
				return c
			}
		case aNum:
			return 1 // numeric sorts above alphanumeric
		case bNum:
			return -1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	return cmpInt(len(as), len(bs))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

var localSeparators = strings.NewReplacer("-", ".", "_", ".")

func normalizeLocal(s string) string {
	return localSeparators.Replace(strings.ToLower(s))
}

func splitLocal(s string) []string {
	return strings.Split(normalizeLocal(s), ".")
}

package pep440

import (
	"fmt"
	"strings"
)

// Operator is a PEP 440 comparison operator.
type Operator string

// Comparison operators in the specifier grammar.
const (
	OpCompatible        Operator = "~="
	OpEqual             Operator = "=="
	OpNotEqual          Operator = "!="
	OpLessEqual         Operator = "<="
	OpGreaterEqual      Operator = ">="
	OpLess              Operator = "<"
	OpGreater           Operator = ">"
	OpArbitraryEquality Operator = "==="
)

// operators lists valid operators longest-first so that prefix matching
// picks "===" before "==", and "<=" before "<".
var operators = []Operator{
	OpArbitraryEquality, OpCompatible,
	OpEqual, OpNotEqual, OpLessEqual, OpGreaterEqual,
	OpLess, OpGreater,
}

// Specifier is a single version clause such as ">=2.28" or "==1.4.*".
type Specifier struct {
	Op       Operator
	Version  string   // version text as written (may end in ".*" for ==/!=)
	parsed   *Version // nil for wildcard and === clauses
	wildcard bool
}

// ParseSpecifier parses a single clause of the specifier grammar.
func ParseSpecifier(s string) (*Specifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty specifier clause")
	}
	if s == "*" {
		// Pipfile "*" means any version: represented as a nil-constraint
		// wildcard equality.
		return &Specifier{Op: OpEqual, Version: "*", wildcard: true}, nil
	}

	var op Operator
	for _, candidate := range operators {
		if strings.HasPrefix(s, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return nil, fmt.Errorf("invalid specifier: %q", s)
	}

	ver := strings.TrimSpace(strings.TrimPrefix(s, string(op)))
	if ver == "" {
		return nil, fmt.Errorf("invalid specifier: %q", s)
	}

	spec := &Specifier{Op: op, Version: ver}

	switch {
	case op == OpArbitraryEquality:
		// Arbitrary equality compares unparsed strings.
	case strings.HasSuffix(ver, ".*"):
		if op != OpEqual && op != OpNotEqual {
			return nil, fmt.Errorf("wildcard not allowed with operator %s: %q", op, s)
		}
		if _, err := Parse(strings.TrimSuffix(ver, ".*")); err != nil {
			return nil, fmt.Errorf("invalid specifier: %q", s)
		}
		spec.wildcard = true
	default:
		v, err := Parse(ver)
		if err != nil {
			return nil, fmt.Errorf("invalid specifier: %q", s)
		}
		if op == OpCompatible && len(v.Release) < 2 {
			return nil, fmt.Errorf("compatible release requires at least two release segments: %q", s)
		}
		spec.parsed = v
	}

	return spec, nil
}

// String returns the clause in canonical form.
func (s *Specifier) String() string {
	if s.Version == "*" {
		return "*"
	}
	return string(s.Op) + s.Version
}

// Match reports whether v satisfies the clause.
func (s *Specifier) Match(v *Version) bool {
	if s.Version == "*" {
		return true
	}

	switch s.Op {
	case OpArbitraryEquality:
		return strings.EqualFold(strings.TrimSpace(s.Version), v.Original())
	case OpEqual:
		if s.wildcard {
			return matchWildcard(s.Version, v)
		}
		return equalIgnoringLocal(s.parsed, v)
	case OpNotEqual:
		if s.wildcard {
			return !matchWildcard(s.Version, v)
		}
		return !equalIgnoringLocal(s.parsed, v)
	case OpCompatible:
		return matchCompatible(s.parsed, v)
	case OpLessEqual:
		return v.Compare(s.parsed) <= 0
	case OpGreaterEqual:
		return v.Compare(s.parsed) >= 0
	case OpLess:
		return v.Compare(s.parsed) < 0
	case OpGreater:
		return v.Compare(s.parsed) > 0
	}
	return false
}

// equalIgnoringLocal applies == semantics: when the clause carries no local
// segment, the candidate's local segment is ignored.
func equalIgnoringLocal(spec, v *Version) bool {
	if spec.Local == "" && v.Local != "" {
		stripped := *v
		stripped.Local = ""
		return spec.Compare(&stripped) == 0
	}
	return spec.Compare(v) == 0
}

// matchWildcard applies "==X.Y.*" prefix matching on the release segment.
func matchWildcard(pattern string, v *Version) bool {
	prefix := MustParse(strings.TrimSuffix(pattern, ".*"))
	if v.Epoch != prefix.Epoch {
		return false
	}
	for i, n := range prefix.Release {
		var rv int
		if i < len(v.Release) {
			rv = v.Release[i]
		}
		if rv != n {
			return false
		}
	}
	return true
}

// matchCompatible applies "~=X.Y[.Z]": at least the given version, within
// the series obtained by dropping its final release segment.
func matchCompatible(spec, v *Version) bool {
	if v.Compare(spec) < 0 {
		return false
	}
	if v.Epoch != spec.Epoch {
		return false
	}
	series := spec.Release[:len(spec.Release)-1]
	for i, n := range series {
		var rv int
		if i < len(v.Release) {
			rv = v.Release[i]
		}
		if rv != n {
			return false
		}
	}
	return true
}

// IsPrerelease reports whether the clause itself names a pre-release,
// which implicitly permits pre-release candidates.
func (s *Specifier) IsPrerelease() bool {
	return s.parsed != nil && s.parsed.IsPrerelease()
}

// SpecifierSet is a conjunction of comma-separated clauses, the grammar of
// Pipfile version constraints ("*", ">=2.28,<3", "==1.4.*").
type SpecifierSet []*Specifier

// ParseSpecifierSet parses a comma-separated list of clauses. The empty
// string and "*" both denote the unconstrained set.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return SpecifierSet{}, nil
	}

	var set SpecifierSet
	for _, clause := range strings.Split(s, ",") {
		if strings.TrimSpace(clause) == "" {
			return nil, fmt.Errorf("empty clause in specifier set: %q", s)
		}
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// String returns the set in canonical comma-joined form.
func (ss SpecifierSet) String() string {
	if len(ss) == 0 {
		return "*"
	}
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// Empty reports whether the set is unconstrained.
func (ss SpecifierSet) Empty() bool { return len(ss) == 0 }

// Match reports whether v satisfies every clause. Pre-release versions are
// rejected unless prereleases is true or some clause itself names a
// pre-release.
func (ss SpecifierSet) Match(v *Version, prereleases bool) bool {
	if v.IsPrerelease() && !prereleases && !ss.hasPrerelease() {
		return false
	}
	for _, s := range ss {
		if !s.Match(v) {
			return false
		}
	}
	return true
}

func (ss SpecifierSet) hasPrerelease() bool {
	for _, s := range ss {
		if s.IsPrerelease() {
			return true
		}
	}
	return false
}

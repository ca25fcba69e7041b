package pep440

import "testing"

func TestParseSpecifierSet(t *testing.T) {
	tests := []struct {
		in      string
		clauses int
		wantErr bool
	}{
		{"*", 0, false},
		{"", 0, false},
		{"==2.28.1", 1, false},
		{">=2.28,<3.0", 2, false},
		{"~=1.4.2", 1, false},
		{"==1.4.*", 1, false},
		{"!=1.5.*", 1, false},
		{"===weird-version", 1, false},
		{">=abc", 0, true},
		{"2.28.1", 0, true}, // bare version without operator
		{">=1.*", 0, true},  // wildcard only valid with == and !=
		{"~=1", 0, true},    // compatible release needs two segments
		{">=1,,", 0, true},  // empty clause
		{",>=1", 0, true},   // leading empty clause
		{">=1, ,<2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			set, err := ParseSpecifierSet(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpecifierSet(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && len(set) != tt.clauses {
				t.Errorf("ParseSpecifierSet(%q) clauses = %d, want %d", tt.in, len(set), tt.clauses)
			}
		})
	}
}

func TestParseSpecifierEmpty(t *testing.T) {
	if _, err := ParseSpecifier(""); err == nil {
		t.Error("ParseSpecifier(\"\") succeeded, want error")
	}
	spec, err := ParseSpecifier("*")
	if err != nil {
		t.Fatalf("ParseSpecifier(\"*\") error: %v", err)
	}
	if spec.String() != "*" {
		t.Errorf("ParseSpecifier(\"*\").String() = %q", spec.String())
	}
}

func TestSpecifierMatch(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"==2.28.1", "2.28.1", true},
		{"==2.28.1", "2.28.2", false},
		{"==2.28.1", "2.28.1+local", true}, // local ignored without local in clause
		{"!=2.28.1", "2.28.2", true},
		{">=2.28", "2.28.0", true},
		{">=2.28", "2.27.9", false},
		{"<3.0", "2.99", true},
		{"<3.0", "3.0", false},
		{"==1.4.*", "1.4.22", true},
		{"==1.4.*", "1.5.0", false},
		{"!=1.4.*", "1.5.0", true},
		{"~=2.2", "2.9", true},
		{"~=2.2", "3.0", false},
		{"~=1.4.5", "1.4.9", true},
		{"~=1.4.5", "1.5.0", false},
		{"~=1.4.5", "1.4.4", false},
		{"===1.0", "1.0", true},
		{"===1.0", "1.0.0", false}, // arbitrary equality is textual
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.version, func(t *testing.T) {
			spec, err := ParseSpecifier(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifier(%q) error: %v", tt.spec, err)
			}
			v, err := Parse(tt.version)
			if err != nil {
				t.Skipf("version %q does not parse: %v", tt.version, err)
			}
			if got := spec.Match(v); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestSpecifierSetMatch(t *testing.T) {
	set, err := ParseSpecifierSet(">=2.28,<3.0")
	if err != nil {
		t.Fatal(err)
	}

	if !set.Match(MustParse("2.31.0"), false) {
		t.Error("2.31.0 should satisfy >=2.28,<3.0")
	}
	if set.Match(MustParse("3.1"), false) {
		t.Error("3.1 should not satisfy >=2.28,<3.0")
	}
}

func TestSpecifierSetPrereleases(t *testing.T) {
	set, err := ParseSpecifierSet(">=2.0")
	if err != nil {
		t.Fatal(err)
	}

	pre := MustParse("2.1rc1")
	if set.Match(pre, false) {
		t.Error("pre-release should be rejected by default")
	}
	if !set.Match(pre, true) {
		t.Error("pre-release should match when allowed")
	}

	// A clause that itself names a pre-release admits pre-releases.
	preSet, err := ParseSpecifierSet(">=2.1rc1")
	if err != nil {
		t.Fatal(err)
	}
	if !preSet.Match(pre, false) {
		t.Error("pre-release clause should admit pre-release candidates")
	}
}

func TestSpecifierSetString(t *testing.T) {
	for _, in := range []string{"*", ">=2.28,<3.0", "==1.4.*"} {
		set, err := ParseSpecifierSet(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := set.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

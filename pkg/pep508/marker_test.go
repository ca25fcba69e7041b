package pep508

import "testing"

func linuxEnv() Environment {
	return Environment{
		"sys_platform":    "linux",
		"os_name":         "posix",
		"platform_system": "Linux",
		"python_version":  "3.11",
	}
}

func TestParseMarkerInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"python_version",
		"python_version <",
		"bogus_variable == 'x'",
		"python_version =! '3.8'",
		"(python_version == '3.8'",
		"python_version == '3.8' and",
		`python_version == "3.8`,
	} {
		if _, err := ParseMarker(in); err == nil {
			t.Errorf("ParseMarker(%q) succeeded, want error", in)
		}
	}
}

func TestMarkerEvaluate(t *testing.T) {
	tests := []struct {
		marker string
		want   bool
	}{
		{`sys_platform == 'linux'`, true},
		{`sys_platform == "win32"`, false},
		{`sys_platform != 'win32'`, true},
		{`python_version < '3.12'`, true},
		{`python_version >= '3.12'`, false},
		{`python_version < '3.8' or sys_platform == 'linux'`, true},
		{`python_version < '3.8' and sys_platform == 'linux'`, false},
		{`(python_version < '3.8' or os_name == 'posix') and platform_system == 'Linux'`, true},
		{`'linux' in sys_platform`, true},
		{`'bsd' not in sys_platform`, true},
		{`os.name == 'posix'`, true}, // deprecated dotted spelling
	}

	env := linuxEnv()
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			m, err := ParseMarker(tt.marker)
			if err != nil {
				t.Fatalf("ParseMarker(%q) error: %v", tt.marker, err)
			}
			if got := m.Evaluate(env); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.marker, got, tt.want)
			}
		})
	}
}

func TestMarkerVersionOrdering(t *testing.T) {
	// "3.9" is numerically below "3.11"; a plain string comparison would
	// order them the other way.
	m, err := ParseMarker(`python_version >= '3.9'`)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Evaluate(Environment{"python_version": "3.11"}) {
		t.Error("3.11 should satisfy python_version >= '3.9'")
	}
	if m.Evaluate(Environment{"python_version": "3.8"}) {
		t.Error("3.8 should not satisfy python_version >= '3.9'")
	}
}

func TestMarkerString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`sys_platform=='linux'`, `sys_platform == 'linux'`},
		{`python_version < "3.8"`, `python_version < '3.8'`},
		{`(os_name == 'posix' or os_name == 'nt') and sys_platform != 'cygwin'`,
			`(os_name == 'posix' or os_name == 'nt') and sys_platform != 'cygwin'`},
	}
	for _, tt := range tests {
		m, err := ParseMarker(tt.in)
		if err != nil {
			t.Fatalf("ParseMarker(%q) error: %v", tt.in, err)
		}
		if got := m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefaultEnvironment(t *testing.T) {
	env := DefaultEnvironment("")
	if env.Lookup("python_version") != DefaultPythonVersion {
		t.Errorf("python_version = %q, want %q", env.Lookup("python_version"), DefaultPythonVersion)
	}
	if env.Lookup("implementation_name") != "cpython" {
		t.Errorf("implementation_name = %q", env.Lookup("implementation_name"))
	}

	env = DefaultEnvironment("3.8")
	if env.Lookup("python_full_version") != "3.8.0" {
		t.Errorf("python_full_version = %q, want 3.8.0", env.Lookup("python_full_version"))
	}
}

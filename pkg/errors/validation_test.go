package errors

import (
	"testing"
)

func TestValidatePythonPackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "requests", false},
		{"valid with dash", "my-package", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "zope.interface", false},
		{"valid mixed case", "Django", false},
		{"valid single char", "a", false},
		{"valid digits", "python3", false},

		{"empty", "", true},
		{"leading dash", "-package", true},
		{"trailing dot", "package.", true},
		{"space", "my package", true},
		{"slash", "foo/bar", true},
		{"exclamation", "bad!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePythonPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePythonPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "pypi", false},
		{"valid with dash", "internal-mirror", false},

		{"empty", "", true},
		{"space", "my source", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid https", "https://pypi.org/simple", false},
		{"valid http", "http://pypi.internal/simple", false},

		{"empty", "", true},
		{"no scheme", "pypi.org/simple", true},
		{"ftp", "ftp://pypi.org/simple", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "./lib", false},
		{"valid parent", "../shared/lib", false},
		{"valid absolute", "/opt/lib", false},

		{"empty", "", true},
		{"null byte", "lib\x00", true},
		{"newline", "lib\nx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

package manifest

import (
	"os"
	"testing"
)

func validateFile(t *testing.T, name string) *ValidationResult {
	t.Helper()
	data, err := os.ReadFile(testPath(name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	result, err := Validate(data)
	if err != nil {
		t.Fatalf("Validate(%s) error: %v", name, err)
	}
	return result
}

func TestValidate_Valid(t *testing.T) {
	result := validateFile(t, "valid-registry.yaml")
	if !result.Valid {
		t.Errorf("expected valid, got issues: %s", result)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		file    string
		desc    string
		keyword string
	}{
		{"invalid-bad-name.yaml", "name violates pattern", "pattern"},
		{"invalid-missing-path.yaml", "explicit-path without path", "required"},
		{"invalid-bad-kind.yaml", "unknown target kind", "enum"},
		{"invalid-bad-version.yaml", "version is not semver", "pattern"},
		{"invalid-unknown-field.yaml", "unknown domain field", "additionalProperties"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result := validateFile(t, tt.file)
			if result.Valid {
				t.Fatalf("expected invalid for %s (%s), but got valid", tt.file, tt.desc)
			}
			found := false
			for _, issue := range result.Issues {
				if issue.Keyword == tt.keyword {
					found = true
				}
				if issue.Message == "" {
					t.Errorf("issue at %q has an empty message", issue.Path)
				}
			}
			if !found {
				t.Errorf("no %q issue in %s", tt.keyword, result)
			}
		})
	}
}

func TestValidate_InvalidYAML(t *testing.T) {
	data, err := os.ReadFile(testPath("invalid-not-yaml.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Validate(data); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidateManifest_Semantic(t *testing.T) {
	verb := Verb{ID: "install", Template: "verb.go", Version: "1.0.0", Target: Target{Kind: KindPackageConvention}}
	tests := []struct {
		name  string
		m     *Manifest
		valid bool
	}{
		{
			name:  "ok",
			m:     &Manifest{Version: 1, Domains: []Domain{{Name: "tools", Verbs: []Verb{verb}}, {Name: "remote", Parent: "tools"}}},
			valid: true,
		},
		{
			name: "duplicate verb",
			m:    &Manifest{Version: 1, Domains: []Domain{{Name: "tools", Verbs: []Verb{verb, verb}}}},
		},
		{
			name: "duplicate domain",
			m:    &Manifest{Version: 1, Domains: []Domain{{Name: "tools"}, {Name: "tools"}}},
		},
		{
			name: "parent declared later",
			m:    &Manifest{Version: 1, Domains: []Domain{{Name: "remote", Parent: "tools"}, {Name: "tools"}}},
		},
		{
			name: "same name under different parents",
			m: &Manifest{Version: 1, Domains: []Domain{
				{Name: "tools"}, {Name: "docs"},
				{Name: "build", Parent: "tools"}, {Name: "build", Parent: "docs"},
			}},
			valid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateManifest(tt.m)
			if err != nil {
				t.Fatalf("ValidateManifest() error = %v", err)
			}
			if result.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (%s)", result.Valid, tt.valid, result)
			}
		})
	}
}

package manifest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParseFile(t *testing.T) {
	m, err := ParseFile(testPath("valid-registry.yaml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if m.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", m.Version, SchemaVersion)
	}
	if len(m.Domains) != 2 {
		t.Fatalf("len(Domains) = %d, want 2", len(m.Domains))
	}

	tools := m.Domains[0]
	if tools.Qualified() != "tools" || len(tools.Verbs) != 2 {
		t.Errorf("tools domain = %+v", tools)
	}
	want := Verb{
		ID:       "scaffold",
		Template: "verb.go@^1",
		Version:  "1.2.0",
		Target:   Target{Kind: KindExplicitPath, Path: "cmd/{name}/scaffold.go"},
	}
	if diff := cmp.Diff(want, tools.Verbs[1]); diff != "" {
		t.Errorf("scaffold verb mismatch (-want +got):\n%s", diff)
	}

	if got := m.Domains[1].Qualified(); got != "tools.remote" {
		t.Errorf("Qualified() = %q, want tools.remote", got)
	}
	if m.Domain("tools.remote") != 1 || m.Domain("remote") != -1 {
		t.Error("Domain() lookup by qualified name failed")
	}
}

func TestParseFile_NotFound(t *testing.T) {
	if _, err := ParseFile(testPath("nonexistent.yaml")); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestParse_DefaultsVersion(t *testing.T) {
	m, err := Parse([]byte("domains: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", m.Version, SchemaVersion)
	}
}

func TestMarshalRoundTripIsStable(t *testing.T) {
	m, err := ParseFile(testPath("valid-registry.yaml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	first, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(m, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	second, err := Marshal(again)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Marshal output not stable:\n%s\n---\n%s", first, second)
	}
}

func TestClone(t *testing.T) {
	m, err := ParseFile(testPath("valid-registry.yaml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	c := m.Clone()
	c.Domains[0].Verbs[0].Version = "9.9.9"
	c.Domains = append(c.Domains, Domain{Name: "extra"})

	if m.Domains[0].Verbs[0].Version != "1.0.0" {
		t.Error("Clone shares verb storage with the original")
	}
	if len(m.Domains) != 2 {
		t.Error("Clone shares domain storage with the original")
	}
}

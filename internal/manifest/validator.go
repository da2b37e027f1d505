package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/registry.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue represents a single problem found in a manifest.
type ValidationIssue struct {
	Path    string // instance location, e.g. "/domains/0/verbs/1/id"
	Message string
	Keyword string // failing schema keyword, or "semantic" for cross-entry checks
}

func (r *ValidationResult) String() string {
	msgs := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Path == "" {
			msgs = append(msgs, issue.Message)
			continue
		}
		msgs = append(msgs, issue.Path+": "+issue.Message)
	}
	return strings.Join(msgs, "; ")
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("registry.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("registry.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks raw manifest YAML against the embedded schema. The error
// return is reserved for unreadable input or a broken schema; schema
// violations are reported in the result.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &ValidationResult{Issues: extractIssues(ve)}, nil
}

// ValidateManifest encodes m, validates it against the schema and then runs
// the cross-entry checks the schema cannot express.
func ValidateManifest(m *Manifest) (*ValidationResult, error) {
	data, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	result, err := Validate(data)
	if err != nil || !result.Valid {
		return result, err
	}
	if issues := Check(m); len(issues) > 0 {
		return &ValidationResult{Issues: issues}, nil
	}
	return result, nil
}

// Check reports semantic problems: duplicate domains, parents that are not
// declared before their children, and duplicate verb IDs within a domain.
// Declaring parents first keeps the parent chain acyclic.
func Check(m *Manifest) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]bool, len(m.Domains))
	for i, d := range m.Domains {
		path := fmt.Sprintf("/domains/%d", i)
		if d.Parent != "" && !seen[d.Parent] {
			issues = append(issues, ValidationIssue{
				Path:    path + "/parent",
				Message: fmt.Sprintf("parent domain %q is not declared before %q", d.Parent, d.Qualified()),
				Keyword: "semantic",
			})
		}
		q := d.Qualified()
		if seen[q] {
			issues = append(issues, ValidationIssue{
				Path:    path + "/name",
				Message: fmt.Sprintf("domain %q is declared more than once", q),
				Keyword: "semantic",
			})
		}
		seen[q] = true

		ids := make(map[string]bool, len(d.Verbs))
		for j, v := range d.Verbs {
			if ids[v.ID] {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s/verbs/%d/id", path, j),
					Message: fmt.Sprintf("verb %q is declared more than once in domain %q", v.ID, q),
					Keyword: "semantic",
				})
			}
			ids[v.ID] = true
		}
	}
	return issues
}

// extractIssues flattens the validation error tree into its informative leaves.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)
	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return deduplicateIssues(issues)
}

func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	var keyword, msg string
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	switch keyword {
	case "", "allOf", "$ref", "if", "then":
		return
	}
	*issues = append(*issues, ValidationIssue{Path: path, Message: msg, Keyword: keyword})
}

func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

package stackfile

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Issue codes reported in a ValidationError.
const (
	CodeSchema           = "E100" // document does not match the schema
	CodeMissingThickness = "E101" // film without thickness
	CodeInvalidStack     = "E102" // physically invalid stack
)

// Issue is a single validation finding.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError collects every issue found in a stack document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.Issues[0].Field, e.Issues[0].Message)
	}
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = fmt.Sprintf("%s: %s", is.Field, is.Message)
	}
	return fmt.Sprintf("%d validation issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// ValidateSchema checks a decoded YAML/JSON document against #Stack.
func ValidateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling stack schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Stack"))

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return &ValidationError{Issues: []Issue{{Field: "document", Message: err.Error(), Code: CodeSchema}}}
	}

	err := def.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var issues []Issue
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		field := issueField(e.Path())
		// A failed disjunction reports once per branch.
		if seen[field] {
			continue
		}
		seen[field] = true
		format, args := e.Msg()
		issues = append(issues, Issue{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    CodeSchema,
		})
	}
	if len(issues) == 0 {
		issues = append(issues, Issue{Field: "document", Message: err.Error(), Code: CodeSchema})
	}
	return &ValidationError{Issues: issues}
}

// issueField renders a CUE error path relative to the document, dropping
// the definition it was unified with.
func issueField(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) == 0 {
		return "document"
	}
	return strings.Join(path, ".")
}

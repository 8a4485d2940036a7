// Package schemas validates generated artifacts against embedded JSON Schemas
// and decodes them into typed values.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/xeipuuv/gojsonschema"
)

// Schema names.
const (
	Enrichment = "enrichment.schema.json"
	Pitches    = "pitches.schema.json"
	Simulation = "simulation.schema.json"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Load returns the raw text of an embedded schema.
func Load(name string) (string, error) {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return "", &SchemaLoadError{Path: name, Message: "schema not embedded", Cause: err}
	}
	return string(data), nil
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// Result is the outcome of Decode. Exactly one of Value (OK) or Reason is meaningful.
type Result[T any] struct {
	OK     bool
	Value  T
	Reason string
}

func fail[T any](format string, args ...any) Result[T] {
	return Result[T]{Reason: fmt.Sprintf(format, args...)}
}

// Decode extracts the first JSON container from raw model output, validates it
// against the named schema, and unmarshals it into T. It never returns an error:
// malformed, partial, or off-schema output yields a Result with OK false.
func Decode[T any](raw, schema string) Result[T] {
	schemaText, err := Load(schema)
	if err != nil {
		return fail[T]("%v", err)
	}

	open := byte('[')
	if schema == Simulation {
		open = '{'
	}
	doc := llm.ExtractJSON(raw, open)
	if doc == "" {
		return fail[T]("no complete JSON %s found in response", containerName(open))
	}

	if err := ValidateJSONString(schemaText, doc); err != nil {
		return fail[T]("%s", strings.TrimSpace(err.Error()))
	}

	var value T
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		return fail[T]("failed to decode JSON: %v", err)
	}
	return Result[T]{OK: true, Value: value}
}

func containerName(open byte) string {
	if open == '{' {
		return "object"
	}
	return "array"
}

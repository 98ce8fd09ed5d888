// Package constraint implements the pluggable field-level constraint
// checker (spec §4.J): the validator asks a Checker to look at an
// operator's property bag and gets back a list of (path, message)
// violations, with no opinion on how those violations were computed
// (spec §9: "the core only cares that it returns a list of (path,
// message) pairs").
package constraint

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one constraint failure, identified by the dotted path
// into the property bag where it occurred.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// propertiesProvider mirrors operator.PropertiesProvider structurally;
// this package never imports operator, so it only needs the one method
// it actually calls (spec §9 Design Notes: depend on an injected
// capability, not a specific framework).
type propertiesProvider interface {
	Properties() map[string]any
}

// Checker inspects an operator instance and reports field-level
// constraint violations (spec §4.J, §9: "the core only cares that it
// returns a list of (path, message) pairs"). operatorName identifies
// the operator for error messages; op is the user-supplied operator
// instance the validator is checking.
type Checker interface {
	Check(operatorName string, op any) []Violation
}

// NopChecker reports no violations ever. It is the default checker so a
// plan with no registered schemas validates exactly as it did before
// constraint checking existed.
type NopChecker struct{}

func (NopChecker) Check(string, any) []Violation { return nil }

// SchemaChecker validates property bags against JSON Schemas registered
// per operator type (spec §4.J: "a pluggable, field-level constraint
// checker... backed by JSON Schema"). An operator instance that does
// not implement Properties() map[string]any, or whose concrete type has
// no registered schema, is never in violation.
type SchemaChecker struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewSchemaChecker creates a checker with no schemas registered.
func NewSchemaChecker() *SchemaChecker {
	return &SchemaChecker{schemas: make(map[string]*jsonschema.Schema)}
}

// TypeName computes the registration key SchemaChecker uses for op's
// concrete type, so Register and Check always agree on it regardless of
// whether op is passed by value or by pointer.
func TypeName(op any) string {
	t := reflect.TypeOf(op)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}

// Register compiles schemaJSON (a JSON Schema document, draft 2020-12)
// and associates it with sample's concrete type. A second call for the
// same type replaces the previous schema.
func (c *SchemaChecker) Register(sample any, schemaJSON []byte) error {
	className := TypeName(sample)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := "mem://" + className
	if err := compiler.AddResource(url, strings.NewReader(string(schemaJSON))); err != nil {
		return fmt.Errorf("constraint: add schema for %s: %w", className, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("constraint: compile schema for %s: %w", className, err)
	}

	c.mu.Lock()
	c.schemas[className] = schema
	c.mu.Unlock()
	return nil
}

// Check validates op's property bag against its registered schema, if
// any.
func (c *SchemaChecker) Check(operatorName string, op any) []Violation {
	provider, ok := op.(propertiesProvider)
	if !ok {
		return nil
	}

	c.mu.RLock()
	schema, ok := c.schemas[TypeName(op)]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	properties := provider.Properties()

	// jsonschema validates against decoded JSON values (map[string]any
	// with float64 numbers), so round-trip through encoding/json rather
	// than handing it Go-typed values directly.
	raw, err := json.Marshal(properties)
	if err != nil {
		return []Violation{{Message: fmt.Sprintf("properties not serializable: %v", err)}}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return []Violation{{Message: fmt.Sprintf("properties not round-trippable: %v", err)}}
	}

	if err := schema.Validate(decoded); err != nil {
		return flatten(err)
	}
	return nil
}

func flatten(err error) []Violation {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}
	var out []Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{
				Path:    strings.TrimPrefix(e.InstanceLocation, "/"),
				Message: e.Message,
			})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

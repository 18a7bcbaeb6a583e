package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiled input schemas, keyed by tool name and schema text
var schemaCache sync.Map

func compileSchema(toolName string, schema json.RawMessage) (*jsonschema.Schema, error) {
	key := toolName + "\x00" + string(schema)
	if v, ok := schemaCache.Load(key); ok {
		return v.(*jsonschema.Schema), nil
	}
	s, err := jsonschema.CompileString(toolName+".json", string(schema))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, s)
	return s, nil
}

// deepestCause follows the first chain of causes down to a leaf, which names
// the offending argument rather than the enclosing object.
func deepestCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

// argumentName turns a JSON pointer into the argument path a caller typed:
// "/project_key" becomes "project_key", "" becomes "arguments".
func argumentName(pointer string) string {
	p := strings.TrimPrefix(pointer, "/")
	if p == "" {
		return "arguments"
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
	}
	return strings.Join(parts, ".")
}

// validateArgs checks decoded arguments against the tool's input schema.
// The message names the argument at fault, for example
// "invalid arguments for get_project_issues: project_key: expected string, but got number".
func validateArgs(toolName string, schema json.RawMessage, args any) error {
	if len(schema) == 0 {
		return nil
	}
	s, err := compileSchema(toolName, schema)
	if err != nil {
		return fmt.Errorf("invalid inputSchema for %s: %w", toolName, err)
	}
	err = s.Validate(args)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("invalid arguments for %s: %v", toolName, err)
	}
	leaf := deepestCause(ve)
	msg := leaf.Message
	if msg == "" {
		msg = leaf.Error()
	}
	return fmt.Errorf("invalid arguments for %s: %s: %s", toolName, argumentName(leaf.InstanceLocation), msg)
}

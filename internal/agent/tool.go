package agent

import (
	"context"
	"fmt"
	"strings"
)

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number"
	Description string
	Required    bool
}

// Definition describes a tool's schema (name, description, parameters) in a
// provider-independent form. Reasoners translate it to their SDK's types.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Tool is a named function the reasoner may invoke.
type Tool interface {
	Definition() Definition
	// Invoke runs the tool. The returned string is the observation fed back
	// to the reasoner; an error becomes an error observation.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// StringArg extracts a required, non-blank string argument.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing %s parameter", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", name, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter %s is empty", name)
	}
	return s, nil
}

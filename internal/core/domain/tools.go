package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParamType is the JSON type of a tool argument
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
)

// ToolParam declares one named argument of a tool.
type ToolParam struct {
	Name     string
	Type     ParamType
	Required bool
	// Note replaces the default "(optional)" hint in the rendered catalog.
	Note string
	Enum []string
	// Minimum is the smallest accepted value of an integer argument.
	Minimum *int
}

// Hint is the human-readable type/optionality shown to the reasoning engine.
func (p ToolParam) Hint() string {
	switch {
	case p.Note != "":
		return fmt.Sprintf("%s (%s)", p.Type, p.Note)
	case !p.Required:
		return string(p.Type) + " (optional)"
	default:
		return string(p.Type)
	}
}

// Tool is a registered data-retrieval operation. Tools are built with NewTool
// and are immutable afterwards.
type Tool struct {
	Name        ToolName
	Description string
	Params      []ToolParam

	schema  *gojsonschema.Schema
	bind    func(raw map[string]any) (ToolArgs, error)
	handler func(ctx context.Context, args ToolArgs) (ToolResult, error)
}

// NewTool builds a tool whose name comes from its argument type, so a handler
// can only ever be attached to the arguments it was written for.
func NewTool[A ToolArgs](description string, params []ToolParam, handler func(ctx context.Context, args A) ToolResult) (*Tool, error) {
	var zero A
	name := zero.ToolName()
	if handler == nil {
		return nil, fmt.Errorf("tool %s: handler cannot be nil", name)
	}

	t := &Tool{
		Name:        name,
		Description: description,
		Params:      params,
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("tool %s: invalid argument schema: %w", name, err)
	}
	t.schema = schema

	t.bind = func(raw map[string]any) (ToolArgs, error) {
		var args A
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return args, nil
	}
	t.handler = func(ctx context.Context, args ToolArgs) (ToolResult, error) {
		typed, ok := args.(A)
		if !ok {
			return nil, fmt.Errorf("arguments of type %T do not belong to this tool", args)
		}
		return handler(ctx, typed), nil
	}
	return t, nil
}

// JSONSchema returns the JSON Schema of the tool arguments.
func (t *Tool) JSONSchema() map[string]any {
	properties := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		// An optional argument sent as null binds as if it were omitted.
		prop := map[string]any{"type": string(p.Type)}
		if !p.Required {
			prop["type"] = []any{string(p.Type), "null"}
		}
		if len(p.Enum) > 0 {
			enum := make([]any, 0, len(p.Enum)+1)
			for _, v := range p.Enum {
				enum = append(enum, v)
			}
			if !p.Required {
				enum = append(enum, nil)
			}
			prop["enum"] = enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Bind validates raw arguments against the declared schema and converts them
// into the tool's typed argument variant.
func (t *Tool) Bind(raw map[string]any) (ToolArgs, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	result, err := t.schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, &ToolError{Tool: string(t.Name), Err: fmt.Errorf("validate arguments: %w", err)}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &ToolError{Tool: string(t.Name), Err: fmt.Errorf("invalid arguments: %s", strings.Join(problems, "; "))}
	}

	args, err := t.bind(raw)
	if err != nil {
		return nil, &ToolError{Tool: string(t.Name), Err: err}
	}
	return args, nil
}

// Invoke runs the handler with already bound arguments.
func (t *Tool) Invoke(ctx context.Context, args ToolArgs) (ToolResult, error) {
	if args == nil {
		return nil, &ToolError{Tool: string(t.Name), Err: fmt.Errorf("arguments are required")}
	}
	result, err := t.handler(ctx, args)
	if err != nil {
		return nil, &ToolError{Tool: string(t.Name), Err: err}
	}
	return result, nil
}

// ArgumentSchema renders the arguments as a JSON object of name -> hint,
// keeping declaration order.
func (t *Tool) ArgumentSchema() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(p.Name)
		hint, _ := json.Marshal(p.Hint())
		b.Write(key)
		b.WriteString(": ")
		b.Write(hint)
	}
	b.WriteByte('}')
	return b.String()
}

// ToolRegistry is the fixed set of tools available to the agent.
// It is built once at startup and never mutated.
type ToolRegistry struct {
	tools map[ToolName]*Tool
	order []ToolName
}

// NewToolRegistry registers the given tools in order
func NewToolRegistry(tools ...*Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{
		tools: make(map[ToolName]*Tool, len(tools)),
	}
	for _, tool := range tools {
		if err := r.register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *ToolRegistry) register(tool *Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s registered twice", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Lookup returns a tool by name
func (r *ToolRegistry) Lookup(name string) (*Tool, bool) {
	tool, ok := r.tools[ToolName(name)]
	return tool, ok
}

// Tools returns all registered tools in registration order
func (r *ToolRegistry) Tools() []*Tool {
	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns the registered tool names in registration order
func (r *ToolRegistry) Names() []string {
	names := make([]string, len(r.order))
	for i, n := range r.order {
		names[i] = string(n)
	}
	return names
}

// RenderDefinitions generates the tool catalog injected into prompts.
// Output is stable: same registry, same bytes.
func (r *ToolRegistry) RenderDefinitions() string {
	defs := make([]string, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, fmt.Sprintf("- Tool: `%s`\n  - Description: %s\n  - Arguments (JSON Schema): %s",
			tool.Name, tool.Description, tool.ArgumentSchema()))
	}
	return strings.Join(defs, "\n")
}

package tool

// FunctionTool is a generic adapter that exposes a plain Go function as a
// registry tool. It holds a lightweight JSON-schema-like parameter
// specification; argument validation happens in the registry before Call is
// invoked. A FunctionTool has no internal mutable state after construction
// and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(args map[string]any) (any, error)
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
//	name        - unique tool name (snake_case suggested)
//	description - concise, imperative description ("Check the …")
//	parameters  - minimal JSON-schema-like map describing accepted arguments
//	fn          - implementation receiving already-validated args
func NewFunctionTool(name, description string, parameters map[string]any, fn func(args map[string]any) (any, error)) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the human-readable tool description.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema for accepted arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call invokes the wrapped function.
func (t *FunctionTool) Call(args map[string]any) (any, error) {
	result, err := t.fn(args)
	if err != nil {
		if te, ok := err.(*ToolError); ok {
			return nil, te
		}
		return nil, NewToolError(t.name, err.Error(), "EXECUTION_ERROR")
	}
	return result, nil
}

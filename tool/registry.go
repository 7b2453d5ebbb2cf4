package tool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rsneha-blip/procuremesh/internal/util"
	"github.com/rsneha-blip/procuremesh/logging"
)

// Call result statuses. These strings are part of the tool-access wire
// contract.
const (
	StatusOK               = "ok"
	StatusError            = "error"
	StatusApprovalRequired = "approval_required"
)

// Result is the opaque request/reply shape returned by Registry.Call.
type Result struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Registry manages tools and per-agent-role access control. All methods are
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Definition
	logger logging.Logger
}

// RegistryOptions holds overrides for NewRegistry.
type RegistryOptions struct {
	Logger logging.Logger
}

// WithLogger overrides the default NoOpLogger.
func WithLogger(l logging.Logger) func(o *RegistryOptions) {
	return func(o *RegistryOptions) { o.Logger = l }
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{tools: make(map[string]Definition), logger: opts.Logger}
}

// NewDefaultRegistry constructs a registry pre-populated with the default
// procurement tool set.
func NewDefaultRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	r := NewRegistry(optFns...)
	registerDefaults(r)
	return r
}

// Register stores a tool definition. Registering an existing name replaces it.
func (r *Registry) Register(def Definition) error {
	if def.Tool == nil {
		return fmt.Errorf("register tool: nil tool")
	}
	if def.Tool.Name() == "" {
		return fmt.Errorf("register tool: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Tool.Name()] = def
	r.logger.Debug("tool registered", "tool_name", def.Tool.Name(), "category", string(def.Category))
	return nil
}

// Get returns a tool definition by name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// ToolsForAgent returns all tools the given agent role may call.
func (r *Registry) ToolsForAgent(agentRole string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Definition
	for _, def := range r.tools {
		if allowed(def, agentRole) {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool.Name() < out[j].Tool.Name() })
	return out
}

// ToolsByCategory returns all tools in a category.
func (r *Registry) ToolsByCategory(cat Category) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Definition
	for _, def := range r.tools {
		if def.Category == cat {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool.Name() < out[j].Tool.Name() })
	return out
}

// ListAll returns the sorted names of every registered tool.
func (r *Registry) ListAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanAccess reports whether an agent role may call a tool.
func (r *Registry) CanAccess(agentRole, toolName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[toolName]
	if !ok {
		return false
	}
	return allowed(def, agentRole)
}

// Call validates access and arguments, then executes the tool. Faults are
// reported in the Result rather than returned, so callers always get the
// {status, result|error} reply shape.
func (r *Registry) Call(agentRole, toolName string, params map[string]any) Result {
	r.mu.RLock()
	def, ok := r.tools[toolName]
	r.mu.RUnlock()

	if !ok {
		return Result{Status: StatusError, Error: fmt.Sprintf("unknown tool %q", toolName)}
	}
	if !allowed(def, agentRole) {
		r.logger.Warn("tool access denied", "tool_name", toolName, "agent_role", agentRole)
		return Result{Status: StatusError, Error: fmt.Sprintf("agent role %q may not call tool %q", agentRole, toolName)}
	}
	if def.RequiresApproval {
		return Result{Status: StatusApprovalRequired, Error: fmt.Sprintf("tool %q requires human approval", toolName)}
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := util.ValidateParameters(params, def.Tool.Parameters()); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}

	start := time.Now()
	result, err := def.Tool.Call(params)
	if err != nil {
		r.logger.Error("tool call failed", "tool_name", toolName, "duration", time.Since(start).String(), "error", err.Error())
		return Result{Status: StatusError, Error: err.Error()}
	}
	r.logger.Debug("tool call completed", "tool_name", toolName, "duration", time.Since(start).String())
	return Result{Status: StatusOK, Result: result}
}

// ExportDefinitions returns the registry contents as plain nested maps
// suitable for JSON serialization by external reporting tools.
func (r *Registry) ExportDefinitions() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := map[string]any{}
	for name, def := range r.tools {
		tools[name] = map[string]any{
			"description":       def.Tool.Description(),
			"category":          string(def.Category),
			"parameters":        def.Tool.Parameters(),
			"requires_approval": def.RequiresApproval,
		}
	}

	permissions := map[string]any{}
	for _, role := range []string{"sourcing", "compliance", "negotiation", "supervisor"} {
		names := []string{}
		for _, def := range r.tools {
			if allowed(def, role) {
				names = append(names, def.Tool.Name())
			}
		}
		sort.Strings(names)
		permissions[role] = names
	}

	return map[string]any{
		"tools": tools,
		"categories": []string{
			string(CategorySourcing), string(CategoryCompliance),
			string(CategoryNegotiation), string(CategoryWorkflow), string(CategoryUtility),
		},
		"agent_permissions": permissions,
	}
}

func allowed(def Definition, agentRole string) bool {
	for _, role := range def.AllowedAgents {
		if role == agentRole || role == "all" {
			return true
		}
	}
	return false
}

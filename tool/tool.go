// Package tool implements the permissioned tool registry agents consult for
// structured capabilities outside the routing kernel. Tools are registered
// with a category, an allowed-agent list and an approval flag; the registry
// enforces access on every call and validates arguments against the tool's
// schema before execution. The kernel treats tool calls as opaque
// request/reply, unrelated to conversation routing.
package tool

import (
	"fmt"

	"github.com/rsneha-blip/procuremesh/internal/util"
)

// Category groups tools for organization and access control.
type Category string

const (
	// CategorySourcing covers supplier discovery and evaluation tools.
	CategorySourcing Category = "sourcing"
	// CategoryCompliance covers policy and risk tools.
	CategoryCompliance Category = "compliance"
	// CategoryNegotiation covers deal optimization tools.
	CategoryNegotiation Category = "negotiation"
	// CategoryWorkflow covers session and approval tools.
	CategoryWorkflow Category = "workflow"
	// CategoryUtility covers everything else.
	CategoryUtility Category = "utility"
)

// Tool is the execution contract for a registered capability.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define a JSON-schema-like parameter map for validation
//   - Handle errors gracefully and be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]interface{}

	// Call executes the tool with already-validated arguments.
	Call(args map[string]interface{}) (interface{}, error)
}

// Definition binds a Tool to its access-control metadata in the registry.
type Definition struct {
	Tool Tool
	// Category organizes the tool for discovery.
	Category Category
	// AllowedAgents lists the agent roles permitted to call the tool. The
	// wildcard "all" grants every role access.
	AllowedAgents []string
	// RequiresApproval marks tools whose invocation must be cleared by a
	// human before execution; Call returns StatusApprovalRequired for them.
	RequiresApproval bool
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

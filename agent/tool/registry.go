// Package tool implements the callable-operation subsystem: a registry of
// named tool definitions with typed parameter schemas, and an executor that
// validates arguments, enforces timeouts, and captures every outcome.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// DefaultTimeout applies to tool handlers that do not set their own.
const DefaultTimeout = 30 * time.Second

// Handler runs one tool invocation with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (contractx.ToolResult, error)

// Definition is an immutable schema + handler pairing, registered once at
// startup.
type Definition struct {
	Name        string
	Description string
	Params      map[string]*schema.ParameterInfo
	Timeout     time.Duration
	Handler     Handler
}

// Info renders the definition as the tool schema handed to the model.
func (d *Definition) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(d.Params),
	}
}

func (d *Definition) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

// Registry holds tool definitions by name. It is built at startup and
// read-mostly afterwards; duplicate names are rejected unless the caller
// explicitly replaces.
type Registry struct {
	tools map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition, 16)}
}

func (r *Registry) Register(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrToolNotFound)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool %s has no handler", contractx.ErrToolExecution, def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", contractx.ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Replace overwrites an existing definition; intentional overrides only.
func (r *Registry) Replace(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrToolNotFound)
	}
	r.tools[def.Name] = def
	return nil
}

func (r *Registry) Get(name string) (*Definition, error) {
	def, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrToolNotFound, name)
	}
	return def, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InfosFor returns model-facing schemas for the allowed tool names,
// silently skipping names with no registered definition.
func (r *Registry) InfosFor(allowed []string) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(allowed))
	for _, name := range allowed {
		if def, ok := r.tools[name]; ok {
			infos = append(infos, def.Info())
		}
	}
	return infos
}

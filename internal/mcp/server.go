package mcp

import (
	"slices"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/ops"
)

// ServerName is the name advertised to MCP clients.
const ServerName = "langroutes"

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     toolDef
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"countries_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"countries_top": {
		def:     topToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTop },
	},
	"country_detail": {
		def:     detailToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDetail },
	},
	"countries_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
}

// AllToolNames returns the names of all tools, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the country tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(src ops.Source, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(src, cfg, logger)

	for _, name := range ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn("unknown tool in disabled_tools", zap.String("tool", name))
	}
	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		entry := toolRegistry[name]
		s.AddTool(entry.def(name), entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(src ops.Source, cfg *config.Config, logger *zap.Logger, version string) error {
	s := NewServer(src, cfg, logger, version)
	return server.ServeStdio(s)
}

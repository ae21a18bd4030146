// Package server exposes a connected panel as MCP tools so an assistant
// can browse and profile a live application.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/panel"
)

// Config holds MCP server configuration.
type Config struct {
	Version  string
	CacheTTL time.Duration
	// Timeout bounds each round trip to the agent.
	Timeout time.Duration
	// MaxProfile caps the duration of the profile tool.
	MaxProfile time.Duration
	Clock      clockwork.Clock
	Logger     *zerolog.Logger
}

// Server wraps the MCP server with the panel and a forest cache.
type Server struct {
	panel *panel.Panel
	cache *ViewCache
	cfg   Config
	log   zerolog.Logger
	// mu serializes tool calls; profiling and property queries must not
	// interleave on the one session.
	mu  sync.Mutex
	mcp *mcpserver.MCPServer
}

// New creates an MCP server with all inspector tools registered.
func New(p *panel.Panel, cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxProfile <= 0 {
		cfg.MaxProfile = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	s := &Server{
		panel: p,
		cache: NewViewCache(cfg.CacheTTL, cfg.Clock),
		cfg:   cfg,
		log:   zerolog.Nop(),
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "mcp").Logger()
	}
	s.mcp = mcpserver.NewMCPServer(
		"component-inspector",
		cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithInstructions("Inspect the component tree, properties, routes, injectors and change detection timing of a live application. Positions are dotted child indexes such as 0.1.2 taken from the tree tool."),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the given transport.
func (s *Server) Serve(transport string, port int) error {
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func (s *Server) registerTools() {
	position := mcp.WithString("position", mcp.Description("Element position as dotted child indexes, e.g. 0.1.2"))
	directive := mcp.WithNumber("directive", mcp.Description("Directive index on the element; -1 or omitted selects the component"), mcp.DefaultNumber(-1))

	s.mcp.AddTool(
		mcp.NewTool("availability",
			mcp.WithDescription("Report the framework version and mode of the inspected application"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleAvailability,
	)

	s.mcp.AddTool(
		mcp.NewTool("tree",
			mcp.WithDescription("Read the component tree. Each element lists its component and directives with their ids."),
			mcp.WithBoolean("flat", mcp.Description("Return a flat list with positions and breadcrumb paths")),
			mcp.WithBoolean("text", mcp.Description("Return an indented text outline")),
			mcp.WithString("filter", mcp.Description("Keep only branches whose element, component or directive names contain this text")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleTree,
	)

	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Find elements by element, component or directive name"),
			mcp.WithString("name", mcp.Description("Name substring to search for"), mcp.Required()),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleFind,
	)

	s.mcp.AddTool(
		mcp.NewTool("props",
			mcp.WithDescription("Read the properties of a component or directive. Without a path, every directive on the element is described with its metadata; with a path, one nested value is expanded."),
			position,
			directive,
			mcp.WithArray("path", mcp.Description("Property path to expand, e.g. [\"user\", \"address\"]"), mcp.WithStringItems()),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleProps,
	)

	s.mcp.AddTool(
		mcp.NewTool("routes",
			mcp.WithDescription("Read the router configuration as a tree"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleRoutes,
	)

	s.mcp.AddTool(
		mcp.NewTool("providers",
			mcp.WithDescription("List the providers configured on an injector. Injector ids appear in the resolution paths returned by props."),
			mcp.WithString("injector", mcp.Description("Injector id"), mcp.Required()),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleProviders,
	)

	s.mcp.AddTool(
		mcp.NewTool("highlight",
			mcp.WithDescription("Draw the highlight overlay over an element, by position or by component id"),
			position,
			mcp.WithNumber("id", mcp.Description("Component or directive id")),
		),
		s.handleHighlight,
	)

	s.mcp.AddTool(
		mcp.NewTool("unhighlight",
			mcp.WithDescription("Remove the highlight overlay"),
		),
		s.handleUnhighlight,
	)

	s.mcp.AddTool(
		mcp.NewTool("select",
			mcp.WithDescription("Select an element in the application, by position or by component id"),
			position,
			mcp.WithNumber("id", mcp.Description("Component or directive id")),
		),
		s.handleSelect,
	)

	s.mcp.AddTool(
		mcp.NewTool("set_value",
			mcp.WithDescription("Assign a property on a component or directive"),
			position,
			directive,
			mcp.WithArray("key-path", mcp.Description("Property path, e.g. [\"user\", \"name\"]"), mcp.Required(), mcp.WithStringItems()),
			mcp.WithString("value", mcp.Description("New value; parsed as JSON when it is valid JSON, otherwise used as a string"), mcp.Required()),
			mcp.WithDestructiveHintAnnotation(true),
		),
		s.handleSetValue,
	)

	s.mcp.AddTool(
		mcp.NewTool("profile",
			mcp.WithDescription("Record change detection for a while and summarize the time spent per component and directive"),
			mcp.WithNumber("duration", mcp.Description("Recording time in milliseconds (default: 2000)"), mcp.DefaultNumber(2000)),
			mcp.WithBoolean("frames", mcp.Description("Include every recorded frame instead of only the summary")),
		),
		s.handleProfile,
	)
}

func (s *Server) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

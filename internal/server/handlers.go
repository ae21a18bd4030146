package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/profiler"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/tree"
)

// toText serializes v to YAML for an MCP response, with wire field names.
func toText(v interface{}) string {
	node, err := output.ToYAMLNode(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func textResult(v interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultText(toText(v))
}

// ActionResult is the response of tools that only send a command.
type ActionResult struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

// writeActionHandler runs a command against the agent and invalidates the
// forest cache.
func (s *Server) writeActionHandler(ctx context.Context, action string, fn func(ctx context.Context) error) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.timeout(ctx)
	defer cancel()
	result := ActionResult{Action: action}
	if err := fn(ctx); err != nil {
		result.Error = err.Error()
		return mcp.NewToolResultError(toText(result)), nil
	}
	result.OK = true
	s.cache.InvalidateAll()
	return textResult(result), nil
}

func (s *Server) handleAvailability(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	avail, err := s.panel.Availability(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textResult(avail), nil
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flat := request.GetBool("flat", false)
	text := request.GetBool("text", false)
	filter := request.GetString("filter", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	forest, gen, err := s.cache.Forest(ctx, s.panel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter != "" {
		forest = tree.FilterByName(forest, filter)
	}

	switch {
	case text:
		var b strings.Builder
		if err := output.WriteText(&b, forest); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(b.String()), nil
	case flat:
		nodes := tree.FlattenForest(forest)
		if nodes == nil {
			nodes = []tree.FlatNode{}
		}
		return textResult(output.FlatResult{Generation: gen, TS: time.Now().Unix(), Nodes: nodes}), nil
	default:
		if forest == nil {
			forest = []protocol.DevToolsNode{}
		}
		return textResult(output.TreeResult{Generation: gen, TS: time.Now().Unix(), Forest: forest}), nil
	}
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	forest, _, err := s.cache.Forest(ctx, s.panel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches := tree.FindByName(forest, name)
	if len(matches) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no element matches %q", name)), nil
	}
	return textResult(matches), nil
}

func (s *Server) handleProps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := positionParam(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := request.GetStringSlice("path", nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	if len(path) > 0 {
		props, err := s.panel.NestedProperties(ctx, directiveParam(request, pos), path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(props), nil
	}

	view, err := s.panel.ComponentView(ctx, &protocol.ComponentExplorerViewQuery{
		SelectedElement: pos,
		PropertyQuery:   protocol.AllProperties(),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(view.Properties) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no directives at position %s; the tree may have changed", pos)), nil
	}
	return textResult(view.Properties), nil
}

func (s *Server) handleRoutes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	routes, err := s.panel.Routes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textResult(routes), nil
}

func (s *Server) handleProviders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("injector")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.timeout(ctx)
	defer cancel()

	providers, err := s.panel.InjectorProviders(ctx, protocol.SerializedInjector{ID: id})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textResult(providers), nil
}

func (s *Server) handleHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := request.GetInt("id", -1); id >= 0 {
		return s.writeActionHandler(ctx, "highlight", func(ctx context.Context) error {
			return s.panel.HighlightComponent(ctx, id)
		})
	}
	pos, err := positionParam(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.writeActionHandler(ctx, "highlight", func(ctx context.Context) error {
		return s.panel.Highlight(ctx, pos)
	})
}

func (s *Server) handleUnhighlight(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.writeActionHandler(ctx, "unhighlight", func(ctx context.Context) error {
		if err := s.panel.Unhighlight(ctx); err != nil {
			return err
		}
		return s.panel.RemoveComponentHighlight(ctx)
	})
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := request.GetInt("id", -1); id >= 0 {
		return s.writeActionHandler(ctx, "select", func(ctx context.Context) error {
			return s.panel.SelectComponent(ctx, id)
		})
	}
	pos, err := positionParam(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.writeActionHandler(ctx, "select", func(ctx context.Context) error {
		return s.panel.SelectElement(ctx, pos)
	})
}

func (s *Server) handleSetValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := positionParam(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyPath, err := request.RequireStringSlice("key-path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(keyPath) == 0 {
		return mcp.NewToolResultError("key-path must not be empty"), nil
	}
	raw, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data := protocol.UpdatedStateData{
		DirectiveID: directiveParam(request, pos),
		KeyPath:     keyPath,
		NewValue:    ParseValue(raw),
	}
	return s.writeActionHandler(ctx, "set_value", func(ctx context.Context) error {
		if err := s.panel.UpdateState(ctx, data); err != nil {
			return err
		}
		// updateState has no reply; a round trip confirms it was applied.
		_, err := s.panel.Availability(ctx)
		return err
	})
}

// ProfileResult is the response of the profile tool.
type ProfileResult struct {
	Summary profiler.Summary         `json:"summary"`
	Frames  []protocol.ProfilerFrame `json:"frames,omitempty"`
}

func (s *Server) handleProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := time.Duration(request.GetFloat("duration", 2000)) * time.Millisecond
	if d <= 0 {
		return mcp.NewToolResultError("duration must be positive"), nil
	}
	if d > s.cfg.MaxProfile {
		d = s.cfg.MaxProfile
	}
	withFrames := request.GetBool("frames", false)

	s.mu.Lock()
	defer s.mu.Unlock()

	startCtx, cancel := s.timeout(ctx)
	err := s.panel.StartProfiling(startCtx)
	cancel()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	select {
	case <-s.cfg.Clock.After(d):
	case <-ctx.Done():
	}

	// Stop even when the caller went away so the agent is not left recording.
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()
	frames, err := s.panel.StopProfiling(stopCtx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := ctx.Err(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := ProfileResult{Summary: profiler.Aggregate(frames)}
	if withFrames {
		result.Frames = frames
	}
	s.log.Debug().Int("frames", len(frames)).Dur("duration", d).Msg("profile recorded")
	return textResult(result), nil
}

func positionParam(request mcp.CallToolRequest) (protocol.ElementPosition, error) {
	raw, err := request.RequireString("position")
	if err != nil {
		return nil, err
	}
	pos, err := protocol.ParseElementPosition(raw)
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		return nil, errors.New("position must not be empty")
	}
	return pos, nil
}

func directiveParam(request mcp.CallToolRequest, pos protocol.ElementPosition) protocol.DirectivePosition {
	if idx := request.GetInt("directive", -1); idx >= 0 {
		return protocol.DirectiveIndex(pos, idx)
	}
	return protocol.DirectivePosition{Element: pos}
}

// ParseValue interprets raw as JSON when it is valid JSON, otherwise as a
// plain string.
func ParseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

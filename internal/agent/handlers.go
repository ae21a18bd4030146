package agent

import (
	"context"
	"errors"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/injector"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/routes"
	"github.com/mj1618/component-inspector/internal/tree"
)

func (a *Agent) onQueryNgAvailability(ctx context.Context, _ protocol.QueryNgAvailability) {
	info := a.prov.Info
	avail := protocol.NgAvailability{DevMode: info.DevMode, Ivy: info.Ivy}
	if info.Version != "" {
		avail.Version = info.Version
	} else {
		avail.Version = false
	}
	a.send(ctx, protocol.NgAvailabilityMessage{Availability: avail})
}

func (a *Agent) onGetLatestComponentExplorerView(ctx context.Context, m protocol.GetLatestComponentExplorerView) {
	a.dirtyPending.Store(false)
	view, err := a.snaps.QueryView(ctx, m.Query)
	if err != nil {
		a.logQueryError(err, "component explorer view")
	}
	a.send(ctx, protocol.LatestComponentExplorerView{View: view})
}

func (a *Agent) onGetNestedProperties(ctx context.Context, m protocol.GetNestedProperties) {
	props, err := a.snaps.NestedProperties(ctx, m.Position, m.Path)
	if err != nil {
		a.logQueryError(err, "nested properties")
	}
	a.send(ctx, protocol.NestedProperties{Position: m.Position, Data: props, Path: m.Path})
}

func (a *Agent) onSetSelectedComponent(ctx context.Context, m protocol.SetSelectedComponent) {
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("select failed")
		return
	}
	if _, err := snap.Resolve(m.Position); err != nil {
		a.logQueryError(err, "select")
		return
	}
	a.mu.Lock()
	a.selected = append(protocol.ElementPosition(nil), m.Position...)
	a.mu.Unlock()
	a.log.Debug().Str("position", m.Position.String()).Msg("selected element")
}

func (a *Agent) onGetRoutes(ctx context.Context, _ protocol.GetRoutes) {
	root := ""
	if snap, err := a.snaps.Latest(ctx); err == nil && len(snap.Roots) > 0 && snap.Roots[0].Component != nil {
		root = snap.Roots[0].Component.Name
	}
	a.send(ctx, protocol.UpdateRouterTree{Routes: routes.Tree(a.prov.Router, root)})
}

func (a *Agent) onUpdateState(ctx context.Context, m protocol.UpdateState) {
	if err := a.snaps.UpdateState(ctx, m.Value); err != nil {
		a.logQueryError(err, "update state")
		return
	}
	a.log.Debug().Strs("keyPath", m.Value.KeyPath).Msg("state updated")
}

func (a *Agent) onStartProfiling(context.Context, protocol.StartProfiling) {
	err := a.prof.Start(func(f protocol.ProfilerFrame) {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		a.send(ctx, protocol.SendProfilerChunk{Frame: f})
	})
	if err != nil {
		a.log.Debug().Err(err).Msg("start profiling ignored")
	}
}

func (a *Agent) onStopProfiling(ctx context.Context, _ protocol.StopProfiling) {
	for _, f := range a.prof.Stop() {
		a.send(ctx, protocol.ProfilerResults{Frame: f})
	}
}

func (a *Agent) onCreateHighlightOverlay(ctx context.Context, m protocol.CreateHighlightOverlay) {
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		return
	}
	entry, err := snap.Resolve(m.Position)
	if err != nil {
		a.logQueryError(err, "highlight")
		return
	}
	a.highlight(entry)
}

func (a *Agent) onHighlightComponent(ctx context.Context, m protocol.HighlightComponent) {
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		return
	}
	entry, _, ok := snap.FindByID(m.ID)
	if !ok {
		a.log.Debug().Int("id", m.ID).Msg("highlight: unknown directive id")
		return
	}
	a.highlight(entry)
}

func (a *Agent) onSelectComponent(ctx context.Context, m protocol.SelectComponent) {
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		return
	}
	entry, _, ok := snap.FindByID(m.ID)
	if !ok {
		a.log.Debug().Int("id", m.ID).Msg("select: unknown directive id")
		return
	}
	a.mu.Lock()
	a.selected = append(protocol.ElementPosition(nil), entry.Position...)
	a.mu.Unlock()
}

func (a *Agent) onGetInjectorProviders(ctx context.Context, m protocol.GetInjectorProviders) {
	resp := protocol.LatestInjectorProviders{Injector: m.Injector, Providers: []protocol.SerializedProviderRecord{}}
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		a.send(ctx, resp)
		return
	}
	var records []host.ProviderRecord
	found := false
	err = a.snaps.Scheduler().Do(ctx, func() {
		var els []host.Element
		snap.Walk(func(e *tree.Entry) bool {
			if e.Element != nil {
				els = append(els, e.Element)
			}
			return true
		})
		if inj, ok := injector.Collect(els)[m.Injector.ID]; ok {
			found = true
			records = inj.Providers()
		}
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("reading providers failed")
	}
	if !found {
		a.log.Debug().Str("injector", m.Injector.ID).Msg("unknown injector")
	}
	resp.Providers = injector.SerializeProviders(records)
	a.send(ctx, resp)
}

func (a *Agent) onInspectorStart(context.Context, protocol.InspectorStart) {
	insp := a.prov.Inspector
	if insp == nil {
		return
	}
	a.mu.Lock()
	if a.inspecting {
		a.mu.Unlock()
		return
	}
	a.inspecting = true
	a.mu.Unlock()
	insp.Start(a.inspectorHover, a.inspectorSelect)
}

func (a *Agent) stopInspector() {
	a.mu.Lock()
	was := a.inspecting
	a.inspecting = false
	a.mu.Unlock()
	if was && a.prov.Inspector != nil {
		a.prov.Inspector.Stop()
	}
	a.hide()
}

// inspectorHover and inspectorSelect run on the application's thread, so
// they only read the published snapshot and never walk the tree.
func (a *Agent) inspectorHover(el host.Element) {
	entry, ok := a.entryFor(el)
	if !ok {
		return
	}
	a.highlight(entry)
	if id := entry.PrimaryID(); id >= 0 {
		a.sendAsync(protocol.HighlightComponent{ID: id})
	}
}

func (a *Agent) inspectorSelect(el host.Element) {
	entry, ok := a.entryFor(el)
	if !ok {
		return
	}
	a.mu.Lock()
	a.selected = append(protocol.ElementPosition(nil), entry.Position...)
	a.mu.Unlock()
	if id := entry.PrimaryID(); id >= 0 {
		a.sendAsync(protocol.SelectComponent{ID: id})
	}
}

func (a *Agent) entryFor(el host.Element) (*tree.Entry, bool) {
	snap := a.snaps.Current()
	if snap == nil || el == nil {
		return nil, false
	}
	if entry, ok := snap.FindByElement(el); ok {
		return entry, true
	}
	return snap.FindByNative(el.Native())
}

func (a *Agent) sendAsync(msg protocol.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	a.send(ctx, msg)
}

func (a *Agent) highlight(entry *tree.Entry) {
	hl := a.prov.Highlighter
	if hl == nil || entry.Element == nil {
		return
	}
	label := entry.Tag
	if entry.Component != nil {
		label += " (" + entry.Component.Name + ")"
	}
	if err := hl.Highlight(entry.Element, label); err != nil {
		a.log.Debug().Err(err).Str("element", entry.Tag).Msg("highlight skipped")
	}
}

func (a *Agent) hide() {
	if a.prov.Highlighter != nil {
		a.prov.Highlighter.Hide()
	}
}

func (a *Agent) logQueryError(err error, what string) {
	if tree.IsStale(err) || errors.Is(err, protocol.ErrUnsupportedQuery) {
		a.log.Debug().Err(err).Msg(what)
		return
	}
	a.log.Warn().Err(err).Msg(what)
}

package protocol

import "fmt"

// Message is one variant of the topic catalogue. The set is closed: only
// types in this package implement it.
type Message interface {
	Topic() Topic
	args() []any
}

// validator is implemented by payloads with constraints beyond their
// wire shape.
type validator interface {
	validate() error
}

type Handshake struct{}
type Shutdown struct{}
type QueryNgAvailability struct{}
type InspectorStart struct{}
type InspectorEnd struct{}
type GetRoutes struct{}
type ComponentTreeDirty struct{}
type StartProfiling struct{}
type StopProfiling struct{}
type RemoveHighlightOverlay struct{}
type RemoveComponentHighlight struct{}
type EnableTimingAPI struct{}
type DisableTimingAPI struct{}

// NgAvailabilityMessage answers QueryNgAvailability.
type NgAvailabilityMessage struct {
	Availability NgAvailability
}

// GetLatestComponentExplorerView asks for the forest and, when Query is
// set, the selected node's properties.
type GetLatestComponentExplorerView struct {
	Query *ComponentExplorerViewQuery
}

type LatestComponentExplorerView struct {
	View ComponentExplorerView
}

type GetNestedProperties struct {
	Position DirectivePosition
	Path     []string
}

type NestedProperties struct {
	Position DirectivePosition
	Data     Properties
	Path     []string
}

type SetSelectedComponent struct {
	Position ElementPosition
}

type UpdateRouterTree struct {
	Routes []Route
}

type UpdateState struct {
	Value UpdatedStateData
}

// SendProfilerChunk carries one frame while recording.
type SendProfilerChunk struct {
	Frame ProfilerFrame
}

// ProfilerResults carries a frame flushed after recording stopped.
type ProfilerResults struct {
	Frame ProfilerFrame
}

type CreateHighlightOverlay struct {
	Position ElementPosition
}

type HighlightComponent struct {
	ID int
}

type SelectComponent struct {
	ID int
}

type GetInjectorProviders struct {
	Injector SerializedInjector
}

type LatestInjectorProviders struct {
	Injector  SerializedInjector
	Providers []SerializedProviderRecord
}

func (Handshake) Topic() Topic                      { return TopicHandshake }
func (Shutdown) Topic() Topic                       { return TopicShutdown }
func (QueryNgAvailability) Topic() Topic            { return TopicQueryNgAvailability }
func (NgAvailabilityMessage) Topic() Topic          { return TopicNgAvailability }
func (InspectorStart) Topic() Topic                 { return TopicInspectorStart }
func (InspectorEnd) Topic() Topic                   { return TopicInspectorEnd }
func (GetNestedProperties) Topic() Topic            { return TopicGetNestedProperties }
func (NestedProperties) Topic() Topic               { return TopicNestedProperties }
func (SetSelectedComponent) Topic() Topic           { return TopicSetSelectedComponent }
func (GetRoutes) Topic() Topic                      { return TopicGetRoutes }
func (UpdateRouterTree) Topic() Topic               { return TopicUpdateRouterTree }
func (ComponentTreeDirty) Topic() Topic             { return TopicComponentTreeDirty }
func (GetLatestComponentExplorerView) Topic() Topic { return TopicGetLatestComponentExplorerView }
func (LatestComponentExplorerView) Topic() Topic    { return TopicLatestComponentExplorerView }
func (UpdateState) Topic() Topic                    { return TopicUpdateState }
func (StartProfiling) Topic() Topic                 { return TopicStartProfiling }
func (StopProfiling) Topic() Topic                  { return TopicStopProfiling }
func (SendProfilerChunk) Topic() Topic              { return TopicSendProfilerChunk }
func (ProfilerResults) Topic() Topic                { return TopicProfilerResults }
func (CreateHighlightOverlay) Topic() Topic         { return TopicCreateHighlightOverlay }
func (RemoveHighlightOverlay) Topic() Topic         { return TopicRemoveHighlightOverlay }
func (HighlightComponent) Topic() Topic             { return TopicHighlightComponent }
func (SelectComponent) Topic() Topic                { return TopicSelectComponent }
func (RemoveComponentHighlight) Topic() Topic       { return TopicRemoveComponentHighlight }
func (EnableTimingAPI) Topic() Topic                { return TopicEnableTimingAPI }
func (DisableTimingAPI) Topic() Topic               { return TopicDisableTimingAPI }
func (GetInjectorProviders) Topic() Topic           { return TopicGetInjectorProviders }
func (LatestInjectorProviders) Topic() Topic        { return TopicLatestInjectorProviders }

func (Handshake) args() []any                { return nil }
func (Shutdown) args() []any                 { return nil }
func (QueryNgAvailability) args() []any      { return nil }
func (m NgAvailabilityMessage) args() []any  { return []any{m.Availability} }
func (InspectorStart) args() []any           { return nil }
func (InspectorEnd) args() []any             { return nil }
func (m GetNestedProperties) args() []any    { return []any{m.Position, nonNilPath(m.Path)} }
func (m NestedProperties) args() []any       { return []any{m.Position, m.Data, nonNilPath(m.Path)} }
func (m SetSelectedComponent) args() []any   { return []any{nonNilPosition(m.Position)} }
func (GetRoutes) args() []any                { return nil }
func (m UpdateRouterTree) args() []any       { return []any{nonNilRoutes(m.Routes)} }
func (ComponentTreeDirty) args() []any       { return nil }
func (m UpdateState) args() []any            { return []any{m.Value} }
func (StartProfiling) args() []any           { return nil }
func (StopProfiling) args() []any            { return nil }
func (m SendProfilerChunk) args() []any      { return []any{m.Frame} }
func (m ProfilerResults) args() []any        { return []any{m.Frame} }
func (m CreateHighlightOverlay) args() []any { return []any{nonNilPosition(m.Position)} }
func (RemoveHighlightOverlay) args() []any   { return nil }
func (m HighlightComponent) args() []any     { return []any{m.ID} }
func (m SelectComponent) args() []any        { return []any{m.ID} }
func (RemoveComponentHighlight) args() []any { return nil }
func (EnableTimingAPI) args() []any          { return nil }
func (DisableTimingAPI) args() []any         { return nil }
func (m GetInjectorProviders) args() []any   { return []any{m.Injector} }

func (m LatestInjectorProviders) args() []any {
	providers := m.Providers
	if providers == nil {
		providers = []SerializedProviderRecord{}
	}
	return []any{m.Injector, providers}
}

func (m LatestComponentExplorerView) args() []any { return []any{m.View} }

func (m GetLatestComponentExplorerView) args() []any {
	if m.Query == nil {
		return nil
	}
	return []any{m.Query}
}

func nonNilPath(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

func nonNilPosition(p ElementPosition) ElementPosition {
	if p == nil {
		return ElementPosition{}
	}
	return p
}

func nonNilRoutes(r []Route) []Route {
	if r == nil {
		return []Route{}
	}
	return r
}

func validatePosition(p ElementPosition) error {
	for _, idx := range p {
		if idx < 0 {
			return fmt.Errorf("negative index in element position [%s]", p)
		}
	}
	return nil
}

func validateDirectivePosition(p DirectivePosition) error {
	if err := validatePosition(p.Element); err != nil {
		return err
	}
	if p.Directive != nil && *p.Directive < 0 {
		return fmt.Errorf("negative directive index %d", *p.Directive)
	}
	return nil
}

func (m GetLatestComponentExplorerView) validate() error {
	if m.Query == nil {
		return nil
	}
	if err := validatePosition(m.Query.SelectedElement); err != nil {
		return err
	}
	switch m.Query.PropertyQuery.Type {
	case PropertyQueryAll, PropertyQuerySpecified:
		return nil
	}
	return fmt.Errorf("unknown property query type %d", m.Query.PropertyQuery.Type)
}

func (m GetNestedProperties) validate() error    { return validateDirectivePosition(m.Position) }
func (m SetSelectedComponent) validate() error   { return validatePosition(m.Position) }
func (m CreateHighlightOverlay) validate() error { return validatePosition(m.Position) }
func (m UpdateState) validate() error {
	if err := validateDirectivePosition(m.Value.DirectiveID); err != nil {
		return err
	}
	if len(m.Value.KeyPath) == 0 {
		return fmt.Errorf("empty key path")
	}
	return nil
}

func (m SendProfilerChunk) validate() error { return validateFrame(m.Frame) }
func (m ProfilerResults) validate() error   { return validateFrame(m.Frame) }

func validateFrame(f ProfilerFrame) error {
	if f.Duration < 0 {
		return fmt.Errorf("negative frame duration %v", f.Duration)
	}
	return nil
}

func (m NestedProperties) validate() error {
	if err := validateDirectivePosition(m.Position); err != nil {
		return err
	}
	for name, d := range m.Data.Props {
		if !d.Type.Valid() {
			return fmt.Errorf("property %q has unknown type %d", name, int(d.Type))
		}
	}
	return nil
}

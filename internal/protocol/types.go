// Package protocol defines the data contracts exchanged between an
// inspection agent embedded in a running application and an external
// inspector panel: the component forest, property descriptors, profiler
// frames, router and injector views, and the closed topic catalogue that
// carries them.
//
// Every value here is a snapshot. Nothing is mutated after it has been
// handed to an endpoint; a newer snapshot replaces an older one wholesale.
package protocol

import (
	"strconv"
	"strings"
)

// DirectiveType identifies one directive attached to an element.
type DirectiveType struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// ComponentType identifies the component hosted by an element.
type ComponentType struct {
	Name      string `json:"name"`
	IsElement bool   `json:"isElement"`
	ID        int    `json:"id"`
}

// DevToolsNode is one element of the component forest. Children are in
// render order.
type DevToolsNode struct {
	Element        string               `json:"element"`
	Directives     []DirectiveType      `json:"directives"`
	Component      *ComponentType       `json:"component"`
	Children       []DevToolsNode       `json:"children"`
	ResolutionPath []SerializedInjector `json:"resolutionPath,omitempty"`
}

// ElementPosition is the child index path from a forest root to a node.
// It is only meaningful for the snapshot generation it was taken from.
type ElementPosition []int

// String renders the position as dotted indexes ("0.2.1").
func (p ElementPosition) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether two positions address the same node.
func (p ElementPosition) Equal(other ElementPosition) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Child returns a new position one level below p.
func (p ElementPosition) Child(index int) ElementPosition {
	out := make(ElementPosition, len(p), len(p)+1)
	copy(out, p)
	return append(out, index)
}

// ParseElementPosition parses "0.2.1" or "0,2,1" into a position.
func ParseElementPosition(s string) (ElementPosition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ElementPosition{}, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' || r == '/' })
	pos := make(ElementPosition, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return nil, &MalformedMessageError{Reason: "invalid element position " + strconv.Quote(s)}
		}
		pos = append(pos, n)
	}
	return pos, nil
}

// DirectivePosition addresses one directive on an element. A nil
// Directive means the element's component (or the element itself).
type DirectivePosition struct {
	Element   ElementPosition `json:"element"`
	Directive *int            `json:"directive,omitempty"`
}

// DirectiveIndex returns a DirectivePosition pointing at directive i of el.
func DirectiveIndex(el ElementPosition, i int) DirectivePosition {
	return DirectivePosition{Element: el, Directive: &i}
}

// ViewEncapsulation mirrors the component style scoping modes.
type ViewEncapsulation int

const (
	EncapsulationEmulated ViewEncapsulation = iota
	EncapsulationNone
	EncapsulationShadowDom
)

// InjectFlags are the resolution modifiers of one injected dependency.
type InjectFlags struct {
	Optional bool `json:"optional,omitempty"`
	Self     bool `json:"self,omitempty"`
	SkipSelf bool `json:"skipSelf,omitempty"`
	Host     bool `json:"host,omitempty"`
}

// SerializedInjectedService describes one constructor dependency of a
// directive and where it was resolved from.
type SerializedInjectedService struct {
	Token          string               `json:"token"`
	Value          string               `json:"value"`
	Position       []int                `json:"position"`
	Flags          *InjectFlags         `json:"flags,omitempty"`
	ResolutionPath []SerializedInjector `json:"resolutionPath,omitempty"`
}

// DirectiveMetadata is static information about a directive class.
type DirectiveMetadata struct {
	Inputs        map[string]string           `json:"inputs"`
	Outputs       map[string]string           `json:"outputs"`
	Encapsulation ViewEncapsulation           `json:"encapsulation"`
	OnPush        bool                        `json:"onPush"`
	Dependencies  []SerializedInjectedService `json:"dependencies,omitempty"`
}

// Properties are the serialized properties of one directive.
type Properties struct {
	Props    map[string]Descriptor `json:"props"`
	Metadata *DirectiveMetadata    `json:"metadata,omitempty"`
}

// DirectivesProperties maps directive name to its properties.
type DirectivesProperties map[string]Properties

// NestedProp is a sparse tree of property paths the panel wants expanded.
// Array indexes are sent as decimal strings.
type NestedProp struct {
	Name     string       `json:"name"`
	Children []NestedProp `json:"children"`
}

// ComponentExplorerViewProperties maps directive name to the property
// paths requested for it.
type ComponentExplorerViewProperties map[string][]NestedProp

// PropertyQueryType selects how much of the selected node is serialized.
type PropertyQueryType int

const (
	PropertyQueryAll PropertyQueryType = iota
	PropertyQuerySpecified
)

// PropertyQuery is either {type: All} or {type: Specified, properties}.
type PropertyQuery struct {
	Type       PropertyQueryType               `json:"type"`
	Properties ComponentExplorerViewProperties `json:"properties,omitempty"`
}

// AllProperties returns an All query.
func AllProperties() PropertyQuery {
	return PropertyQuery{Type: PropertyQueryAll}
}

// SpecifiedProperties returns a Specified query for the given paths.
func SpecifiedProperties(props ComponentExplorerViewProperties) PropertyQuery {
	if props == nil {
		props = ComponentExplorerViewProperties{}
	}
	return PropertyQuery{Type: PropertyQuerySpecified, Properties: props}
}

// ComponentExplorerViewQuery selects a node and the properties to return.
type ComponentExplorerViewQuery struct {
	SelectedElement ElementPosition `json:"selectedElement"`
	PropertyQuery   PropertyQuery   `json:"propertyQuery"`
}

// ComponentExplorerView is the forest plus the selected node's properties.
type ComponentExplorerView struct {
	Forest     []DevToolsNode       `json:"forest"`
	Properties DirectivesProperties `json:"properties,omitempty"`
}

// LifecycleHook names one lifecycle callback.
type LifecycleHook string

const (
	HookOnInit              LifecycleHook = "ngOnInit"
	HookOnDestroy           LifecycleHook = "ngOnDestroy"
	HookOnChanges           LifecycleHook = "ngOnChanges"
	HookDoCheck             LifecycleHook = "ngDoCheck"
	HookAfterContentInit    LifecycleHook = "ngAfterContentInit"
	HookAfterContentChecked LifecycleHook = "ngAfterContentChecked"
	HookAfterViewInit       LifecycleHook = "ngAfterViewInit"
	HookAfterViewChecked    LifecycleHook = "ngAfterViewChecked"
)

// LifecycleProfile holds the time (ms) spent in each hook during a frame.
// Hooks that did not run are nil.
type LifecycleProfile struct {
	OnInit              *float64 `json:"ngOnInit,omitempty"`
	OnDestroy           *float64 `json:"ngOnDestroy,omitempty"`
	OnChanges           *float64 `json:"ngOnChanges,omitempty"`
	DoCheck             *float64 `json:"ngDoCheck,omitempty"`
	AfterContentInit    *float64 `json:"ngAfterContentInit,omitempty"`
	AfterContentChecked *float64 `json:"ngAfterContentChecked,omitempty"`
	AfterViewInit       *float64 `json:"ngAfterViewInit,omitempty"`
	AfterViewChecked    *float64 `json:"ngAfterViewChecked,omitempty"`
}

// Slot returns the field backing hook, or nil for an unknown hook.
func (l *LifecycleProfile) Slot(hook LifecycleHook) **float64 {
	switch hook {
	case HookOnInit:
		return &l.OnInit
	case HookOnDestroy:
		return &l.OnDestroy
	case HookOnChanges:
		return &l.OnChanges
	case HookDoCheck:
		return &l.DoCheck
	case HookAfterContentInit:
		return &l.AfterContentInit
	case HookAfterContentChecked:
		return &l.AfterContentChecked
	case HookAfterViewInit:
		return &l.AfterViewInit
	case HookAfterViewChecked:
		return &l.AfterViewChecked
	}
	return nil
}

// Total sums every recorded hook.
func (l LifecycleProfile) Total() float64 {
	var sum float64
	for _, v := range []*float64{l.OnInit, l.OnDestroy, l.OnChanges, l.DoCheck,
		l.AfterContentInit, l.AfterContentChecked, l.AfterViewInit, l.AfterViewChecked} {
		if v != nil {
			sum += *v
		}
	}
	return sum
}

// OutputProfile counts how often each output fired during a frame.
type OutputProfile map[string]float64

// DirectiveProfile is the per-frame timing of one directive instance.
type DirectiveProfile struct {
	Name            string           `json:"name"`
	IsElement       bool             `json:"isElement"`
	IsComponent     bool             `json:"isComponent"`
	Lifecycle       LifecycleProfile `json:"lifecycle"`
	Outputs         OutputProfile    `json:"outputs"`
	ChangeDetection *float64         `json:"changeDetection,omitempty"`
}

// ElementProfile mirrors one node of the component tree for a frame.
type ElementProfile struct {
	Directives []DirectiveProfile `json:"directives"`
	Children   []ElementProfile   `json:"children"`
}

// ProfilerFrame is one completed render pass.
type ProfilerFrame struct {
	Source     string           `json:"source"`
	Duration   float64          `json:"duration"`
	Directives []ElementProfile `json:"directives"`
}

// UpdatedStateData asks the agent to assign a new value to a property.
type UpdatedStateData struct {
	DirectiveID DirectivePosition `json:"directiveId"`
	KeyPath     []string          `json:"keyPath"`
	NewValue    any               `json:"newValue"`
}

// Route is one node of the router configuration tree.
type Route struct {
	Name        string  `json:"name"`
	Hash        *string `json:"hash"`
	Path        string  `json:"path"`
	Specificity *string `json:"specificity"`
	Handler     string  `json:"handler"`
	Data        any     `json:"data"`
	Children    []Route `json:"children,omitempty"`
	IsAux       bool    `json:"isAux"`
}

// SerializedInjector is one injector in the dependency hierarchy.
type SerializedInjector struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Type string        `json:"type"`
	Node *DevToolsNode `json:"node,omitempty"`
}

// ProviderKind is how a provider record produces its value.
type ProviderKind string

const (
	ProviderType     ProviderKind = "type"
	ProviderExisting ProviderKind = "existing"
	ProviderClass    ProviderKind = "class"
	ProviderValue    ProviderKind = "value"
	ProviderFactory  ProviderKind = "factory"
)

// SerializedProviderRecord is one provider configured on an injector.
type SerializedProviderRecord struct {
	Token          string       `json:"token"`
	Type           ProviderKind `json:"type"`
	Multi          bool         `json:"multi"`
	IsViewProvider bool         `json:"isViewProvider"`
}

// NgAvailability reports whether the inspected application can be
// instrumented. Version is a string, false when unknown, or absent.
type NgAvailability struct {
	Version any  `json:"version,omitempty"`
	DevMode bool `json:"devMode"`
	Ivy     bool `json:"ivy"`
}

// InjectorGraphViewQuery asks for the resolution path of one dependency.
type InjectorGraphViewQuery struct {
	DirectivePosition DirectivePosition `json:"directivePosition"`
	ParamIndex        int               `json:"paramIndex"`
}

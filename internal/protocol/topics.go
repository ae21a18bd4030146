package protocol

import "sort"

// Topic is a named message kind in the closed catalogue.
type Topic string

const (
	TopicHandshake                      Topic = "handshake"
	TopicShutdown                       Topic = "shutdown"
	TopicQueryNgAvailability            Topic = "queryNgAvailability"
	TopicNgAvailability                 Topic = "ngAvailability"
	TopicInspectorStart                 Topic = "inspectorStart"
	TopicInspectorEnd                   Topic = "inspectorEnd"
	TopicGetNestedProperties            Topic = "getNestedProperties"
	TopicNestedProperties               Topic = "nestedProperties"
	TopicSetSelectedComponent           Topic = "setSelectedComponent"
	TopicGetRoutes                      Topic = "getRoutes"
	TopicUpdateRouterTree               Topic = "updateRouterTree"
	TopicComponentTreeDirty             Topic = "componentTreeDirty"
	TopicGetLatestComponentExplorerView Topic = "getLatestComponentExplorerView"
	TopicLatestComponentExplorerView    Topic = "latestComponentExplorerView"
	TopicUpdateState                    Topic = "updateState"
	TopicStartProfiling                 Topic = "startProfiling"
	TopicStopProfiling                  Topic = "stopProfiling"
	TopicSendProfilerChunk              Topic = "sendProfilerChunk"
	TopicProfilerResults                Topic = "profilerResults"
	TopicCreateHighlightOverlay         Topic = "createHighlightOverlay"
	TopicRemoveHighlightOverlay         Topic = "removeHighlightOverlay"
	TopicHighlightComponent             Topic = "highlightComponent"
	TopicSelectComponent                Topic = "selectComponent"
	TopicRemoveComponentHighlight       Topic = "removeComponentHighlight"
	TopicEnableTimingAPI                Topic = "enableTimingAPI"
	TopicDisableTimingAPI               Topic = "disableTimingAPI"
	TopicGetInjectorProviders           Topic = "getInjectorProviders"
	TopicLatestInjectorProviders        Topic = "latestInjectorProviders"
)

// Side is one end of a connection.
type Side int

const (
	SideAgent Side = iota
	SidePanel
)

func (s Side) String() string {
	if s == SideAgent {
		return "agent"
	}
	return "panel"
}

// Peer returns the opposite side.
func (s Side) Peer() Side {
	if s == SideAgent {
		return SidePanel
	}
	return SideAgent
}

// Direction is the set of sides allowed to send a topic.
type Direction uint8

const (
	AgentToPanel Direction = 1 << iota
	PanelToAgent
	EitherWay = AgentToPanel | PanelToAgent
)

// AllowsSender reports whether side may send a topic with direction d.
func (d Direction) AllowsSender(side Side) bool {
	if side == SideAgent {
		return d&AgentToPanel != 0
	}
	return d&PanelToAgent != 0
}

// Pairs maps each request topic to the response topic that answers it.
// The protocol carries no correlation id.
var Pairs = map[Topic]Topic{
	TopicQueryNgAvailability:            TopicNgAvailability,
	TopicGetLatestComponentExplorerView: TopicLatestComponentExplorerView,
	TopicGetNestedProperties:            TopicNestedProperties,
	TopicGetRoutes:                      TopicUpdateRouterTree,
	TopicGetInjectorProviders:           TopicLatestInjectorProviders,
}

// Known reports whether topic belongs to the catalogue.
func Known(topic Topic) bool {
	_, ok := catalogue[topic]
	return ok
}

// DirectionOf returns the allowed senders of topic.
func DirectionOf(topic Topic) (Direction, bool) {
	spec, ok := catalogue[topic]
	return spec.direction, ok
}

// Arity returns the minimum and maximum argument count of topic.
func Arity(topic Topic) (min, max int, ok bool) {
	spec, ok := catalogue[topic]
	return spec.minArgs, spec.maxArgs, ok
}

// Topics lists the catalogue in name order.
func Topics() []Topic {
	out := make([]Topic, 0, len(catalogue))
	for t := range catalogue {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

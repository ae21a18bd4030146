package protocol

type decodeFunc func(args [][]byte, unmarshal func([]byte, any) error) (Message, error)

type topicSpec struct {
	direction Direction
	minArgs   int
	maxArgs   int
	decode    decodeFunc
}

// catalogue is the closed dispatch table: one entry per topic with its
// allowed senders, arity, and payload decoder.
var catalogue = map[Topic]topicSpec{
	TopicHandshake:           noArgs(AgentToPanel, Handshake{}),
	TopicShutdown:            noArgs(EitherWay, Shutdown{}),
	TopicQueryNgAvailability: noArgs(PanelToAgent, QueryNgAvailability{}),
	TopicNgAvailability: oneArg(AgentToPanel, func(v NgAvailability) Message {
		return NgAvailabilityMessage{Availability: v}
	}),
	TopicInspectorStart: noArgs(PanelToAgent, InspectorStart{}),
	TopicInspectorEnd:   noArgs(PanelToAgent, InspectorEnd{}),
	TopicGetNestedProperties: {
		direction: PanelToAgent, minArgs: 2, maxArgs: 2,
		decode: func(args [][]byte, unmarshal func([]byte, any) error) (Message, error) {
			var m GetNestedProperties
			if err := unmarshal(args[0], &m.Position); err != nil {
				return nil, err
			}
			if err := unmarshal(args[1], &m.Path); err != nil {
				return nil, err
			}
			return m, nil
		},
	},
	TopicNestedProperties: {
		direction: AgentToPanel, minArgs: 3, maxArgs: 3,
		decode: func(args [][]byte, unmarshal func([]byte, any) error) (Message, error) {
			var m NestedProperties
			if err := unmarshal(args[0], &m.Position); err != nil {
				return nil, err
			}
			if err := unmarshal(args[1], &m.Data); err != nil {
				return nil, err
			}
			if err := unmarshal(args[2], &m.Path); err != nil {
				return nil, err
			}
			return m, nil
		},
	},
	TopicSetSelectedComponent: oneArg(PanelToAgent, func(v ElementPosition) Message {
		return SetSelectedComponent{Position: v}
	}),
	TopicGetRoutes: noArgs(PanelToAgent, GetRoutes{}),
	TopicUpdateRouterTree: oneArg(AgentToPanel, func(v []Route) Message {
		return UpdateRouterTree{Routes: v}
	}),
	TopicComponentTreeDirty: noArgs(AgentToPanel, ComponentTreeDirty{}),
	TopicGetLatestComponentExplorerView: {
		direction: PanelToAgent, minArgs: 0, maxArgs: 1,
		decode: func(args [][]byte, unmarshal func([]byte, any) error) (Message, error) {
			if len(args) == 0 || isNullEncoding(args[0]) {
				return GetLatestComponentExplorerView{}, nil
			}
			var q ComponentExplorerViewQuery
			if err := unmarshal(args[0], &q); err != nil {
				return nil, err
			}
			return GetLatestComponentExplorerView{Query: &q}, nil
		},
	},
	TopicLatestComponentExplorerView: oneArg(AgentToPanel, func(v ComponentExplorerView) Message {
		return LatestComponentExplorerView{View: v}
	}),
	TopicUpdateState: oneArg(PanelToAgent, func(v UpdatedStateData) Message {
		return UpdateState{Value: v}
	}),
	TopicStartProfiling: noArgs(PanelToAgent, StartProfiling{}),
	TopicStopProfiling:  noArgs(PanelToAgent, StopProfiling{}),
	TopicSendProfilerChunk: oneArg(AgentToPanel, func(v ProfilerFrame) Message {
		return SendProfilerChunk{Frame: v}
	}),
	TopicProfilerResults: oneArg(AgentToPanel, func(v ProfilerFrame) Message {
		return ProfilerResults{Frame: v}
	}),
	TopicCreateHighlightOverlay: oneArg(PanelToAgent, func(v ElementPosition) Message {
		return CreateHighlightOverlay{Position: v}
	}),
	TopicRemoveHighlightOverlay: noArgs(PanelToAgent, RemoveHighlightOverlay{}),
	TopicHighlightComponent: oneArg(EitherWay, func(v int) Message {
		return HighlightComponent{ID: v}
	}),
	TopicSelectComponent: oneArg(EitherWay, func(v int) Message {
		return SelectComponent{ID: v}
	}),
	TopicRemoveComponentHighlight: noArgs(EitherWay, RemoveComponentHighlight{}),
	TopicEnableTimingAPI:          noArgs(PanelToAgent, EnableTimingAPI{}),
	TopicDisableTimingAPI:         noArgs(PanelToAgent, DisableTimingAPI{}),
	TopicGetInjectorProviders: oneArg(PanelToAgent, func(v SerializedInjector) Message {
		return GetInjectorProviders{Injector: v}
	}),
	TopicLatestInjectorProviders: {
		direction: AgentToPanel, minArgs: 2, maxArgs: 2,
		decode: func(args [][]byte, unmarshal func([]byte, any) error) (Message, error) {
			var m LatestInjectorProviders
			if err := unmarshal(args[0], &m.Injector); err != nil {
				return nil, err
			}
			if err := unmarshal(args[1], &m.Providers); err != nil {
				return nil, err
			}
			return m, nil
		},
	},
}

func noArgs(dir Direction, m Message) topicSpec {
	return topicSpec{
		direction: dir,
		decode: func([][]byte, func([]byte, any) error) (Message, error) {
			return m, nil
		},
	}
}

func oneArg[T any](dir Direction, build func(T) Message) topicSpec {
	return topicSpec{
		direction: dir,
		minArgs:   1,
		maxArgs:   1,
		decode: func(args [][]byte, unmarshal func([]byte, any) error) (Message, error) {
			var v T
			if err := unmarshal(args[0], &v); err != nil {
				return nil, err
			}
			return build(v), nil
		},
	}
}

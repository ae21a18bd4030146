package profiler

import (
	"sort"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// DirectiveStat summarises one directive across recorded frames.
type DirectiveStat struct {
	Name            string  `json:"name" yaml:"name"`
	IsComponent     bool    `json:"isComponent" yaml:"isComponent"`
	Frames          int     `json:"frames" yaml:"frames"`
	ChangeDetection float64 `json:"changeDetection" yaml:"changeDetection"`
	Lifecycle       float64 `json:"lifecycle" yaml:"lifecycle"`
	Total           float64 `json:"total" yaml:"total"`
	Outputs         float64 `json:"outputs" yaml:"outputs"`
}

// Summary is the aggregate of a recording.
type Summary struct {
	Frames     int             `json:"frames" yaml:"frames"`
	Duration   float64         `json:"duration" yaml:"duration"`
	Sources    map[string]int  `json:"sources" yaml:"sources"`
	Directives []DirectiveStat `json:"directives" yaml:"directives"`
}

// Aggregate sums per-directive time over frames. Directives are grouped by
// name and sorted by total time, busiest first.
func Aggregate(frames []protocol.ProfilerFrame) Summary {
	sum := Summary{Sources: map[string]int{}, Directives: []DirectiveStat{}}
	byName := map[string]*DirectiveStat{}
	var order []string

	for _, f := range frames {
		sum.Frames++
		sum.Duration += f.Duration
		sum.Sources[f.Source]++

		seen := map[string]bool{}
		var walk func([]protocol.ElementProfile)
		walk = func(els []protocol.ElementProfile) {
			for _, el := range els {
				for _, d := range el.Directives {
					st, ok := byName[d.Name]
					if !ok {
						st = &DirectiveStat{Name: d.Name}
						byName[d.Name] = st
						order = append(order, d.Name)
					}
					st.IsComponent = st.IsComponent || d.IsComponent
					if !seen[d.Name] {
						seen[d.Name] = true
						st.Frames++
					}
					if d.ChangeDetection != nil {
						st.ChangeDetection += *d.ChangeDetection
					}
					st.Lifecycle += d.Lifecycle.Total()
					for _, n := range d.Outputs {
						st.Outputs += n
					}
				}
				walk(el.Children)
			}
		}
		walk(f.Directives)
	}

	for _, name := range order {
		st := byName[name]
		st.Total = st.ChangeDetection + st.Lifecycle
		sum.Directives = append(sum.Directives, *st)
	}
	sort.SliceStable(sum.Directives, func(i, j int) bool {
		return sum.Directives[i].Total > sum.Directives[j].Total
	})
	return sum
}

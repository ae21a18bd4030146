// Package tree snapshots the live component tree into immutable
// DevToolsNode forests and answers position-based queries against the
// most recent snapshot.
package tree

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/metrics"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/serializer"
)

// ErrorElement is the element name of a node that failed to read.
const ErrorElement = "#error"

// DefaultChunkSize is the number of elements visited per scheduler slice.
const DefaultChunkSize = 256

// Entry is one element of a snapshot together with the live objects it
// was captured from. Entries are never modified after the snapshot is
// published.
type Entry struct {
	Position   protocol.ElementPosition
	Element    host.Element
	Tag        string
	Component  *host.Directive
	Directives []*host.Directive
	// ComponentID is -1 when the element hosts no component.
	ComponentID  int
	DirectiveIDs []int
	Children     []*Entry
	// Err is set on placeholder entries for elements that failed to read.
	Err error
}

// Snapshot is an immutable capture of the component tree.
type Snapshot struct {
	Generation uint64
	Forest     []protocol.DevToolsNode
	Roots      []*Entry

	byID     map[int]idTarget
	byNative map[host.NativeElement]*Entry
	count    int
}

type idTarget struct {
	entry     *Entry
	directive *host.Directive
}

// Len returns the number of elements in the snapshot.
func (s *Snapshot) Len() int { return s.count }

// Config configures a Snapshotter.
type Config struct {
	// Scheduler runs tree reads on the application's execution context.
	// Defaults to host.Inline.
	Scheduler host.Scheduler
	// ChunkSize bounds the elements read per scheduler slice.
	ChunkSize  int
	Serializer *serializer.Serializer
	Logger     *zerolog.Logger
}

// Snapshotter produces generation-counted snapshots of a live tree.
type Snapshotter struct {
	tree  host.Tree
	sched host.Scheduler
	chunk int
	ser   *serializer.Serializer
	log   zerolog.Logger

	// walkMu serializes walks. It is never held by MarkDirty, which may
	// be called from the application's own execution context.
	walkMu sync.Mutex
	ids    map[any]int
	nextID int

	mu         sync.Mutex
	current    *Snapshot
	generation uint64
	// invalidations counts MarkDirty calls; cleanAt is the count the
	// current snapshot was started at.
	invalidations uint64
	cleanAt       uint64
}

// New returns a Snapshotter over t.
func New(t host.Tree, cfg Config) *Snapshotter {
	s := &Snapshotter{
		tree:  t,
		sched: cfg.Scheduler,
		chunk: cfg.ChunkSize,
		ser:   cfg.Serializer,
		log:   zerolog.Nop(),
		ids:   make(map[any]int),
	}
	if s.sched == nil {
		s.sched = host.Inline{}
	}
	if s.chunk <= 0 {
		s.chunk = DefaultChunkSize
	}
	if s.ser == nil {
		s.ser = serializer.New(serializer.DefaultOptions)
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "tree").Logger()
	}
	return s
}

// Scheduler returns the scheduler used for live reads.
func (s *Snapshotter) Scheduler() host.Scheduler { return s.sched }

// MarkDirty invalidates the current snapshot. The next Latest call walks
// the tree again.
func (s *Snapshotter) MarkDirty() {
	s.mu.Lock()
	s.invalidations++
	s.mu.Unlock()
}

// Current returns the last published snapshot, or nil.
func (s *Snapshotter) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Latest returns the current snapshot, taking a new one when none exists
// or the tree was marked dirty.
func (s *Snapshotter) Latest(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	cur, dirty := s.current, s.invalidations != s.cleanAt
	s.mu.Unlock()
	if cur != nil && !dirty {
		return cur, nil
	}
	return s.Snapshot(ctx)
}

type pending struct {
	el     host.Element
	parent *Entry
	pos    protocol.ElementPosition
}

// Snapshot walks the live tree depth-first in render order and publishes
// a new snapshot. Reads run on the scheduler in slices of at most
// ChunkSize elements so the application keeps rendering in between.
func (s *Snapshotter) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.walkMu.Lock()
	defer s.walkMu.Unlock()
	start := time.Now()

	s.mu.Lock()
	startedAt := s.invalidations
	s.mu.Unlock()

	var roots []host.Element
	if err := s.sched.Do(ctx, func() { roots = s.safeRoots() }); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	snap := &Snapshot{
		byID:     make(map[int]idTarget),
		byNative: make(map[host.NativeElement]*Entry),
	}
	live := make(map[any]int)
	stack := make([]pending, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{el: roots[i], pos: protocol.ElementPosition{i}})
	}

	for len(stack) > 0 {
		err := s.sched.Do(ctx, func() {
			for n := 0; n < s.chunk && len(stack) > 0; n++ {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				entry, kids := s.visit(p, snap, live)
				if p.parent == nil {
					snap.Roots = append(snap.Roots, entry)
				} else {
					p.parent.Children = append(p.parent.Children, entry)
				}
				for i := len(kids) - 1; i >= 0; i-- {
					stack = append(stack, pending{el: kids[i], parent: entry, pos: p.pos.Child(i)})
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	s.ids = live
	snap.Forest = forestOf(snap.Roots)

	s.mu.Lock()
	s.generation++
	snap.Generation = s.generation
	s.current = snap
	s.cleanAt = startedAt
	s.mu.Unlock()

	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	metrics.SnapshotNodes.Set(float64(snap.count))
	s.log.Debug().Uint64("generation", snap.Generation).Int("nodes", snap.count).Msg("snapshot taken")
	return snap, nil
}

func (s *Snapshotter) safeRoots() (roots []host.Element) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Interface("panic", r).Msg("reading tree roots failed")
			roots = nil
		}
	}()
	return s.tree.Roots()
}

// visit captures one element. A panic while reading it is isolated into
// a placeholder entry without children.
func (s *Snapshotter) visit(p pending, snap *Snapshot, live map[any]int) (entry *Entry, kids []host.Element) {
	entry = &Entry{Position: p.pos, Element: p.el, ComponentID: -1}
	var assigned []int
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Str("position", p.pos.String()).Interface("panic", r).Msg("isolated unreadable element")
			for _, id := range assigned {
				delete(snap.byID, id)
			}
			*entry = Entry{Position: p.pos, Tag: ErrorElement, ComponentID: -1, Err: fmt.Errorf("read element: %v", r)}
			kids = nil
		}
		snap.count++
	}()

	entry.Tag = p.el.Tag()
	if c := p.el.Component(); c != nil {
		entry.Component = c
		entry.ComponentID = s.idFor(c, live)
		assigned = append(assigned, entry.ComponentID)
		snap.byID[entry.ComponentID] = idTarget{entry: entry, directive: c}
	}
	for _, d := range p.el.Directives() {
		if d == nil {
			continue
		}
		id := s.idFor(d, live)
		assigned = append(assigned, id)
		entry.Directives = append(entry.Directives, d)
		entry.DirectiveIDs = append(entry.DirectiveIDs, id)
		snap.byID[id] = idTarget{entry: entry, directive: d}
	}
	native := p.el.Native()
	kids = p.el.Children()
	if native != nil && reflect.TypeOf(native).Comparable() {
		snap.byNative[native] = entry
	}
	return entry, kids
}

// idFor keeps an instance's id across snapshots while it stays in the
// tree. The same instance appearing twice in one tree gets a second id.
func (s *Snapshotter) idFor(d *host.Directive, live map[any]int) int {
	key := identityKey(d)
	_, dup := live[key]
	if !dup {
		if id, ok := s.ids[key]; ok {
			live[key] = id
			return id
		}
	}
	id := s.nextID
	s.nextID++
	if !dup {
		live[key] = id
	}
	return id
}

// identityKey is the instance pointer when there is one, else the
// directive record itself.
func identityKey(d *host.Directive) any {
	if d.Instance == nil {
		return d
	}
	v := reflect.ValueOf(d.Instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer:
		if v.IsNil() {
			return d
		}
		return d.Instance
	}
	return d
}

func forestOf(entries []*Entry) []protocol.DevToolsNode {
	out := make([]protocol.DevToolsNode, len(entries))
	for i, e := range entries {
		out[i] = nodeOf(e)
	}
	return out
}

func nodeOf(e *Entry) protocol.DevToolsNode {
	node := protocol.DevToolsNode{
		Element:    e.Tag,
		Directives: make([]protocol.DirectiveType, len(e.Directives)),
		Children:   forestOf(e.Children),
	}
	for i, d := range e.Directives {
		node.Directives[i] = protocol.DirectiveType{Name: d.Name, ID: e.DirectiveIDs[i]}
	}
	if e.Component != nil {
		node.Component = &protocol.ComponentType{
			Name:      e.Component.Name,
			IsElement: e.Component.IsElement,
			ID:        e.ComponentID,
		}
	}
	return node
}

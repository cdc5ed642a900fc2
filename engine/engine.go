// Package engine provides the quest registry and the trigger state machine
// that wire condition evaluation, actions, the display surface and the
// message bus together.
//
// Nothing in this package is safe for concurrent use. A Registry, its quests,
// its bus and its display must be driven from a single loop.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/questtrigger/engine/bus"
	"github.com/nathoo/questtrigger/engine/display"
	"github.com/nathoo/questtrigger/engine/state"
	"github.com/nathoo/questtrigger/types"
)

// DefaultCapacity is the default size of the quest pool.
const DefaultCapacity = 10

var (
	// ErrRegistryFull is returned by Find when the pool is exhausted.
	ErrRegistryFull = errors.New("quest registry full")
	// ErrBadPayload is returned when a message delivered to a quest does not
	// carry a trigger name.
	ErrBadPayload = errors.New("message payload is not a trigger name")
)

// Bus is the slice of the entity framework the registry needs.
type Bus interface {
	Register(name string, h bus.Handler) (types.EntityID, error)
	Find(name string) (types.EntityID, bool)
	Send(msg types.Message)
	Dispatch() error
}

// Options configures a Registry. Zero values select defaults.
type Options struct {
	Capacity  int // quest pool size; DefaultCapacity when zero
	MaxReveal int // display reveal cap; display.DefaultMaxReveal when zero, no cap when negative
	Width     int // text box width handed to the presenter
	Presenter display.Presenter
	Logger    *slog.Logger
	// OnFire, when set, observes every FireTrigger result, including
	// firings caused by bus messages.
	OnFire func(types.Result)
}

// Registry owns every quest, the display surface, and the link to the bus.
type Registry struct {
	quests    []*Quest
	capacity  int
	bus       Bus
	display   *display.Teletype
	presenter display.Presenter
	log       *slog.Logger
	onFire    func(types.Result)
}

// New creates an empty registry bound to a bus.
func New(b Bus, opts Options) *Registry {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxReveal == 0 {
		opts.MaxReveal = display.DefaultMaxReveal
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		quests:    make([]*Quest, 0, opts.Capacity),
		capacity:  opts.Capacity,
		bus:       b,
		display:   display.New(opts.MaxReveal, opts.Width),
		presenter: opts.Presenter,
		log:       opts.Logger,
		onFire:    opts.OnFire,
	}
}

// Find returns the quest with the given name, creating an empty one if none
// exists. At most one quest per name ever exists.
func (r *Registry) Find(name string) (*Quest, error) {
	if q, ok := r.Lookup(name); ok {
		return q, nil
	}
	if len(r.quests) >= r.capacity {
		return nil, fmt.Errorf("creating quest %q: %w (capacity %d)", name, ErrRegistryFull, r.capacity)
	}
	q := &Quest{
		Name: name,
		vars: state.NewStore(name),
		reg:  r,
	}
	r.quests = append(r.quests, q)
	r.log.Debug("quest created", "quest", name)
	return q, nil
}

// Lookup returns an existing quest without creating one.
func (r *Registry) Lookup(name string) (*Quest, bool) {
	for _, q := range r.quests {
		if q.Name == name {
			return q, true
		}
	}
	return nil, false
}

// Quests returns the quests in creation order.
func (r *Registry) Quests() []*Quest {
	out := make([]*Quest, len(r.quests))
	copy(out, r.quests)
	return out
}

// Load builds quests from authored definitions and makes each addressable
// on the bus.
func (r *Registry) Load(defs []types.QuestDef) error {
	for _, def := range defs {
		q, err := r.Find(def.Name)
		if err != nil {
			return err
		}
		for _, v := range def.Variables {
			q.SetVariable(v.Name, v.Value)
		}
		for _, t := range def.Triggers {
			q.AddTrigger(t)
		}
		if err := q.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Variable reads a variable from a named quest. Unknown quests and
// variables are content errors.
func (r *Registry) Variable(quest, name string) (types.Value, error) {
	q, ok := r.Lookup(quest)
	if !ok {
		return types.Value{}, &state.ContentError{Quest: quest, Err: state.ErrUnknownQuest}
	}
	return q.GetVariable(name)
}

// Update advances the display surface by one reveal step. Call once per
// frame.
func (r *Registry) Update() {
	r.display.Update(r.presenter)
}

// Frame runs one host frame: a bus dispatch pass, then Update. The display
// still advances when dispatch fails.
func (r *Registry) Frame() error {
	err := r.bus.Dispatch()
	r.Update()
	return err
}

// Display exposes the display surface to hosts.
func (r *Registry) Display() *display.Teletype {
	return r.display
}

// env adapts the registry to effects.Env.
type env struct {
	r *Registry
}

func (e env) SetVariable(quest, name string, value types.Value) error {
	q, ok := e.r.Lookup(quest)
	if !ok {
		return &state.ContentError{Quest: quest, Variable: name, Err: state.ErrUnknownQuest}
	}
	q.SetVariable(name, value)
	return nil
}

func (e env) ShowMessage(text string) {
	e.r.display.Show(text)
}

func (e env) Send(msg types.Message) {
	e.r.bus.Send(msg)
}

func (e env) Resolve(name string) (types.EntityID, bool) {
	return e.r.bus.Find(name)
}

// Package bus is the in-process entity directory and message bus the quest
// engine talks to. Entities register a handler under a unique name; messages
// are queued by Send and delivered later by Dispatch.
//
// A Bus is not safe for concurrent use.
package bus

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nathoo/questtrigger/types"
)

var (
	// ErrDuplicateEntity is returned when a name is registered twice.
	ErrDuplicateEntity = errors.New("entity already registered")
	// ErrEmptyName is returned when registering an unnamed entity.
	ErrEmptyName = errors.New("entity name is empty")
)

// Handler receives messages addressed to an entity.
type Handler func(msg types.Message) error

// HandlerError wraps a handler failure with the message that caused it.
type HandlerError struct {
	ID     uuid.UUID
	Entity string
	Msg    types.Message
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("delivering %s to %q: %v", e.Msg.Type, e.Entity, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

type entity struct {
	name    string
	handler Handler
}

// envelope is a queued message plus its trace id.
type envelope struct {
	id  uuid.UUID
	msg types.Message
}

// Bus routes messages to registered entities by numeric id.
type Bus struct {
	log      *slog.Logger
	nextID   types.EntityID
	byName   map[string]types.EntityID
	entities map[types.EntityID]entity
	queue    []envelope
}

// New creates an empty bus. A nil logger discards logs.
func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		log:      log,
		byName:   map[string]types.EntityID{},
		entities: map[types.EntityID]entity{},
	}
}

// Register adds a named entity and returns its id. Ids start at 1.
func (b *Bus) Register(name string, h Handler) (types.EntityID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if _, ok := b.byName[name]; ok {
		return 0, fmt.Errorf("%q: %w", name, ErrDuplicateEntity)
	}
	b.nextID++
	id := b.nextID
	b.byName[name] = id
	b.entities[id] = entity{name: name, handler: h}
	b.log.Debug("entity registered", "entity", name, "id", id)
	return id, nil
}

// Find returns the id of a named entity.
func (b *Bus) Find(name string) (types.EntityID, bool) {
	id, ok := b.byName[name]
	return id, ok
}

// Name returns the name of an entity id.
func (b *Bus) Name(id types.EntityID) (string, bool) {
	e, ok := b.entities[id]
	return e.name, ok
}

// Send enqueues a message for the next Dispatch and returns immediately.
func (b *Bus) Send(msg types.Message) {
	env := envelope{id: uuid.New(), msg: msg}
	b.queue = append(b.queue, env)
	b.log.Debug("message queued", "trace_id", env.id, "type", msg.Type, "receiver", msg.Receiver)
}

// Pending returns the number of queued messages.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Dispatch delivers the messages queued before the call, in queue order.
// Messages sent while dispatching wait for the next call. Messages to
// unknown receivers are dropped. The first handler error stops the pass;
// messages not yet delivered stay queued ahead of any new ones.
func (b *Bus) Dispatch() error {
	batch := b.queue
	b.queue = nil

	for i, env := range batch {
		e, ok := b.entities[env.msg.Receiver]
		if !ok {
			b.log.Warn("message to unknown entity dropped",
				"trace_id", env.id, "type", env.msg.Type, "receiver", env.msg.Receiver)
			continue
		}

		b.log.Debug("delivering message", "trace_id", env.id, "type", env.msg.Type, "entity", e.name)
		if err := e.handler(env.msg); err != nil {
			rest := append([]envelope(nil), batch[i+1:]...)
			b.queue = append(rest, b.queue...)
			return &HandlerError{ID: env.id, Entity: e.name, Msg: env.msg, Err: err}
		}
	}

	return nil
}

// Package effects applies trigger actions. Every action type is one atomic
// operation; there is no rollback when a later action fails.
package effects

import (
	"errors"
	"fmt"

	"github.com/nathoo/questtrigger/types"
)

var (
	// ErrUnknownEntity is returned when a send_message target name does not
	// resolve to a registered entity.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownAction is returned for kinds outside the known set.
	ErrUnknownAction = errors.New("unknown action kind")
)

// Env is everything an action can touch.
type Env interface {
	// SetVariable writes through to the named quest's store. An unknown
	// quest is a content error.
	SetVariable(quest, name string, value types.Value) error
	// ShowMessage replaces the text on the display surface.
	ShowMessage(text string)
	// Send enqueues a message on the bus and returns immediately.
	Send(msg types.Message)
	// Resolve looks up an entity by name.
	Resolve(name string) (types.EntityID, bool)
}

// Apply performs actions in list order, stopping at the first failure.
// It returns the events emitted by the actions that completed.
func Apply(env Env, actions []types.Action) ([]types.Event, error) {
	var events []types.Event

	for i, act := range actions {
		switch act.Kind {
		case types.ActionSetVariable:
			if err := env.SetVariable(act.Quest, act.Variable, act.Value); err != nil {
				return events, fmt.Errorf("action %d: %w", i, err)
			}
			events = append(events, types.Event{
				Type: "variable_set",
				Data: map[string]any{"quest": act.Quest, "variable": act.Variable, "value": act.Value},
			})

		case types.ActionShowMessage:
			env.ShowMessage(act.Text)
			events = append(events, types.Event{
				Type: "message_shown",
				Data: map[string]any{"text": act.Text},
			})

		case types.ActionSendMessage:
			msg := act.Message
			if msg.Receiver == 0 && act.Target != "" {
				id, ok := env.Resolve(act.Target)
				if !ok {
					return events, fmt.Errorf("action %d: %q: %w", i, act.Target, ErrUnknownEntity)
				}
				msg.Receiver = id
			}
			env.Send(msg)
			events = append(events, types.Event{
				Type: "message_sent",
				Data: map[string]any{"type": msg.Type, "receiver": msg.Receiver, "payload": msg.Payload},
			})

		default:
			return events, fmt.Errorf("action %d: %q: %w", i, act.Kind, ErrUnknownAction)
		}
	}

	return events, nil
}

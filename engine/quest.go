package engine

import (
	"fmt"

	"github.com/nathoo/questtrigger/engine/effects"
	"github.com/nathoo/questtrigger/engine/rules"
	"github.com/nathoo/questtrigger/engine/state"
	"github.com/nathoo/questtrigger/types"
)

// Quest is a named bag of variables plus the triggers that read and write
// them. Quests are created by Registry.Find and live as long as the registry.
type Quest struct {
	Name     string
	vars     *state.Store
	triggers []types.TriggerDef
	reg      *Registry
	entity   types.EntityID // proxy entity on the bus, zero before Init
}

// GetVariable returns a variable's value; an unknown name is a content error.
func (q *Quest) GetVariable(name string) (types.Value, error) {
	return q.vars.Get(name)
}

// SetVariable writes a variable, creating it when absent.
func (q *Quest) SetVariable(name string, value types.Value) {
	q.vars.Set(name, value)
}

// Variables returns the quest's variables in insertion order.
func (q *Quest) Variables() []types.Variable {
	return q.vars.Variables()
}

// AddTrigger appends a trigger. Names need not be unique.
func (q *Quest) AddTrigger(t types.TriggerDef) {
	q.triggers = append(q.triggers, t)
}

// Triggers returns the quest's triggers in declaration order.
func (q *Quest) Triggers() []types.TriggerDef {
	out := make([]types.TriggerDef, len(q.triggers))
	copy(out, q.triggers)
	return out
}

// Entity returns the id of the quest's proxy entity, or zero before Init.
func (q *Quest) Entity() types.EntityID {
	return q.entity
}

// Init registers a proxy entity named like the quest, so a bus message
// carrying a trigger name fires that trigger. Calling Init again is a no-op.
func (q *Quest) Init() error {
	if q.entity != 0 {
		return nil
	}
	id, err := q.reg.bus.Register(q.Name, q.handleMessage)
	if err != nil {
		return fmt.Errorf("registering quest %q: %w", q.Name, err)
	}
	q.entity = id
	return nil
}

func (q *Quest) handleMessage(msg types.Message) error {
	if msg.Payload.Kind != types.KindString {
		return fmt.Errorf("quest %q: got %s: %w", q.Name, msg.Payload.Kind, ErrBadPayload)
	}
	q.reg.log.Debug("quest triggered by message", "quest", q.Name, "trigger", msg.Payload.Str, "sender", msg.Sender)
	_, err := q.FireTrigger(msg.Payload.Str)
	return err
}

// FireTrigger runs every trigger whose name matches, in declaration order.
// A name with no match is a no-op. The first error stops the fan-out; the
// returned Result still describes everything that ran before it.
func (q *Quest) FireTrigger(name string) (types.Result, error) {
	result := types.Result{Quest: q.Name, Trigger: name}

	var err error
	for i, t := range q.triggers {
		if t.Name != name {
			continue
		}
		outcome, events, ferr := q.fire(i, t)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Events = append(result.Events, events...)
		if ferr != nil {
			err = fmt.Errorf("quest %q: trigger %q: %w", q.Name, name, ferr)
			break
		}
	}

	if q.reg.onFire != nil {
		q.reg.onFire(result)
	}
	return result, err
}

// fire takes one trigger from idle through its guard to fired or blocked.
func (q *Quest) fire(index int, t types.TriggerDef) (types.TriggerOutcome, []types.Event, error) {
	outcome := types.TriggerOutcome{Trigger: t.Name, Index: index, State: types.TriggerIdle, FailedCondition: -1}

	ok, failedAt, err := rules.EvalAllConditions(t.Conditions, q.reg)
	if err != nil {
		outcome.FailedCondition = failedAt
		return outcome, nil, err
	}
	outcome.State = types.TriggerGuardChecked
	if !ok {
		outcome.State = types.TriggerBlocked
		outcome.FailedCondition = failedAt
		q.reg.log.Debug("trigger blocked", "quest", q.Name, "trigger", t.Name, "condition", failedAt)
		return outcome, nil, nil
	}

	outcome.State = types.TriggerFired
	q.reg.log.Debug("trigger fired", "quest", q.Name, "trigger", t.Name, "actions", len(t.Actions))
	events, err := effects.Apply(env{q.reg}, t.Actions)
	return outcome, events, err
}

// Check evaluates the guards of every trigger with the given name without
// running any action. Passing triggers report TriggerGuardChecked.
func (q *Quest) Check(name string) ([]types.TriggerOutcome, error) {
	var outcomes []types.TriggerOutcome
	for i, t := range q.triggers {
		if t.Name != name {
			continue
		}
		outcome := types.TriggerOutcome{Trigger: t.Name, Index: i, State: types.TriggerGuardChecked, FailedCondition: -1}
		ok, failedAt, err := rules.EvalAllConditions(t.Conditions, q.reg)
		if err != nil {
			return outcomes, fmt.Errorf("quest %q: trigger %q: %w", q.Name, name, err)
		}
		if !ok {
			outcome.State = types.TriggerBlocked
			outcome.FailedCondition = failedAt
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

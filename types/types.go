// Package types defines the shared data structures for the quest trigger engine.
// This package contains only type definitions and value constructors.
package types

// EntityID addresses a message-receiving entity on the bus. Zero means
// "no entity" (anonymous sender, unresolved receiver).
type EntityID uint32

// MessageType classifies a bus message.
type MessageType string

const (
	MessageActivate     MessageType = "activate"
	MessageActivateOnce MessageType = "activate-once"
	MessageTrigger      MessageType = "trigger"
)

// Message is a single bus record.
type Message struct {
	Type     MessageType
	Sender   EntityID
	Receiver EntityID
	Payload  Value
}

// Variable is a named quest variable.
type Variable struct {
	Name  string
	Value Value
}

// ConditionKind selects the predicate a Condition evaluates.
type ConditionKind string

const (
	ConditionVariableEquals ConditionKind = "variable_equals"
	ConditionStageEquals    ConditionKind = "stage_equals" // reserved, not implemented
)

// Condition is a guard that must hold for a trigger to fire.
type Condition struct {
	Kind     ConditionKind
	Quest    string
	Variable string
	Expected Value
}

// ActionKind selects the effect an Action performs.
type ActionKind string

const (
	ActionSetVariable ActionKind = "set_variable"
	ActionShowMessage ActionKind = "show_message"
	ActionSendMessage ActionKind = "send_message"
)

// Action is a single effect of a fired trigger.
type Action struct {
	Kind ActionKind

	// set_variable
	Quest    string
	Variable string
	Value    Value

	// show_message
	Text string

	// send_message. Target names the receiving entity when
	// Message.Receiver is zero.
	Message Message
	Target  string
}

// TriggerDef is a named guarded rule: all conditions must hold, then every
// action runs in order.
type TriggerDef struct {
	Name       string
	Conditions []Condition
	Actions    []Action
}

// QuestDef is authored quest content: initial variables and triggers.
type QuestDef struct {
	Name      string
	Variables []Variable
	Triggers  []TriggerDef
}

// TriggerState is the state a trigger reached during one firing.
type TriggerState int

const (
	TriggerIdle TriggerState = iota
	TriggerGuardChecked
	TriggerFired
	TriggerBlocked
)

// TriggerOutcome records what happened to one matched trigger.
type TriggerOutcome struct {
	Trigger string
	Index   int // position in the quest's trigger list
	State   TriggerState
	// FailedCondition is the index of the first false condition when
	// State is TriggerBlocked, otherwise -1.
	FailedCondition int
}

// Event is emitted after an action is applied.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of firing a trigger name on a quest.
type Result struct {
	Quest    string
	Trigger  string
	Outcomes []TriggerOutcome
	Events   []Event
}

func (s TriggerState) String() string {
	switch s {
	case TriggerGuardChecked:
		return "guard_checked"
	case TriggerFired:
		return "fired"
	case TriggerBlocked:
		return "blocked"
	default:
		return "idle"
	}
}

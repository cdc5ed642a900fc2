package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/questtrigger/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validConditionTypes = map[types.ConditionKind]bool{
	types.ConditionVariableEquals: true,
	types.ConditionStageEquals:    true,
}

var validActionTypes = map[types.ActionKind]bool{
	types.ActionSetVariable: true,
	types.ActionShowMessage: true,
	types.ActionSendMessage: true,
}

var validMessageTypes = map[types.MessageType]bool{
	types.MessageActivate:     true,
	types.MessageActivateOnce: true,
	types.MessageTrigger:      true,
}

// index is the cross-quest view the checks run against.
type index struct {
	quests   map[string]types.QuestDef
	known    map[string]map[string]bool // quest -> declared or written variables
	triggers map[string]map[string]bool // quest -> trigger names
}

func buildIndex(quests []types.QuestDef) *index {
	idx := &index{
		quests:   map[string]types.QuestDef{},
		known:    map[string]map[string]bool{},
		triggers: map[string]map[string]bool{},
	}
	for _, q := range quests {
		idx.quests[q.Name] = q
		if idx.known[q.Name] == nil {
			idx.known[q.Name] = map[string]bool{}
			idx.triggers[q.Name] = map[string]bool{}
		}
		for _, v := range q.Variables {
			idx.known[q.Name][v.Name] = true
		}
		for _, t := range q.Triggers {
			idx.triggers[q.Name][t.Name] = true
		}
	}
	// SetVariable creates variables, so a write anywhere makes a later read legal.
	for _, q := range quests {
		for _, t := range q.Triggers {
			for _, a := range t.Actions {
				if a.Kind == types.ActionSetVariable && idx.known[a.Quest] != nil {
					idx.known[a.Quest][a.Variable] = true
				}
			}
		}
	}
	return idx
}

// validate checks the compiled quests for referential integrity. Errors fail
// the load; warnings are returned for the caller to report.
func validate(quests []types.QuestDef) ([]string, error) {
	ve := &ValidationError{}

	seen := map[string]bool{}
	for _, q := range quests {
		if q.Name == "" {
			ve.Errors = append(ve.Errors, "quest with empty name")
		}
		if seen[q.Name] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate quest %q", q.Name))
		}
		seen[q.Name] = true
	}

	idx := buildIndex(quests)
	for _, q := range quests {
		if len(q.Triggers) == 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("quest %q has no triggers", q.Name))
		}
		for _, t := range q.Triggers {
			where := fmt.Sprintf("quest %q trigger %q", q.Name, t.Name)
			if t.Name == "" {
				ve.Errors = append(ve.Errors, fmt.Sprintf("quest %q has a trigger with empty name", q.Name))
			}
			if len(t.Actions) == 0 {
				ve.Warnings = append(ve.Warnings, where+" has no actions")
			}
			validateConditions(where, t.Conditions, idx, ve)
			validateActions(where, t.Actions, idx, ve)
		}
	}

	if len(ve.Errors) > 0 {
		return ve.Warnings, ve
	}
	return ve.Warnings, nil
}

func validateConditions(where string, conds []types.Condition, idx *index, ve *ValidationError) {
	for i, c := range conds {
		at := fmt.Sprintf("%s condition %d", where, i+1)
		if !validConditionTypes[c.Kind] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown condition type %q", at, c.Kind))
			continue
		}
		if _, ok := idx.quests[c.Quest]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: undefined quest %q", at, c.Quest))
			continue
		}
		switch c.Kind {
		case types.ConditionStageEquals:
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: stage conditions are not implemented and fail when evaluated", at))
		case types.ConditionVariableEquals:
			if !idx.known[c.Quest][c.Variable] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: variable %q of quest %q is never declared or set", at, c.Variable, c.Quest))
			}
		}
	}
}

func validateActions(where string, actions []types.Action, idx *index, ve *ValidationError) {
	for i, a := range actions {
		at := fmt.Sprintf("%s action %d", where, i+1)
		if !validActionTypes[a.Kind] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown action type %q", at, a.Kind))
			continue
		}
		switch a.Kind {
		case types.ActionSetVariable:
			if _, ok := idx.quests[a.Quest]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s: undefined quest %q", at, a.Quest))
			}
			if a.Variable == "" {
				ve.Errors = append(ve.Errors, at+": empty variable name")
			}
		case types.ActionShowMessage:
			if a.Text == "" {
				ve.Warnings = append(ve.Warnings, at+": empty message text")
			}
		case types.ActionSendMessage:
			validateSend(at, a, idx, ve)
		}
	}
}

func validateSend(at string, a types.Action, idx *index, ve *ValidationError) {
	if !validMessageTypes[a.Message.Type] {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown message type %q", at, a.Message.Type))
		return
	}
	if a.Target == "" {
		// Raw entity ids are resolved by the host at runtime.
		return
	}
	// Quests are the only named entities on the bus.
	if _, ok := idx.quests[a.Target]; !ok {
		if a.Message.Type == types.MessageTrigger {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: trigger message to undefined quest %q", at, a.Target))
		} else {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: receiver %q is not a defined quest", at, a.Target))
		}
		return
	}
	// Quest proxies only understand string payloads naming a trigger.
	if a.Message.Payload.Kind != types.KindString {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: message to quest %q needs a trigger name payload", at, a.Target))
		return
	}
	if !idx.triggers[a.Target][a.Message.Payload.Str] {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"%s: quest %q has no trigger %q", at, a.Target, a.Message.Payload.Str))
	}
}

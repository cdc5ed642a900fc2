// Package rules implements trigger guard evaluation.
package rules

import (
	"errors"
	"fmt"

	"github.com/nathoo/questtrigger/types"
)

var (
	// ErrNotImplemented is returned for condition kinds that are declared
	// but have no evaluator (stage_equals).
	ErrNotImplemented = errors.New("condition kind not implemented")
	// ErrUnknownCondition is returned for kinds outside the known set.
	ErrUnknownCondition = errors.New("unknown condition kind")
)

// Variables reads quest variables. Unknown quests and variables must be
// reported as errors (see state.ContentError), never as zero values.
type Variables interface {
	Variable(quest, name string) (types.Value, error)
}

// EvalCondition evaluates a single condition against current quest state.
// It has no side effects.
func EvalCondition(c types.Condition, vars Variables) (bool, error) {
	switch c.Kind {
	case types.ConditionVariableEquals:
		v, err := vars.Variable(c.Quest, c.Variable)
		if err != nil {
			return false, err
		}
		return v == c.Expected, nil

	case types.ConditionStageEquals:
		return false, fmt.Errorf("quest %q: %s: %w", c.Quest, c.Kind, ErrNotImplemented)

	default:
		return false, fmt.Errorf("%q: %w", c.Kind, ErrUnknownCondition)
	}
}

// EvalAllConditions returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true. Evaluation stops at the first
// condition that is false or fails; failedAt is its index, or -1.
func EvalAllConditions(conditions []types.Condition, vars Variables) (ok bool, failedAt int, err error) {
	for i, c := range conditions {
		pass, err := EvalCondition(c, vars)
		if err != nil {
			return false, i, fmt.Errorf("condition %d: %w", i, err)
		}
		if !pass {
			return false, i, nil
		}
	}
	return true, -1, nil
}

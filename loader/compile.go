package loader

import (
	"fmt"
	"math"
	"sort"

	"github.com/nathoo/questtrigger/types"
	lua "github.com/yuin/gopher-lua"
)

// rawQuest holds a quest table before compilation.
type rawQuest struct {
	name  string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toValue converts a scalar Lua value to a quest variable value. Integral
// numbers become ints. Nil and tables are rejected.
func toValue(v lua.LValue) (types.Value, error) {
	switch val := v.(type) {
	case lua.LBool:
		return types.BoolValue(bool(val)), nil
	case lua.LNumber:
		f := float64(val)
		// Whole numbers outside the int64 range stay floats.
		if f == math.Trunc(f) && f >= math.MinInt64 && f < 1<<63 {
			return types.IntValue(int64(f)), nil
		}
		return types.FloatValue(f), nil
	case lua.LString:
		return types.StringValue(string(val)), nil
	case *lua.LNilType:
		return types.Value{}, fmt.Errorf("value is nil")
	default:
		return types.Value{}, fmt.Errorf("unsupported value type %s", v.Type())
	}
}

// compile converts all collected Lua data into quest definitions, in
// declaration order.
func compile(coll *collector) ([]types.QuestDef, error) {
	if len(coll.quests) == 0 {
		return nil, fmt.Errorf("no Quest definitions found")
	}
	quests := make([]types.QuestDef, 0, len(coll.quests))
	for _, raw := range coll.quests {
		q, err := compileQuest(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling quest %s: %w", raw.name, err)
		}
		quests = append(quests, q)
	}
	return quests, nil
}

func compileQuest(raw rawQuest) (types.QuestDef, error) {
	q := types.QuestDef{Name: raw.name}

	vars, err := compileVariables(getTable(raw.table, "variables"))
	if err != nil {
		return q, err
	}
	q.Variables = vars

	if tbl := getTable(raw.table, "triggers"); tbl != nil {
		for i := 1; i <= tbl.MaxN(); i++ {
			tt, ok := tbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				return q, fmt.Errorf("triggers[%d] is not a Trigger", i)
			}
			t, err := compileTrigger(tt)
			if err != nil {
				return q, fmt.Errorf("trigger %q: %w", getString(tt, "__trigger"), err)
			}
			q.Triggers = append(q.Triggers, t)
		}
	}
	return q, nil
}

// compileVariables reads a name-to-value table. Lua tables are unordered,
// so variables come out sorted by name.
func compileVariables(tbl *lua.LTable) ([]types.Variable, error) {
	if tbl == nil {
		return nil, nil
	}
	var names []string
	values := map[string]lua.LValue{}
	var bad error
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			if bad == nil {
				bad = fmt.Errorf("variable key %s is not a string", k.String())
			}
			return
		}
		names = append(names, string(ks))
		values[string(ks)] = v
	})
	if bad != nil {
		return nil, bad
	}
	sort.Strings(names)

	vars := make([]types.Variable, 0, len(names))
	for _, name := range names {
		val, err := toValue(values[name])
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		vars = append(vars, types.Variable{Name: name, Value: val})
	}
	return vars, nil
}

func compileTrigger(tbl *lua.LTable) (types.TriggerDef, error) {
	t := types.TriggerDef{Name: getString(tbl, "__trigger")}

	if conds := getTable(tbl, "conditions"); conds != nil {
		for i := 1; i <= conds.MaxN(); i++ {
			ct, ok := conds.RawGetInt(i).(*lua.LTable)
			if !ok {
				return t, fmt.Errorf("conditions[%d] is not a table", i)
			}
			c, err := compileCondition(ct)
			if err != nil {
				return t, fmt.Errorf("conditions[%d]: %w", i, err)
			}
			t.Conditions = append(t.Conditions, c)
		}
	}

	if acts := getTable(tbl, "actions"); acts != nil {
		for i := 1; i <= acts.MaxN(); i++ {
			at, ok := acts.RawGetInt(i).(*lua.LTable)
			if !ok {
				return t, fmt.Errorf("actions[%d] is not a table", i)
			}
			a, err := compileAction(at)
			if err != nil {
				return t, fmt.Errorf("actions[%d]: %w", i, err)
			}
			t.Actions = append(t.Actions, a)
		}
	}
	return t, nil
}

func compileCondition(tbl *lua.LTable) (types.Condition, error) {
	c := types.Condition{
		Kind:     types.ConditionKind(getString(tbl, "type")),
		Quest:    getString(tbl, "quest"),
		Variable: getString(tbl, "variable"),
	}
	val, err := toValue(tbl.RawGetString("value"))
	if err != nil {
		return c, err
	}
	c.Expected = val
	return c, nil
}

func compileAction(tbl *lua.LTable) (types.Action, error) {
	a := types.Action{Kind: types.ActionKind(getString(tbl, "type"))}

	switch a.Kind {
	case types.ActionSetVariable:
		a.Quest = getString(tbl, "quest")
		a.Variable = getString(tbl, "variable")
		val, err := toValue(tbl.RawGetString("value"))
		if err != nil {
			return a, err
		}
		a.Value = val

	case types.ActionShowMessage:
		a.Text = getString(tbl, "text")

	case types.ActionSendMessage:
		msgType := getString(tbl, "message")
		if msgType == "" {
			msgType = string(types.MessageActivate)
		}
		a.Message.Type = types.MessageType(msgType)

		switch to := tbl.RawGetString("to").(type) {
		case lua.LString:
			a.Target = string(to)
		case lua.LNumber:
			if f := float64(to); f < 1 || f > math.MaxUint32 || f != math.Trunc(f) {
				return a, fmt.Errorf("invalid receiver id %v", float64(to))
			}
			a.Message.Receiver = types.EntityID(to)
		default:
			return a, fmt.Errorf("send_message needs a receiver")
		}

		if p := tbl.RawGetString("payload"); p != lua.LNil {
			val, err := toValue(p)
			if err != nil {
				return a, fmt.Errorf("payload: %w", err)
			}
			a.Message.Payload = val
		}
	}
	return a, nil
}

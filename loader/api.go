package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerActionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Quest "name" { variables = {...}, triggers = {...} }, curried.
	L.SetGlobal("Quest", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.quests = append(coll.quests, rawQuest{name: name, table: tbl})
			return 0
		}))
		return 1
	}))

	// Trigger "name" { conditions = {...}, actions = {...} }, curried;
	// returns the table tagged with its name for use in a quest's triggers.
	L.SetGlobal("Trigger", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("__trigger", lua.LString(name))
			L.Push(tbl)
			return 1
		}))
		return 1
	}))
}

func registerConditionHelpers(L *lua.LState) {
	// VariableIs("quest", "variable", value)
	L.SetGlobal("VariableIs", L.NewFunction(func(L *lua.LState) int {
		quest := L.CheckString(1)
		variable := L.CheckString(2)
		value := L.CheckAny(3)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("variable_equals"))
		tbl.RawSetString("quest", lua.LString(quest))
		tbl.RawSetString("variable", lua.LString(variable))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// StageIs("quest", stage) is reserved and fails when evaluated.
	L.SetGlobal("StageIs", L.NewFunction(func(L *lua.LState) int {
		quest := L.CheckString(1)
		stage := L.CheckNumber(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("stage_equals"))
		tbl.RawSetString("quest", lua.LString(quest))
		tbl.RawSetString("value", stage)
		L.Push(tbl)
		return 1
	}))
}

func registerActionHelpers(L *lua.LState) {
	// SetVariable("quest", "variable", value)
	L.SetGlobal("SetVariable", L.NewFunction(func(L *lua.LState) int {
		quest := L.CheckString(1)
		variable := L.CheckString(2)
		value := L.CheckAny(3)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("set_variable"))
		tbl.RawSetString("quest", lua.LString(quest))
		tbl.RawSetString("variable", lua.LString(variable))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// ShowMessage("text")
	L.SetGlobal("ShowMessage", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("show_message"))
		tbl.RawSetString("text", lua.LString(text))
		L.Push(tbl)
		return 1
	}))

	// SendMessage { to = "entity", type = "activate", payload = value }
	L.SetGlobal("SendMessage", L.NewFunction(func(L *lua.LState) int {
		args := L.CheckTable(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("send_message"))
		tbl.RawSetString("to", args.RawGetString("to"))
		tbl.RawSetString("message", args.RawGetString("type"))
		tbl.RawSetString("payload", args.RawGetString("payload"))
		L.Push(tbl)
		return 1
	}))

	// FireQuest("quest", "trigger") sends a trigger message to another quest's
	// proxy entity, delivered on the next dispatch.
	L.SetGlobal("FireQuest", L.NewFunction(func(L *lua.LState) int {
		quest := L.CheckString(1)
		trigger := L.CheckString(2)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("send_message"))
		tbl.RawSetString("to", lua.LString(quest))
		tbl.RawSetString("message", lua.LString("trigger"))
		tbl.RawSetString("payload", lua.LString(trigger))
		L.Push(tbl)
		return 1
	}))
}

package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/questtrigger/types"
)

// validQuests returns a minimal set of quests that passes validation.
func validQuests() []types.QuestDef {
	return []types.QuestDef{
		{
			Name:      "main",
			Variables: []types.Variable{{Name: "done", Value: types.BoolValue(false)}},
			Triggers: []types.TriggerDef{
				{
					Name: "finish",
					Conditions: []types.Condition{
						{Kind: types.ConditionVariableEquals, Quest: "main", Variable: "done", Expected: types.BoolValue(false)},
					},
					Actions: []types.Action{
						{Kind: types.ActionSetVariable, Quest: "main", Variable: "done", Value: types.BoolValue(true)},
						{Kind: types.ActionShowMessage, Text: "Done."},
					},
				},
			},
		},
	}
}

func assertContains(t *testing.T, msgs []string, substr string) {
	t.Helper()
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Errorf("expected a message containing %q, got %v", substr, msgs)
}

func mustFail(t *testing.T, quests []types.QuestDef) *ValidationError {
	t.Helper()
	_, err := validate(quests)
	if err == nil {
		t.Fatal("expected validation error")
	}
	return err.(*ValidationError)
}

func TestValidate_Valid(t *testing.T) {
	warnings, err := validate(validQuests())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestValidate_DuplicateQuest(t *testing.T) {
	quests := append(validQuests(), validQuests()...)
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, `duplicate quest "main"`)
}

func TestValidate_EmptyTriggerName(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Name = ""
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "empty name")
}

func TestValidate_UnknownConditionType(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Conditions[0].Kind = "flag_set"
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "unknown condition type")
}

func TestValidate_UnknownActionType(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions[0].Kind = "teleport"
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "unknown action type")
}

func TestValidate_UndefinedQuestInCondition(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Conditions[0].Quest = "ghost"
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, `undefined quest "ghost"`)
}

func TestValidate_UndeclaredVariable(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Conditions[0].Variable = "missing"
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "never declared or set")
}

func TestValidate_VariableSetElsewhere(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions,
		types.Action{Kind: types.ActionSetVariable, Quest: "main", Variable: "later", Value: types.IntValue(1)})
	quests[0].Triggers = append(quests[0].Triggers, types.TriggerDef{
		Name: "check",
		Conditions: []types.Condition{
			{Kind: types.ConditionVariableEquals, Quest: "main", Variable: "later", Expected: types.IntValue(1)},
		},
		Actions: []types.Action{{Kind: types.ActionShowMessage, Text: "Later."}},
	})
	if _, err := validate(quests); err != nil {
		t.Fatalf("variable written by SetVariable should be readable: %v", err)
	}
}

func TestValidate_StageConditionWarns(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Conditions = append(quests[0].Triggers[0].Conditions,
		types.Condition{Kind: types.ConditionStageEquals, Quest: "main", Expected: types.IntValue(1)})
	warnings, err := validate(quests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, warnings, "not implemented")
}

func TestValidate_TriggerMessageToUndefinedQuest(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions, types.Action{
		Kind:    types.ActionSendMessage,
		Target:  "ghost",
		Message: types.Message{Type: types.MessageTrigger, Payload: types.StringValue("boo")},
	})
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "undefined quest")
}

func TestValidate_ActivateUnknownEntity(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions, types.Action{
		Kind:    types.ActionSendMessage,
		Target:  "door",
		Message: types.Message{Type: types.MessageActivate},
	})
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, `receiver "door" is not a defined quest`)
}

func TestValidate_QuestMessageNeedsStringPayload(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions, types.Action{
		Kind:    types.ActionSendMessage,
		Target:  "main",
		Message: types.Message{Type: types.MessageTrigger, Payload: types.IntValue(3)},
	})
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "trigger name payload")
}

func TestValidate_MissingTargetTriggerWarns(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions, types.Action{
		Kind:    types.ActionSendMessage,
		Target:  "main",
		Message: types.Message{Type: types.MessageTrigger, Payload: types.StringValue("nope")},
	})
	warnings, err := validate(quests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, warnings, `has no trigger "nope"`)
}

func TestValidate_UnknownMessageType(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Actions = append(quests[0].Triggers[0].Actions, types.Action{
		Kind:    types.ActionSendMessage,
		Target:  "main",
		Message: types.Message{Type: "shout", Payload: types.StringValue("finish")},
	})
	ve := mustFail(t, quests)
	assertContains(t, ve.Errors, "unknown message type")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	quests := validQuests()
	quests[0].Triggers[0].Conditions[0].Quest = "ghost"
	quests[0].Triggers[0].Actions[0].Quest = "phantom"
	ve := mustFail(t, quests)
	if len(ve.Errors) < 2 {
		t.Errorf("expected at least 2 errors, got %v", ve.Errors)
	}
	if !strings.Contains(ve.Error(), "2 error(s)") {
		t.Errorf("Error() = %q", ve.Error())
	}
}

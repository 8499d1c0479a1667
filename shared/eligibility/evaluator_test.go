package eligibility_test

import (
	"testing"

	"concierge-server/shared/eligibility"
	"concierge-server/shared/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_EmptyConditions(t *testing.T) {
	answers := models.AnswerMap{"AnyPets": models.StringAnswer("Yes")}

	assert.True(t, eligibility.Evaluate(nil, answers), "nil условия должны проходить всегда")
	assert.True(t, eligibility.Evaluate(models.ConditionSet{}, answers), "пустые условия должны проходить всегда")
	assert.True(t, eligibility.Evaluate(nil, nil))
}

func TestEvaluate_StringMatch(t *testing.T) {
	conditions := models.ConditionSet{"MoveDistance": {"Long Distance"}}

	t.Run("exact match", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"MoveDistance": models.StringAnswer("Long Distance"),
		}))
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"MoveDistance": models.StringAnswer("long distance"),
		}))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"MoveDistance": models.StringAnswer("Local"),
		}))
	})
}

func TestEvaluate_AndAcrossFields(t *testing.T) {
	conditions := models.ConditionSet{
		"AnyPets":      {"Yes"},
		"MoveDistance": {"Local"},
	}

	t.Run("both fields match", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"AnyPets":      models.StringAnswer("Yes"),
			"MoveDistance": models.StringAnswer("Local"),
		}))
	})

	t.Run("second field fails", func(t *testing.T) {
		assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"AnyPets":      models.StringAnswer("Yes"),
			"MoveDistance": models.StringAnswer("Cross-Country"),
		}))
	})

	t.Run("first field fails", func(t *testing.T) {
		assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"AnyPets":      models.StringAnswer("No"),
			"MoveDistance": models.StringAnswer("Local"),
		}))
	})
}

func TestEvaluate_OrWithinField(t *testing.T) {
	conditions := models.ConditionSet{"MoveDistance": {"Long Distance", "Cross-Country"}}

	assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
		"MoveDistance": models.StringAnswer("Cross-Country"),
	}))
	assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
		"MoveDistance": models.StringAnswer("Long Distance"),
	}))
	assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
		"MoveDistance": models.StringAnswer("Local"),
	}))
}

func TestEvaluate_NumericComparators(t *testing.T) {
	tests := []struct {
		name       string
		specifiers []string
		value      models.AnswerValue
		want       bool
	}{
		{"gte passes", []string{">=1"}, models.StringAnswer("2"), true},
		{"gte boundary passes", []string{">=1"}, models.IntAnswer(1), true},
		{"gte fails", []string{">=1"}, models.StringAnswer("0"), false},
		{"lte passes", []string{"<=3"}, models.IntAnswer(3), true},
		{"lte fails", []string{"<=3"}, models.IntAnswer(4), false},
		{"gt passes", []string{">2"}, models.IntAnswer(5), true},
		{"gt boundary fails", []string{">2"}, models.IntAnswer(2), false},
		{"lt passes", []string{"<2"}, models.IntAnswer(1), true},
		{"non-numeric user value fails", []string{">=1"}, models.StringAnswer("many"), false},
		{"non-numeric threshold fails", []string{">=abc"}, models.IntAnswer(10), false},
		{"bool value never numeric", []string{">=0"}, models.BoolAnswer(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eligibility.Evaluate(
				models.ConditionSet{"NumChildren": tt.specifiers},
				models.AnswerMap{"NumChildren": tt.value},
			)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_BooleanCoercion(t *testing.T) {
	t.Run("true coerces to Yes", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"AnyPets": {"Yes"}},
			models.AnswerMap{"AnyPets": models.BoolAnswer(true)},
		))
	})

	t.Run("false coerces to No", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"AnyPets": {"No"}},
			models.AnswerMap{"AnyPets": models.BoolAnswer(false)},
		))
	})

	t.Run("boolean literal specifier matches bool", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"NeedStorage": {"true"}},
			models.AnswerMap{"NeedStorage": models.BoolAnswer(true)},
		))
		assert.False(t, eligibility.Evaluate(
			models.ConditionSet{"NeedStorage": {"true"}},
			models.AnswerMap{"NeedStorage": models.BoolAnswer(false)},
		))
	})

	t.Run("boolean literal specifier matches string", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"NeedStorage": {"TRUE"}},
			models.AnswerMap{"NeedStorage": models.StringAnswer("true")},
		))
	})

	t.Run("boolean literal specifier rejects numbers", func(t *testing.T) {
		assert.False(t, eligibility.Evaluate(
			models.ConditionSet{"NeedStorage": {"true"}},
			models.AnswerMap{"NeedStorage": models.IntAnswer(1)},
		))
	})
}

func TestEvaluate_IntegerCoercion(t *testing.T) {
	// Целое значение пользователя сравнивается со строковым литералом
	// через десятичную строку.
	assert.True(t, eligibility.Evaluate(
		models.ConditionSet{"Bedrooms": {"3"}},
		models.AnswerMap{"Bedrooms": models.IntAnswer(3)},
	))
}

func TestEvaluate_MissingField(t *testing.T) {
	answers := models.AnswerMap{"MoveDistance": models.StringAnswer("Local")}

	t.Run("missing without sentinel fails", func(t *testing.T) {
		assert.False(t, eligibility.Evaluate(
			models.ConditionSet{"AnyPets": {"Yes"}},
			answers,
		))
	})

	t.Run("nil sentinel matches absence", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"AnyPets": {"nil"}},
			answers,
		))
	})

	t.Run("empty string sentinel matches absence", func(t *testing.T) {
		assert.True(t, eligibility.Evaluate(
			models.ConditionSet{"AnyPets": {""}},
			answers,
		))
	})

	t.Run("sentinel alongside literals", func(t *testing.T) {
		conditions := models.ConditionSet{"AnyPets": {"Yes", "nil"}}
		assert.True(t, eligibility.Evaluate(conditions, answers), "поле отсутствует, но есть сентинел")
		assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"AnyPets": models.StringAnswer("Yes"),
		}))
		assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
			"AnyPets": models.StringAnswer("No"),
		}))
	})
}

func TestEvaluate_MalformedSpecifiers(t *testing.T) {
	// Пустой список спецификаторов не ограничивает поле и не ломает
	// оценку соседних полей.
	conditions := models.ConditionSet{
		"Broken":       {},
		"MoveDistance": {"Local"},
	}
	assert.True(t, eligibility.Evaluate(conditions, models.AnswerMap{
		"MoveDistance": models.StringAnswer("Local"),
	}))
	assert.False(t, eligibility.Evaluate(conditions, models.AnswerMap{
		"MoveDistance": models.StringAnswer("Cross-Country"),
	}))
}

func TestEvaluate_SpecifierWhitespace(t *testing.T) {
	assert.True(t, eligibility.Evaluate(
		models.ConditionSet{"NumChildren": {" >= 2 "}},
		models.AnswerMap{"NumChildren": models.IntAnswer(2)},
	))
}

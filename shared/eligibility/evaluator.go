// Package eligibility содержит чистый движок проверки условий каталога:
// вычислитель ConditionSet по карте ответов и матчер каталога задач/подрядчиков.
// Все функции пакета свободны от побочных эффектов и безопасны для
// параллельных читателей без синхронизации.
package eligibility

import (
	"strconv"
	"strings"

	"concierge-server/shared/models"
)

// Evaluate проверяет, удовлетворяет ли карта ответов набору условий.
// Поля комбинируются через AND, спецификаторы одного поля — через OR.
// Пустой (или nil) набор условий всегда проходит.
//
// Ошибок не бывает: некорректные данные каталога деградируют в "не совпало",
// не прерывая оценку остальных полей.
func Evaluate(conditions models.ConditionSet, answers models.AnswerMap) bool {
	if len(conditions) == 0 {
		return true
	}
	for field, specifiers := range conditions {
		// Пустой список спецификаторов ничего не требует от поля.
		if len(specifiers) == 0 {
			continue
		}
		if !matchField(answers, field, specifiers) {
			return false
		}
	}
	return true
}

// matchField проверяет одно поле: значение пользователя должно подойти
// хотя бы под один спецификатор.
func matchField(answers models.AnswerMap, field string, specifiers []string) bool {
	value, present := answers[field]
	if !present {
		// Отсутствующее поле проходит только при явном сентинеле отсутствия.
		for _, spec := range specifiers {
			trimmed := strings.TrimSpace(spec)
			if trimmed == "" || strings.EqualFold(trimmed, "nil") {
				return true
			}
		}
		return false
	}
	for _, spec := range specifiers {
		if matchSpecifier(value, strings.TrimSpace(spec)) {
			return true
		}
	}
	return false
}

// matchSpecifier сравнивает одно значение ответа с одним спецификатором.
func matchSpecifier(value models.AnswerValue, spec string) bool {
	// Числовые сравнения: и порог, и значение пользователя должны быть целыми.
	// Ошибка парсинга любой стороны — "не совпало", а не ошибка.
	switch {
	case strings.HasPrefix(spec, ">="):
		return compareInt(value, spec[2:], func(a, b int) bool { return a >= b })
	case strings.HasPrefix(spec, "<="):
		return compareInt(value, spec[2:], func(a, b int) bool { return a <= b })
	case strings.HasPrefix(spec, ">"):
		return compareInt(value, spec[1:], func(a, b int) bool { return a > b })
	case strings.HasPrefix(spec, "<"):
		return compareInt(value, spec[1:], func(a, b int) bool { return a < b })
	}

	// Булевы литералы: сравниваем с булевым значением напрямую либо со строками
	// "true"/"false" без учета регистра. Любой другой тип значения — не совпало.
	if strings.EqualFold(spec, "true") || strings.EqualFold(spec, "false") {
		want := strings.EqualFold(spec, "true")
		switch value.Kind {
		case models.AnswerBool:
			return value.Bool == want
		case models.AnswerString:
			return strings.EqualFold(strings.TrimSpace(value.Str), spec)
		default:
			return false
		}
	}

	// Строковый литерал: точное совпадение без учета регистра
	// с приведенным значением (булевы -> "Yes"/"No", числа -> десятичная строка).
	return strings.EqualFold(value.Coerced(), spec)
}

func compareInt(value models.AnswerValue, rawThreshold string, cmp func(a, b int) bool) bool {
	threshold, err := strconv.Atoi(strings.TrimSpace(rawThreshold))
	if err != nil {
		return false
	}
	userValue, ok := value.IntValue()
	if !ok {
		return false
	}
	return cmp(userValue, threshold)
}

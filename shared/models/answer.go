package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerKind определяет тип скалярного значения ответа.
// Карта ответов намеренно ограничена закрытым набором типов (строка, булево, целое),
// чтобы правила приведения значений были проверяемы исчерпывающе.
type AnswerKind int

const (
	AnswerString AnswerKind = iota
	AnswerBool
	AnswerInt
)

// AnswerValue — одно скалярное значение из карты ответов.
// Значение неизменяемо после создания; используйте конструкторы ниже.
type AnswerValue struct {
	Kind AnswerKind
	Str  string
	Bool bool
	Int  int
}

// StringAnswer создает строковое значение ответа.
func StringAnswer(s string) AnswerValue {
	return AnswerValue{Kind: AnswerString, Str: s}
}

// BoolAnswer создает булево значение ответа.
func BoolAnswer(b bool) AnswerValue {
	return AnswerValue{Kind: AnswerBool, Bool: b}
}

// IntAnswer создает целочисленное значение ответа.
func IntAnswer(n int) AnswerValue {
	return AnswerValue{Kind: AnswerInt, Int: n}
}

// Coerced возвращает строковое представление значения для сравнения с условиями каталога:
// булевы значения отображаются как "Yes"/"No", целые — десятичной строкой.
// Дробная часть числовых ответов отбрасывается еще при разборе JSON (см. UnmarshalJSON) —
// для этого домена значения числовых полей целые (комнаты, дети, этажи).
func (v AnswerValue) Coerced() string {
	switch v.Kind {
	case AnswerBool:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case AnswerInt:
		return strconv.Itoa(v.Int)
	default:
		return v.Str
	}
}

// IntValue возвращает целочисленное представление значения, если оно есть.
// Строки парсятся как десятичные целые; булевы значения числового представления не имеют.
func (v AnswerValue) IntValue() (int, bool) {
	switch v.Kind {
	case AnswerInt:
		return v.Int, true
	case AnswerString:
		n, err := strconv.Atoi(v.Str)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// MarshalJSON сериализует значение в его родной JSON-тип.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerBool:
		return json.Marshal(v.Bool)
	case AnswerInt:
		return json.Marshal(v.Int)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON принимает строку, булево или число.
// Числа с дробной частью усекаются до целых.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		*v = StringAnswer(val)
	case bool:
		*v = BoolAnswer(val)
	case float64:
		*v = IntAnswer(int(val))
	default:
		return fmt.Errorf("%w: unsupported answer value type %T", ErrInvalidInput, raw)
	}
	return nil
}

// AnswerMap — плоская карта "поле -> значение" со всем, что известно о пользователе.
// Имена полей — стабильные идентификаторы, общие для клиента и условий каталога.
type AnswerMap map[string]AnswerValue

// Clone возвращает независимую копию карты.
func (m AnswerMap) Clone() AnswerMap {
	if m == nil {
		return AnswerMap{}
	}
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merged возвращает новую карту: приемник плюс записи из other (other имеет приоритет).
// Исходные карты не изменяются.
func (m AnswerMap) Merged(other AnswerMap) AnswerMap {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

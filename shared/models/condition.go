package models

// ConditionSet — декларативный предикат над картой ответов:
// поля комбинируются через AND, спецификаторы внутри одного поля — через OR.
// Пустой или отсутствующий набор условий всегда проходит.
//
// Спецификатор — строковый литерал ("Yes", "Long Distance"), числовое сравнение
// (">=2", "<5"), булев литерал ("true"/"false") или сентинел отсутствия ("nil", "").
// Форма хранения в каталоге — JSONB-объект {"поле": ["спецификатор", ...]},
// принимается как есть, без дополнительной валидации схемы.
type ConditionSet map[string][]string

// Clone возвращает независимую копию набора условий.
func (c ConditionSet) Clone() ConditionSet {
	if c == nil {
		return nil
	}
	out := make(ConditionSet, len(c))
	for field, specs := range c {
		copied := make([]string, len(specs))
		copy(copied, specs)
		out[field] = copied
	}
	return out
}

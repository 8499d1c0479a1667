package eligibility

import (
	"strings"

	"concierge-server/shared/models"
)

// ParseLegacyConditions разбирает старый строковый формат условий
// ("Поле: значение, значение2, Поле2: значение") в канонический ConditionSet.
//
// Формат остался от ранних версий каталога: сегменты разделяются запятыми,
// сегмент с двоеточием начинает новое поле, сегмент без двоеточия продолжает
// список значений (OR) предыдущего поля. Строковая форма — только адаптер:
// вся оценка идет через Evaluate по словарной форме.
func ParseLegacyConditions(raw string) models.ConditionSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	conditions := models.ConditionSet{}
	currentField := ""
	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if field, value, ok := strings.Cut(segment, ":"); ok {
			currentField = strings.TrimSpace(field)
			if currentField == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				conditions[currentField] = append(conditions[currentField], value)
			} else {
				// "Поле:" без значения — поле объявлено, значения придут
				// в следующих сегментах.
				if _, exists := conditions[currentField]; !exists {
					conditions[currentField] = []string{}
				}
			}
			continue
		}
		// Продолжение списка значений предыдущего поля.
		if currentField != "" {
			conditions[currentField] = append(conditions[currentField], segment)
		}
	}
	if len(conditions) == 0 {
		return nil
	}
	return conditions
}

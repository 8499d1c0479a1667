package eligibility

import "concierge-server/shared/models"

// Match фильтрует каталог задач по карте ответов.
//
// Первый проход (includeSubTasks=false) возвращает все обычные задачи,
// чьи условия проходят. Второй проход (includeSubTasks=true, parentFilter=код
// родителя) вызывается после того, как ответы мини-опроса родителя влиты в
// карту, и возвращает только под-задачи этого родителя.
//
// Функция чистая и детерминированная: одинаковая пара (каталог, ответы) дает
// одинаковый результат, порядок каталога сохраняется. Пустой каталог или
// пустая карта ответов — не ошибка.
func Match(catalog []models.TaskDefinition, answers models.AnswerMap, includeSubTasks bool, parentFilter string) []models.TaskDefinition {
	matched := make([]models.TaskDefinition, 0, len(catalog))
	for _, def := range catalog {
		if includeSubTasks {
			if !def.IsSubTask {
				continue
			}
			if parentFilter != "" && def.ParentTask != parentFilter {
				continue
			}
		} else if def.IsSubTask {
			continue
		}
		if Evaluate(def.Conditions, answers) {
			matched = append(matched, def)
		}
	}
	return matched
}

// MatchVendors фильтрует каталог подрядчиков по карте ответов.
// У подрядчиков нет под-записей, поэтому проход всегда один.
func MatchVendors(catalog []models.VendorDefinition, answers models.AnswerMap) []models.VendorDefinition {
	matched := make([]models.VendorDefinition, 0, len(catalog))
	for _, def := range catalog {
		if Evaluate(def.Conditions, answers) {
			matched = append(matched, def)
		}
	}
	return matched
}

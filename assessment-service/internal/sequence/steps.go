// Package sequence реализует секвенсер анкеты: построение упорядоченного
// списка узлов (интерстишл/ввод) из декларативного списка шагов с ветвлениями
// и управление курсором/прогрессом по этому списку.
package sequence

import (
	"strings"

	"concierge-server/shared/models"
)

// StepID — стабильный идентификатор шага анкеты.
type StepID string

// Шаги основной анкеты переезда.
const (
	StepMoveDate        StepID = "MOVE_DATE"
	StepMoveDistance    StepID = "MOVE_DISTANCE"
	StepDwellingType    StepID = "DWELLING_TYPE"
	StepLeaseEndDate    StepID = "LEASE_END_DATE"
	StepSecurityDeposit StepID = "SECURITY_DEPOSIT"
	StepHomeSaleStatus  StepID = "HOME_SALE_STATUS"
	StepClosingDate     StepID = "CLOSING_DATE"
	StepFloorAccess     StepID = "FLOOR_ACCESS"
	StepAnyPets         StepID = "ANY_PETS"
	StepPetTypes        StepID = "PET_TYPES"
	StepNumChildren     StepID = "NUM_CHILDREN"
	StepBedrooms        StepID = "BEDROOMS"
)

// Step описывает один шаг анкеты.
// Содержимое для показа (тексты, варианты ответов) генерируется снаружи;
// ядру нужны только идентификатор, ключ поля и правило ветвления.
type Step struct {
	ID    StepID
	Field string
	// Branching: изменение ответа на этот шаг перестраивает последовательность.
	Branching bool
	// Branch выбирает один из двух альтернативных списков под-шагов,
	// вставляемых сразу после этого шага.
	Branch *BranchRule
}

// BranchRule — чистый предикат равенства над картой ответов.
// Если ответ на Field равен Equals (без учета регистра) — вставляется Then,
// иначе (в том числе при отсутствии ответа) — Else.
type BranchRule struct {
	Field  string
	Equals string
	Then   []Step
	Else   []Step
}

// choose возвращает список под-шагов для текущих ответов.
func (r *BranchRule) choose(answers models.AnswerMap) []Step {
	if r == nil {
		return nil
	}
	if value, ok := answers[r.Field]; ok && strings.EqualFold(value.Coerced(), r.Equals) {
		return r.Then
	}
	return r.Else
}

// DefaultSteps возвращает анкету переезда.
// Имена полей — контракт с клиентом и условиями каталога: написание должно
// совпадать дословно, регистр выравнивает вычислитель условий.
func DefaultSteps() []Step {
	return []Step{
		{ID: StepMoveDate, Field: "MoveDate"},
		{ID: StepMoveDistance, Field: "MoveDistance"},
		{
			ID:        StepDwellingType,
			Field:     "DwellingType",
			Branching: true,
			Branch: &BranchRule{
				Field:  "DwellingType",
				Equals: "Rent",
				Then: []Step{
					{ID: StepLeaseEndDate, Field: "LeaseEndDate"},
					{ID: StepSecurityDeposit, Field: "SecurityDeposit"},
				},
				Else: []Step{
					{ID: StepHomeSaleStatus, Field: "HomeSaleStatus"},
					{ID: StepClosingDate, Field: "ClosingDate"},
				},
			},
		},
		{ID: StepFloorAccess, Field: "FloorAccess"},
		{
			ID:        StepAnyPets,
			Field:     "AnyPets",
			Branching: true,
			Branch: &BranchRule{
				Field:  "AnyPets",
				Equals: "Yes",
				Then: []Step{
					{ID: StepPetTypes, Field: "PetTypes"},
				},
				Else: nil,
			},
		},
		{ID: StepNumChildren, Field: "NumChildren"},
		{ID: StepBedrooms, Field: "Bedrooms"},
	}
}

// flatten собирает все шаги, включая обе ветки каждого ветвления.
func flatten(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, step := range steps {
		out = append(out, step)
		if step.Branch != nil {
			out = append(out, flatten(step.Branch.Then)...)
			out = append(out, flatten(step.Branch.Else)...)
		}
	}
	return out
}

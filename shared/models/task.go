package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskDefinition — запись каталога задач переезда.
// Задача показывается пользователю, когда ее условия проходят по карте ответов.
// Под-задачи (IsSubTask) исключаются из первого прохода матчинга и оцениваются
// только после того, как ответы мини-опроса родительской задачи влиты в карту.
type TaskDefinition struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Code       string       `json:"code" db:"code"` // Стабильный идентификатор, например "PET_OPTIONS"
	Title      string       `json:"title" db:"title"`
	Category   string       `json:"category" db:"category"`
	Conditions ConditionSet `json:"conditions" db:"conditions"`
	IsSubTask  bool         `json:"isSubTask" db:"is_sub_task"`
	// ParentTask — код родительской задачи; пустая строка для обычных задач.
	ParentTask string    `json:"parentTask,omitempty" db:"parent_task"`
	SortOrder  int       `json:"sortOrder" db:"sort_order"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// VendorDefinition — запись каталога подрядчиков (грузчики, клининг, хранение).
// Та же форма условий, что и у задач; понятия под-задачи у подрядчиков нет.
type VendorDefinition struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Code       string       `json:"code" db:"code"`
	Title      string       `json:"title" db:"title"`
	Category   string       `json:"category" db:"category"`
	Conditions ConditionSet `json:"conditions" db:"conditions"`
	SortOrder  int          `json:"sortOrder" db:"sort_order"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time    `json:"updatedAt" db:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentSession — состояние одной сессии опроса пользователя.
// Сессия владеет картой ответов; движки (матчер, секвенсер) получают только снапшоты.
// Позиция в анкете хранится как индекс курсора и водяной знак прогресса —
// сам список узлов детерминированно восстанавливается из ответов.
type AssessmentSession struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
	// Answers обновляется по одному ключу атомарно; частично несогласованных
	// состояний не бывает.
	Answers AnswerMap `json:"answers"`
	// CursorIndex — текущая позиция в списке узлов анкеты.
	CursorIndex int `json:"cursorIndex"`
	// Watermark — максимальное число шагов ввода, виденное за все перестроения.
	// Не убывает: знаменатель прогресс-бара не должен прыгать назад.
	Watermark int `json:"watermark"`
	// Completed выставляется, когда пользователь прошел последний узел.
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

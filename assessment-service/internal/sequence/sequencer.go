package sequence

import "concierge-server/shared/models"

// Sequencer владеет списком узлов анкеты, курсором и водяным знаком прогресса.
//
// Секвенсер НЕ потокобезопасен: переход Next — составная операция
// (перестроение, поиск позиции, продвижение), которую должен сериализовать
// один логический владелец (одна сессия). Карта ответов передается в каждый
// вызов как неизменяемый снапшот и не удерживается между вызовами.
//
// Операции не возвращают ошибок: выход за границы всегда зажимается
// в [0, len(nodes)-1].
type Sequencer struct {
	steps           []Step
	stepsByID       map[StepID]Step
	branchingFields map[string]bool

	nodes        []Node
	index        int
	maxInputSeen int
}

// New создает секвенсер для данного списка шагов.
// При steps == nil используется анкета по умолчанию (DefaultSteps).
// Список узлов пуст до первого вызова Build/Restore.
func New(steps []Step) *Sequencer {
	if steps == nil {
		steps = DefaultSteps()
	}
	s := &Sequencer{
		steps:           steps,
		stepsByID:       make(map[StepID]Step),
		branchingFields: make(map[string]bool),
	}
	for _, step := range flatten(steps) {
		s.stepsByID[step.ID] = step
		if step.Branching {
			s.branchingFields[step.Field] = true
		}
	}
	return s
}

// Build строит свежий список узлов по текущим ответам; курсор — в начало.
func (s *Sequencer) Build(answers models.AnswerMap) {
	s.nodes = buildNodes(s.steps, answers)
	s.index = 0
	s.bumpWatermark()
}

// Restore восстанавливает состояние из сохраненной сессии:
// узлы детерминированно перестраиваются из ответов, курсор и водяной знак
// возвращаются на сохраненные позиции (с зажимом в допустимые границы).
func (s *Sequencer) Restore(answers models.AnswerMap, index, watermark int) {
	s.nodes = buildNodes(s.steps, answers)
	s.index = index
	s.clampIndex()
	s.maxInputSeen = watermark
	s.bumpWatermark()
}

// Next продвигает курсор на один узел.
// Возвращает true (завершение), если текущий узел — последний; курсор при
// этом не двигается. Если текущий узел ввода помечен ветвящимся,
// последовательность перестраивается по свежим ответам ДО продвижения,
// а курсор возвращается на структурно тот же узел.
func (s *Sequencer) Next(answers models.AnswerMap) (completed bool) {
	if len(s.nodes) == 0 {
		return true
	}
	if s.index >= len(s.nodes)-1 {
		return true
	}
	current := s.nodes[s.index]
	if current.Kind == NodeInput && s.stepsByID[current.Step].Branching {
		s.rebuildAndReposition(answers, current)
	}
	s.index++
	s.clampIndex()
	return false
}

// Back отступает на предыдущий узел ввода, перешагивая интерстишлы.
// Если более раннего узла ввода нет — no-op: интерстишл никогда не бывает
// посадочной позицией для Back.
func (s *Sequencer) Back() {
	for i := s.index - 1; i >= 0; i-- {
		if s.nodes[i].Kind == NodeInput {
			s.index = i
			return
		}
	}
}

// Reset возвращает курсор в начало, сбрасывает водяной знак и строит
// последовательность заново.
func (s *Sequencer) Reset(answers models.AnswerMap) {
	s.maxInputSeen = 0
	s.Build(answers)
}

// Refresh перестраивает последовательность по свежим ответам, сохраняя
// позицию курсора на структурно том же узле. Вызывается, когда изменился
// ответ на ветвящееся поле вне перехода Next.
func (s *Sequencer) Refresh(answers models.AnswerMap) {
	if len(s.nodes) == 0 {
		s.Build(answers)
		return
	}
	s.rebuildAndReposition(answers, s.nodes[s.index])
}

// rebuildAndReposition строит свежий список и ищет в нем узел, структурно
// равный прежнему текущему. Если узел исчез вместе со своей веткой, курсор
// остается на прежнем числовом индексе, зажатом в новые границы.
func (s *Sequencer) rebuildAndReposition(answers models.AnswerMap, current Node) {
	fresh := buildNodes(s.steps, answers)
	found := -1
	for i, node := range fresh {
		if sameIdentity(node, current) {
			found = i
			break
		}
	}
	s.nodes = fresh
	if found >= 0 {
		s.index = found
	}
	s.clampIndex()
	s.bumpWatermark()
}

// Current возвращает текущий узел; ok == false, пока список не построен.
func (s *Sequencer) Current() (node Node, ok bool) {
	if len(s.nodes) == 0 {
		return Node{}, false
	}
	return s.nodes[s.index], true
}

// Nodes возвращает копию списка узлов.
func (s *Sequencer) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Index возвращает текущую позицию курсора.
func (s *Sequencer) Index() int { return s.index }

// Watermark возвращает максимум шагов ввода, виденный за все перестроения.
func (s *Sequencer) Watermark() int { return s.maxInputSeen }

// IsBranchingField сообщает, перестраивает ли изменение этого поля анкету.
func (s *Sequencer) IsBranchingField(field string) bool {
	return s.branchingFields[field]
}

// Progress возвращает долю пройденных шагов ввода в [0, 1].
// Знаменатель — водяной знак (не убывает при перестроениях), числитель —
// число узлов ввода от начала до курсора включительно, минимум 1.
func (s *Sequencer) Progress() float64 {
	if s.maxInputSeen == 0 {
		return 0
	}
	done := 0
	for i := 0; i <= s.index && i < len(s.nodes); i++ {
		if s.nodes[i].Kind == NodeInput {
			done++
		}
	}
	if done < 1 {
		done = 1
	}
	return float64(done) / float64(s.maxInputSeen)
}

func (s *Sequencer) inputCount() int {
	count := 0
	for _, node := range s.nodes {
		if node.Kind == NodeInput {
			count++
		}
	}
	return count
}

func (s *Sequencer) bumpWatermark() {
	if count := s.inputCount(); count > s.maxInputSeen {
		s.maxInputSeen = count
	}
}

func (s *Sequencer) clampIndex() {
	if s.index < 0 {
		s.index = 0
	}
	if last := len(s.nodes) - 1; s.index > last && last >= 0 {
		s.index = last
	}
	if len(s.nodes) == 0 {
		s.index = 0
	}
}

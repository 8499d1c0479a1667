package sequence

import "concierge-server/shared/models"

// NodeKind различает два вида узлов последовательности.
type NodeKind string

const (
	// NodeInterstitial — переходный экран-реакция между шагами ввода.
	NodeInterstitial NodeKind = "interstitial"
	// NodeInput — экран вопроса, привязанный ровно к одному шагу.
	NodeInput NodeKind = "input"
)

// Node — один элемент последовательности анкеты.
// Узлы — неизменяемые значения: каждый вызов построения создает их заново.
//
// Интерстишл идентифицируется шагом, после которого он показывается
// (AfterStep == nil у вступительного), узел ввода — своим шагом.
type Node struct {
	Kind NodeKind `json:"kind"`
	// AfterStep заполнен только у интерстишлов; nil для первого узла.
	AfterStep *StepID `json:"afterStep,omitempty"`
	// Step заполнен только у узлов ввода.
	Step StepID `json:"step,omitempty"`
}

// sameIdentity сравнивает узлы по структурной идентичности:
// интерстишлы — по шагу "после", узлы ввода — по идентификатору шага.
func sameIdentity(a, b Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == NodeInput {
		return a.Step == b.Step
	}
	if a.AfterStep == nil || b.AfterStep == nil {
		return a.AfterStep == nil && b.AfterStep == nil
	}
	return *a.AfterStep == *b.AfterStep
}

// buildNodes разворачивает список шагов в список узлов:
// пара интерстишл+ввод на каждый шаг, первый интерстишл — вступительный.
// Ветвления раскрываются по текущим ответам.
func buildNodes(steps []Step, answers models.AnswerMap) []Node {
	nodes := make([]Node, 0, len(steps)*2)
	var prev *StepID
	appendSteps(&nodes, &prev, steps, answers)
	return nodes
}

func appendSteps(nodes *[]Node, prev **StepID, steps []Step, answers models.AnswerMap) {
	for _, step := range steps {
		*nodes = append(*nodes,
			Node{Kind: NodeInterstitial, AfterStep: *prev},
			Node{Kind: NodeInput, Step: step.ID},
		)
		after := step.ID // копия: указатель не должен смотреть на переменную цикла
		*prev = &after
		if step.Branch != nil {
			appendSteps(nodes, prev, step.Branch.choose(answers), answers)
		}
	}
}

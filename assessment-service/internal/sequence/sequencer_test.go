package sequence

import (
	"testing"

	"concierge-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rentAnswers() models.AnswerMap {
	return models.AnswerMap{
		"DwellingType": models.StringAnswer("Rent"),
	}
}

// indexOfInput возвращает индекс узла ввода с данным шагом (-1, если нет).
func indexOfInput(nodes []Node, step StepID) int {
	for i, n := range nodes {
		if n.Kind == NodeInput && n.Step == step {
			return i
		}
	}
	return -1
}

func countInputs(nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.Kind == NodeInput {
			count++
		}
	}
	return count
}

func TestBuild_PairPerStep(t *testing.T) {
	s := New(nil)
	s.Build(models.AnswerMap{})

	nodes := s.Nodes()
	require.NotEmpty(t, nodes)

	// Первый узел — вступительный интерстишл без шага "после".
	assert.Equal(t, NodeInterstitial, nodes[0].Kind)
	assert.Nil(t, nodes[0].AfterStep)

	// Узлы идут парами: интерстишл, затем ввод.
	require.Equal(t, 0, len(nodes)%2)
	for i := 0; i < len(nodes); i += 2 {
		assert.Equal(t, NodeInterstitial, nodes[i].Kind)
		assert.Equal(t, NodeInput, nodes[i+1].Kind)
	}

	// Каждый интерстишл, кроме первого, ссылается на предыдущий шаг ввода.
	for i := 2; i < len(nodes); i += 2 {
		require.NotNil(t, nodes[i].AfterStep)
		assert.Equal(t, nodes[i-1].Step, *nodes[i].AfterStep)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	answers := rentAnswers()

	a := New(nil)
	a.Build(answers)
	b := New(nil)
	b.Build(answers)

	assert.Equal(t, a.Nodes(), b.Nodes(), "одинаковые ответы обязаны давать одинаковый список узлов")
}

func TestBuild_BranchSelection(t *testing.T) {
	t.Run("rent branch", func(t *testing.T) {
		s := New(nil)
		s.Build(rentAnswers())
		nodes := s.Nodes()

		assert.NotEqual(t, -1, indexOfInput(nodes, StepLeaseEndDate))
		assert.NotEqual(t, -1, indexOfInput(nodes, StepSecurityDeposit))
		assert.Equal(t, -1, indexOfInput(nodes, StepHomeSaleStatus))
	})

	t.Run("own branch when answered Own", func(t *testing.T) {
		s := New(nil)
		s.Build(models.AnswerMap{"DwellingType": models.StringAnswer("Own")})
		nodes := s.Nodes()

		assert.Equal(t, -1, indexOfInput(nodes, StepLeaseEndDate))
		assert.NotEqual(t, -1, indexOfInput(nodes, StepHomeSaleStatus))
	})

	t.Run("else branch when unanswered", func(t *testing.T) {
		s := New(nil)
		s.Build(models.AnswerMap{})
		nodes := s.Nodes()

		assert.Equal(t, -1, indexOfInput(nodes, StepLeaseEndDate))
		assert.NotEqual(t, -1, indexOfInput(nodes, StepHomeSaleStatus))
	})

	t.Run("pets branch only on Yes", func(t *testing.T) {
		s := New(nil)
		s.Build(models.AnswerMap{"AnyPets": models.StringAnswer("Yes")})
		assert.NotEqual(t, -1, indexOfInput(s.Nodes(), StepPetTypes))

		s.Build(models.AnswerMap{"AnyPets": models.StringAnswer("No")})
		assert.Equal(t, -1, indexOfInput(s.Nodes(), StepPetTypes))
	})

	t.Run("bool answer selects branch via coercion", func(t *testing.T) {
		s := New(nil)
		s.Build(models.AnswerMap{"AnyPets": models.BoolAnswer(true)})
		assert.NotEqual(t, -1, indexOfInput(s.Nodes(), StepPetTypes))
	})
}

func TestNext_AdvancesAndCompletes(t *testing.T) {
	answers := models.AnswerMap{}
	s := New(nil)
	s.Build(answers)

	total := len(s.Nodes())
	for i := 0; i < total-1; i++ {
		assert.False(t, s.Next(answers), "до последнего узла Next не должен сигналить завершение")
	}
	assert.Equal(t, total-1, s.Index())

	// На последнем узле Next сигналит завершение и не двигает курсор.
	assert.True(t, s.Next(answers))
	assert.Equal(t, total-1, s.Index())
	assert.True(t, s.Next(answers), "повторный вызов — по-прежнему завершение")
}

func TestNext_BranchingRebuildKeepsPosition(t *testing.T) {
	answers := models.AnswerMap{}
	s := New(nil)
	s.Build(answers)

	// Доходим до шага AnyPets.
	target := indexOfInput(s.Nodes(), StepAnyPets)
	require.NotEqual(t, -1, target)
	for s.Index() < target {
		require.False(t, s.Next(answers))
	}

	// Пользователь ответил "Yes": Next перестраивает список до продвижения.
	answers["AnyPets"] = models.StringAnswer("Yes")
	require.False(t, s.Next(answers))

	nodes := s.Nodes()
	petIdx := indexOfInput(nodes, StepPetTypes)
	require.NotEqual(t, -1, petIdx, "ветка питомцев должна появиться после перестроения")

	// Курсор — на интерстишле сразу после AnyPets, перед новым шагом.
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, NodeInterstitial, current.Kind)
	require.NotNil(t, current.AfterStep)
	assert.Equal(t, StepAnyPets, *current.AfterStep)

	require.False(t, s.Next(answers))
	current, _ = s.Current()
	assert.Equal(t, NodeInput, current.Kind)
	assert.Equal(t, StepPetTypes, current.Step)
}

func TestWatermark_NeverDecreases(t *testing.T) {
	answers := models.AnswerMap{"AnyPets": models.StringAnswer("Yes")}
	s := New(nil)
	s.Build(answers)

	withPets := s.Watermark()
	assert.Equal(t, countInputs(s.Nodes()), withPets)

	// Ответ изменился, ветка питомцев пропала — знак остается прежним.
	answers["AnyPets"] = models.StringAnswer("No")
	s.Refresh(answers)

	assert.Less(t, countInputs(s.Nodes()), withPets)
	assert.Equal(t, withPets, s.Watermark())

	// И обратно: рост снова разрешен.
	answers["AnyPets"] = models.StringAnswer("Yes")
	s.Refresh(answers)
	assert.Equal(t, withPets, s.Watermark())
}

func TestRefresh_CursorFallbackWhenNodeRemoved(t *testing.T) {
	answers := models.AnswerMap{"AnyPets": models.StringAnswer("Yes")}
	s := New(nil)
	s.Build(answers)

	// Встаем на шаг из ветки питомцев.
	target := indexOfInput(s.Nodes(), StepPetTypes)
	require.NotEqual(t, -1, target)
	for s.Index() < target {
		require.False(t, s.Next(answers))
	}

	// Ветка исчезает: прежний узел не найден, курсор остается на своем
	// числовом индексе, зажатом в новые границы.
	answers["AnyPets"] = models.StringAnswer("No")
	s.Refresh(answers)

	assert.Equal(t, -1, indexOfInput(s.Nodes(), StepPetTypes))
	assert.LessOrEqual(t, s.Index(), len(s.Nodes())-1)
	_, ok := s.Current()
	assert.True(t, ok)
}

func TestBack(t *testing.T) {
	answers := models.AnswerMap{}
	s := New(nil)
	s.Build(answers)

	t.Run("no-op before any input", func(t *testing.T) {
		require.Equal(t, 0, s.Index())
		s.Back()
		assert.Equal(t, 0, s.Index())
	})

	t.Run("no-op on first input", func(t *testing.T) {
		require.False(t, s.Next(answers)) // -> первый узел ввода
		first := s.Index()
		s.Back()
		assert.Equal(t, first, s.Index())
	})

	t.Run("lands on previous input, skipping interstitials", func(t *testing.T) {
		require.False(t, s.Next(answers)) // -> интерстишл
		require.False(t, s.Next(answers)) // -> второй узел ввода
		second := s.Index()

		s.Back()
		current, _ := s.Current()
		assert.Equal(t, NodeInput, current.Kind)
		assert.Equal(t, second-2, s.Index())

		// Back всегда приземляется на узел ввода, никогда на интерстишл.
		s.Next(answers) // -> интерстишл
		currentKind := func() NodeKind { n, _ := s.Current(); return n.Kind }
		require.Equal(t, NodeInterstitial, currentKind())
		s.Back()
		assert.Equal(t, NodeInput, currentKind())
	})
}

func TestReset(t *testing.T) {
	answers := models.AnswerMap{"AnyPets": models.StringAnswer("Yes")}
	s := New(nil)
	s.Build(answers)
	for i := 0; i < 5; i++ {
		s.Next(answers)
	}
	require.NotEqual(t, 0, s.Index())

	answers["AnyPets"] = models.StringAnswer("No")
	s.Reset(answers)

	assert.Equal(t, 0, s.Index())
	// Водяной знак очищается и заново равен числу шагов свежего построения.
	assert.Equal(t, countInputs(s.Nodes()), s.Watermark())
}

func TestProgress(t *testing.T) {
	t.Run("zero before build", func(t *testing.T) {
		s := New(nil)
		assert.Zero(t, s.Progress())
	})

	t.Run("floor of one input at the start", func(t *testing.T) {
		s := New(nil)
		s.Build(models.AnswerMap{})
		want := 1.0 / float64(s.Watermark())
		assert.InDelta(t, want, s.Progress(), 1e-9)
	})

	t.Run("grows with the cursor and reaches one", func(t *testing.T) {
		answers := models.AnswerMap{}
		s := New(nil)
		s.Build(answers)

		last := s.Progress()
		for !s.Next(answers) {
			p := s.Progress()
			assert.GreaterOrEqual(t, p, last)
			assert.LessOrEqual(t, p, 1.0)
			last = p
		}
		assert.InDelta(t, 1.0, s.Progress(), 1e-9)
	})

	t.Run("denominator keeps the watermark after shrink", func(t *testing.T) {
		answers := models.AnswerMap{"AnyPets": models.StringAnswer("Yes")}
		s := New(nil)
		s.Build(answers)
		watermark := s.Watermark()

		answers["AnyPets"] = models.StringAnswer("No")
		s.Refresh(answers)

		want := 1.0 / float64(watermark)
		assert.InDelta(t, want, s.Progress(), 1e-9)
	})
}

func TestRestore(t *testing.T) {
	answers := rentAnswers()

	s := New(nil)
	s.Restore(answers, 99, 3)

	// Индекс зажат в границы, водяной знак подтянут до фактического числа шагов.
	assert.Equal(t, len(s.Nodes())-1, s.Index())
	assert.Equal(t, countInputs(s.Nodes()), s.Watermark())

	// Сохраненный водяной знак больше фактического — сохраняется.
	s2 := New(nil)
	s2.Restore(answers, 0, 42)
	assert.Equal(t, 42, s2.Watermark())
}

func TestIsBranchingField(t *testing.T) {
	s := New(nil)
	assert.True(t, s.IsBranchingField("DwellingType"))
	assert.True(t, s.IsBranchingField("AnyPets"))
	assert.False(t, s.IsBranchingField("MoveDate"))
	assert.False(t, s.IsBranchingField("PetTypes"))
}

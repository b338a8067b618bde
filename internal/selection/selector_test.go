package selection

import (
	"context"
	"math/rand"
	"testing"

	"aptitude-service/internal/models"
	"aptitude-service/internal/source"
)

// stubSource replays a scripted sequence of candidates. A nil entry means
// the bank is empty for that call.
type stubSource struct {
	script []*models.Question
	calls  int
	// seenCriteria records every criteria the selector asked with.
	seenCriteria []source.Criteria
}

func (s *stubSource) FetchOne(_ context.Context, criteria source.Criteria) (*models.Question, error) {
	s.seenCriteria = append(s.seenCriteria, criteria)
	if s.calls >= len(s.script) {
		return nil, source.ErrNoQuestions
	}
	q := s.script[s.calls]
	s.calls++
	if q == nil {
		return nil, source.ErrNoQuestions
	}
	return q, nil
}

func (s *stubSource) FetchBatch(ctx context.Context, criteria source.Criteria, count int) ([]models.Question, error) {
	var out []models.Question
	for i := 0; i < count; i++ {
		q, err := s.FetchOne(ctx, criteria)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		out = append(out, *q)
	}
	return out, nil
}

func q(id, text string) *models.Question {
	return &models.Question{
		ID:         id,
		Text:       text,
		Difficulty: 3,
		Subtag:     "numerical_reasoning",
		GradeLevel: 5,
	}
}

func newTestSelector(src source.QuestionSource) *Selector {
	return NewSelector(src, rand.New(rand.NewSource(42)))
}

func TestPickFirstTrySuccess(t *testing.T) {
	src := &stubSource{script: []*models.Question{q("q1", "What is 2+2?")}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question.ID != "q1" || outcome.Attempts != 1 || outcome.Degraded() {
		t.Errorf("Expected clean first-try pick, got %+v", outcome)
	}
}

func TestPickRetriesPastDuplicates(t *testing.T) {
	src := &stubSource{script: []*models.Question{
		q("seen", "Already answered question"),
		q("fresh", "A brand new question"),
	}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{
		GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning",
		ExcludeIDs: []string{"seen"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question.ID != "fresh" {
		t.Errorf("Expected the fresh question, got %s", outcome.Question.ID)
	}
	if outcome.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", outcome.Attempts)
	}

	// The rejected candidate must have joined the exclusion set.
	last := src.seenCriteria[len(src.seenCriteria)-1]
	found := false
	for _, id := range last.ExcludeIDs {
		if id == "seen" {
			found = true
		}
	}
	if !found {
		t.Error("Expected rejected candidate id in the follow-up exclusion set")
	}
}

func TestPickDetectsDuplicateByNormalizedText(t *testing.T) {
	src := &stubSource{script: []*models.Question{
		q("other-id", "  WHAT is   2+2? "),
		q("fresh", "A brand new question"),
	}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{
		GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning",
		ExcludeTexts: []string{"what is 2+2?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question.ID != "fresh" {
		t.Errorf("Expected text collision to be rejected, got %s", outcome.Question.ID)
	}
}

func TestPickFallbackSubtagSuccess(t *testing.T) {
	src := &stubSource{script: []*models.Question{
		q("dup", "Repeat one"), q("dup", "Repeat one"), q("dup", "Repeat one"),
		q("fresh", "From another subtag"),
	}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{
		GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning",
		ExcludeIDs: []string{"dup"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question.ID != "fresh" || !outcome.UsedFallback {
		t.Errorf("Expected fallback pick of fresh question, got %+v", outcome)
	}
	// The fallback query must not reuse the colliding subtag.
	last := src.seenCriteria[len(src.seenCriteria)-1]
	if last.Subtag == "numerical_reasoning" || last.Subtag == "" {
		t.Errorf("Expected an alternate subtag on fallback, got %q", last.Subtag)
	}
}

func TestPickAcceptsRepeatWithWarning(t *testing.T) {
	dup := q("dup", "Repeat one")
	src := &stubSource{script: []*models.Question{dup, dup, dup, dup}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{
		GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning",
		ExcludeIDs: []string{"dup"},
	})
	if err != nil {
		t.Fatalf("the selector must never block on duplicates, got error: %v", err)
	}
	if outcome.Question == nil || outcome.Question.ID != "dup" {
		t.Fatalf("Expected the repeat to be served, got %+v", outcome)
	}
	if !outcome.Degraded() {
		t.Error("Expected a warning on an accepted repeat")
	}
}

func TestPickWidensWhenBankEmpty(t *testing.T) {
	// Empty for subtag query, empty for no-subtag, hit without grade.
	src := &stubSource{script: []*models.Question{nil, nil, q("wide", "Found after widening")}}
	sel := newTestSelector(src)

	outcome, err := sel.Pick(context.Background(), Request{GradeLevel: 5, Difficulty: 3, Subtag: "spatial_reasoning"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question.ID != "wide" || !outcome.Widened {
		t.Errorf("Expected widened pick, got %+v", outcome)
	}

	criteria := src.seenCriteria
	if len(criteria) != 3 {
		t.Fatalf("Expected 3 source calls, got %d", len(criteria))
	}
	if criteria[1].Subtag != "" {
		t.Error("Expected second call without subtag filter")
	}
	if criteria[2].GradeLevel != 0 {
		t.Error("Expected third call without grade filter")
	}
}

func TestPickHardFailureWhenExhausted(t *testing.T) {
	src := &stubSource{}
	sel := newTestSelector(src)

	_, err := sel.Pick(context.Background(), Request{GradeLevel: 5, Difficulty: 3, Subtag: "verbal_reasoning"})
	if err != source.ErrNoQuestions {
		t.Fatalf("Expected ErrNoQuestions for a fully empty bank, got %v", err)
	}
}

func TestPickBatchExcludesWithinBatch(t *testing.T) {
	src := &stubSource{script: []*models.Question{
		q("q1", "First"), q("q2", "Second"), q("q3", "Third"),
	}}
	sel := newTestSelector(src)

	questions, warnings, err := sel.PickBatch(context.Background(), Request{GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 3 || len(warnings) != 0 {
		t.Fatalf("Expected 3 clean picks, got %d questions %d warnings", len(questions), len(warnings))
	}
	seen := map[string]bool{}
	for _, question := range questions {
		if seen[question.ID] {
			t.Errorf("duplicate %s within batch", question.ID)
		}
		seen[question.ID] = true
	}
}

func TestSelectorDeterministicWithSeed(t *testing.T) {
	run := func() string {
		dup := q("dup", "Repeat one")
		src := &stubSource{script: []*models.Question{dup, dup, dup, q("x", "Fresh")}}
		sel := NewSelector(src, rand.New(rand.NewSource(7)))
		_, err := sel.Pick(context.Background(), Request{
			GradeLevel: 5, Difficulty: 3, Subtag: "numerical_reasoning",
			ExcludeIDs: []string{"dup"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return src.seenCriteria[len(src.seenCriteria)-1].Subtag
	}

	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); got != first {
			t.Fatalf("fallback subtag drifted with a fixed seed: %s vs %s", first, got)
		}
	}
}

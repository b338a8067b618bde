package selection

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"aptitude-service/internal/models"
	"aptitude-service/internal/source"
)

// maxRetries bounds how many colliding candidates a single pick will reject
// before falling back to another subtag.
const maxRetries = 3

// Selector guarantees, best-effort, that a session never sees the same
// question twice. It asks the question source for candidates with a growing
// exclusion set, retries a bounded number of times on collisions, falls
// back to a different subtag once, and as a last resort accepts a duplicate
// with a warning rather than blocking the exam.
type Selector struct {
	src  source.QuestionSource
	rand *rand.Rand
}

// NewSelector builds a selector around the given source. The RNG is
// injected so subtag rotation is reproducible in tests.
func NewSelector(src source.QuestionSource, rng *rand.Rand) *Selector {
	return &Selector{src: src, rand: rng}
}

// Pick returns the next question for the request. The error is non-nil only
// when the source is exhausted even after widening the query; duplicate
// collisions never fail a pick.
func (s *Selector) Pick(ctx context.Context, req Request) (*Outcome, error) {
	outcome := &Outcome{}
	exclude := newExclusionSet(req.ExcludeIDs, req.ExcludeTexts)

	criteria := source.Criteria{
		GradeLevel:   req.GradeLevel,
		Difficulty:   req.Difficulty,
		Subtag:       req.Subtag,
		Phase:        req.Phase,
		ExcludeIDs:   exclude.ids(),
		ExcludeTexts: exclude.texts(),
	}

	// Bounded retry ladder: each rejected candidate grows the exclusion
	// set so the source cannot hand it back.
	var lastCandidate *models.Question
	for attempt := 1; attempt <= maxRetries; attempt++ {
		outcome.Attempts = attempt
		candidate, err := s.fetchWidening(ctx, criteria, outcome)
		if err != nil {
			// The bank ran dry while we were rejecting duplicates:
			// serve the duplicate rather than fail the request.
			if err == source.ErrNoQuestions && lastCandidate != nil {
				return s.acceptRepeat(outcome, lastCandidate), nil
			}
			return nil, err
		}
		if !exclude.collides(candidate) {
			outcome.Question = candidate
			return outcome, nil
		}
		lastCandidate = candidate
		exclude.add(candidate)
		criteria.ExcludeIDs = exclude.ids()
		criteria.ExcludeTexts = exclude.texts()
	}

	// All retries collided: one fallback with a different subtag.
	fallback := criteria
	fallback.Subtag = s.alternateSubtag(req.Subtag)
	outcome.UsedFallback = true
	outcome.Attempts++
	candidate, err := s.fetchWidening(ctx, fallback, outcome)
	if err != nil {
		if err == source.ErrNoQuestions {
			return s.acceptRepeat(outcome, lastCandidate), nil
		}
		return nil, err
	}
	if !exclude.collides(candidate) {
		outcome.Question = candidate
		return outcome, nil
	}

	// Duplicate avoidance is best-effort: serve the repeat rather than
	// strand the student mid-exam.
	return s.acceptRepeat(outcome, candidate), nil
}

func (s *Selector) acceptRepeat(outcome *Outcome, repeat *models.Question) *Outcome {
	warning := fmt.Sprintf("accepted repeat question %s after %d attempts", repeat.ID, outcome.Attempts)
	outcome.Warnings = append(outcome.Warnings, warning)
	outcome.Question = repeat
	log.Printf("[Selector] WARNING: %s", warning)
	return outcome
}

// PickBatch assembles count questions, feeding each pick's result into the
// next pick's exclusion set.
func (s *Selector) PickBatch(ctx context.Context, req Request, count int) ([]models.Question, []string, error) {
	questions := make([]models.Question, 0, count)
	var warnings []string

	excludeIDs := append([]string{}, req.ExcludeIDs...)
	excludeTexts := append([]string{}, req.ExcludeTexts...)

	for i := 0; i < count; i++ {
		r := req
		r.ExcludeIDs = excludeIDs
		r.ExcludeTexts = excludeTexts
		if req.Subtag == "" {
			// Rotate subtags so a batch exercises a spread of skills.
			r.Subtag = models.Subtags[(i+s.rand.Intn(len(models.Subtags)))%len(models.Subtags)]
		}

		outcome, err := s.Pick(ctx, r)
		if err != nil {
			return nil, warnings, err
		}
		questions = append(questions, *outcome.Question)
		warnings = append(warnings, outcome.Warnings...)
		excludeIDs = append(excludeIDs, outcome.Question.ID)
		excludeTexts = append(excludeTexts, outcome.Question.NormalizedText())
	}
	return questions, warnings, nil
}

// fetchWidening asks the source for one candidate, widening the query when
// the bank is empty for the criteria: first the subtag filter goes, then
// the exact grade. Only a fully widened empty bank is a hard failure.
func (s *Selector) fetchWidening(ctx context.Context, criteria source.Criteria, outcome *Outcome) (*models.Question, error) {
	q, err := s.src.FetchOne(ctx, criteria)
	if err == nil {
		return q, nil
	}
	if err != source.ErrNoQuestions {
		return nil, err
	}

	if criteria.Subtag != "" {
		criteria.Subtag = ""
		outcome.Widened = true
		outcome.Warnings = append(outcome.Warnings, "widened query: dropped subtag filter")
		if q, err = s.src.FetchOne(ctx, criteria); err == nil {
			return q, nil
		}
		if err != source.ErrNoQuestions {
			return nil, err
		}
	}

	if criteria.GradeLevel > 0 {
		criteria.GradeLevel = 0
		outcome.Widened = true
		outcome.Warnings = append(outcome.Warnings, "widened query: dropped grade filter")
		if q, err = s.src.FetchOne(ctx, criteria); err == nil {
			return q, nil
		}
		if err != source.ErrNoQuestions {
			return nil, err
		}
	}

	return nil, source.ErrNoQuestions
}

// alternateSubtag picks a random subtag other than the one that kept
// colliding.
func (s *Selector) alternateSubtag(current string) string {
	candidates := make([]string, 0, len(models.Subtags))
	for _, tag := range models.Subtags {
		if tag != current {
			candidates = append(candidates, tag)
		}
	}
	return candidates[s.rand.Intn(len(candidates))]
}

// exclusionSet tracks seen question ids and normalized texts.
type exclusionSet struct {
	byID   map[string]bool
	byText map[string]bool
}

func newExclusionSet(ids, texts []string) *exclusionSet {
	set := &exclusionSet{byID: make(map[string]bool), byText: make(map[string]bool)}
	for _, id := range ids {
		set.byID[id] = true
	}
	for _, text := range texts {
		set.byText[models.NormalizeText(text)] = true
	}
	return set
}

func (e *exclusionSet) collides(q *models.Question) bool {
	if q == nil {
		return true
	}
	return e.byID[q.ID] || e.byText[q.NormalizedText()]
}

func (e *exclusionSet) add(q *models.Question) {
	e.byID[q.ID] = true
	e.byText[q.NormalizedText()] = true
}

func (e *exclusionSet) ids() []string {
	ids := make([]string, 0, len(e.byID))
	for id := range e.byID {
		ids = append(ids, id)
	}
	return ids
}

func (e *exclusionSet) texts() []string {
	texts := make([]string, 0, len(e.byText))
	for text := range e.byText {
		texts = append(texts, text)
	}
	return texts
}

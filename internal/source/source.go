package source

import (
	"context"
	"errors"

	"aptitude-service/internal/models"
)

// ErrNoQuestions signals the bank had zero candidates for the criteria,
// after any generator top-up. Callers widen the query before treating it as
// a hard failure.
var ErrNoQuestions = errors.New("no questions available for criteria")

// Criteria filters a question request. Zero values relax the corresponding
// filter: GradeLevel 0 matches any grade, empty Subtag matches any subtag.
// Phase is a generation hint passed to the question generator, not a bank
// filter; a question written for one phase is servable in any other.
type Criteria struct {
	GradeLevel   int      `json:"grade_level,omitempty"`
	Difficulty   int      `json:"difficulty"`
	Subtag       string   `json:"subtag,omitempty"`
	Phase        string   `json:"phase,omitempty"`
	ExcludeIDs   []string `json:"exclude_question_ids,omitempty"`
	ExcludeTexts []string `json:"exclude_texts,omitempty"`
}

// QuestionSource is the contract to the external question bank. The bank is
// filled by the question-generation service; this side only reads.
type QuestionSource interface {
	// FetchOne returns a single candidate matching the criteria, or
	// ErrNoQuestions when the bank has nothing left for them.
	FetchOne(ctx context.Context, criteria Criteria) (*models.Question, error)
	// FetchBatch returns up to count questions matching the criteria. It
	// may return fewer than requested; an empty result is ErrNoQuestions.
	FetchBatch(ctx context.Context, criteria Criteria, count int) ([]models.Question, error)
}

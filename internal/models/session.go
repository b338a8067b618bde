package models

import "time"

// Exam phases, in order. A session walks them strictly forward.
const (
	PhaseDiagnostic = "diagnostic_screener"
	PhaseAdaptive   = "adaptive_core"
	PhaseStability  = "stability_confirmation"
	PhaseCompleted  = "completed"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Session is one exam attempt. All durable per-attempt state lives here;
// handlers read it fully, mutate, and write it back under a version guard.
type Session struct {
	ID                string `bson:"_id,omitempty" json:"id"`
	StudentID         string `bson:"student_id" json:"student_id"`
	GradeLevel        int    `bson:"grade_level" json:"grade_level"`
	CurrentPhase      string `bson:"current_phase" json:"current_phase"`
	CurrentDifficulty int    `bson:"current_difficulty" json:"current_difficulty"`
	// DifficultyPath gets one entry appended per answered question, the
	// difficulty the session was at when the question was answered.
	DifficultyPath        []int      `bson:"difficulty_path" json:"difficulty_path"`
	QuestionsAnswered     int        `bson:"questions_answered" json:"questions_answered"`
	CorrectAnswers        int        `bson:"correct_answers" json:"correct_answers"`
	CurrentQuestionIndex  int        `bson:"current_question_index" json:"current_question_index"`
	CurrentPhaseQuestions []Question `bson:"current_phase_questions" json:"current_phase_questions"`
	ProvisionalBand       int        `bson:"provisional_band" json:"provisional_band"`
	Tier                  string     `bson:"tier" json:"tier"`
	Status                string     `bson:"status" json:"status"`
	StopConditionMet      bool       `bson:"stop_condition_met" json:"stop_condition_met"`
	StopConditionReason   string     `bson:"stop_condition_reason,omitempty" json:"stop_condition_reason,omitempty"`
	// Version increments on every write; writes filter on the version they
	// read so concurrent submits fail loudly instead of clobbering state.
	Version     int64      `bson:"version" json:"version"`
	StartedAt   time.Time  `bson:"started_at" json:"started_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Terminal reports whether the session may no longer be mutated.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAbandoned
}

// SeenQuestionKeys returns the ids and normalized texts of every question
// already queued in the current phase batch. Combined with the response
// history it forms the exclusion set for duplicate avoidance.
func (s *Session) SeenQuestionKeys() (ids []string, texts []string) {
	for i := range s.CurrentPhaseQuestions {
		ids = append(ids, s.CurrentPhaseQuestions[i].ID)
		texts = append(texts, s.CurrentPhaseQuestions[i].NormalizedText())
	}
	return ids, texts
}

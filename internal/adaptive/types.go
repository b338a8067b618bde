package adaptive

import "aptitude-service/internal/models"

type Phase string

const (
	PhaseDiagnostic Phase = models.PhaseDiagnostic
	PhaseAdaptive   Phase = models.PhaseAdaptive
	PhaseStability  Phase = models.PhaseStability
	PhaseCompleted  Phase = models.PhaseCompleted
)

type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

type Direction string

const (
	DirectionIncreased Direction = "increased"
	DirectionDecreased Direction = "decreased"
	DirectionUnchanged Direction = "unchanged"
)

type ConfidenceTag string

const (
	ConfidenceHigh     ConfidenceTag = "high"
	ConfidenceModerate ConfidenceTag = "moderate"
	ConfidenceLow      ConfidenceTag = "low"
)

type PathShape string

const (
	PathAscending   PathShape = "ascending"
	PathDescending  PathShape = "descending"
	PathStable      PathShape = "stable"
	PathFluctuating PathShape = "fluctuating"
)

// Stop condition reasons. Informational only: the adaptive core always runs
// to its full question count regardless of an early "met" signal.
const (
	StopReasonStabilized  = "difficulty_stabilized"
	StopReasonPlateauHigh = "plateau_high_accuracy"
	StopReasonPlateauLow  = "plateau_low_accuracy"
)

// Stop is the evaluator's verdict after an adaptive-core answer.
type Stop struct {
	Met     bool   `json:"met"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Config holds every numeric rule of the engine. Values ship as defaults
// here and can be overridden from the environment; nothing downstream
// hard-codes them.
type Config struct {
	DiagnosticQuestions int `json:"diagnostic_questions"`
	AdaptiveQuestions   int `json:"adaptive_questions"`
	StabilityQuestions  int `json:"stability_questions"`

	MinDifficulty      int `json:"min_difficulty"`
	MaxDifficulty      int `json:"max_difficulty"`
	StartingDifficulty int `json:"starting_difficulty"`

	// Staircase step sizes for the adaptive core.
	StepUp   int `json:"step_up"`
	StepDown int `json:"step_down"`

	// ProvisionalWindow is how many trailing path entries feed the running
	// band estimate once enough adaptive-core answers exist.
	ProvisionalWindow int `json:"provisional_window"`

	// Stop-condition thresholds.
	StabilizedWindow    int     `json:"stabilized_window"`
	PlateauWindow       int     `json:"plateau_window"`
	PlateauHighAccuracy float64 `json:"plateau_high_accuracy"`
	PlateauLowAccuracy  float64 `json:"plateau_low_accuracy"`

	// Confidence tagging.
	ConfidenceWindow    int     `json:"confidence_window"`
	HighVarianceMax     float64 `json:"high_variance_max"`
	ModerateVarianceMax float64 `json:"moderate_variance_max"`
	TimeSpreadMax       float64 `json:"time_spread_max"`

	// Path classification.
	StableVarianceMax float64 `json:"stable_variance_max"`

	// Tier classification: correct-count cutoffs over the diagnostic
	// screener and the starting difficulty each tier seeds.
	TierMediumMinCorrect int `json:"tier_medium_min_correct"`
	TierHighMinCorrect   int `json:"tier_high_min_correct"`
	TierLowStart         int `json:"tier_low_start"`
	TierMediumStart      int `json:"tier_medium_start"`
	TierHighStart        int `json:"tier_high_start"`
	// A perfect screener answered quickly starts at the ceiling.
	FastPerfectMeanMs int `json:"fast_perfect_mean_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		DiagnosticQuestions: 8,
		AdaptiveQuestions:   36,
		StabilityQuestions:  6,

		MinDifficulty:      1,
		MaxDifficulty:      5,
		StartingDifficulty: 3,

		StepUp:   1,
		StepDown: 1,

		ProvisionalWindow: 3,

		StabilizedWindow:    6,
		PlateauWindow:       8,
		PlateauHighAccuracy: 0.875,
		PlateauLowAccuracy:  0.125,

		ConfidenceWindow:    10,
		HighVarianceMax:     0.30,
		ModerateVarianceMax: 1.00,
		TimeSpreadMax:       1.0,

		StableVarianceMax: 0.5,

		TierMediumMinCorrect: 4,
		TierHighMinCorrect:   7,
		TierLowStart:         2,
		TierMediumStart:      3,
		TierHighStart:        4,
		FastPerfectMeanMs:    20000,
	}
}

// MaxTotalQuestions is the hard cap across all three phases.
func (c *Config) MaxTotalQuestions() int {
	return c.DiagnosticQuestions + c.AdaptiveQuestions + c.StabilityQuestions
}

// AdaptiveBoundary is the cumulative session total at which the adaptive
// core ends (counted from the session total, not the batch length).
func (c *Config) AdaptiveBoundary() int {
	return c.DiagnosticQuestions + c.AdaptiveQuestions
}

// ExamState is the engine's view of a session: just the fields the state
// machine reads and writes. The service layer maps it from and back onto
// the persisted session row.
type ExamState struct {
	SessionID         string `json:"session_id"`
	Phase             Phase  `json:"phase"`
	CurrentDifficulty int    `json:"current_difficulty"`
	DifficultyPath    []int  `json:"difficulty_path"`
	QuestionsAnswered int    `json:"questions_answered"`
	CorrectAnswers    int    `json:"correct_answers"`
	ProvisionalBand   int    `json:"provisional_band"`
	Tier              Tier   `json:"tier"`
	StopMet           bool   `json:"stop_met"`
	StopReason        string `json:"stop_reason,omitempty"`
}

// AnswerOutcome reports what one processed answer changed.
type AnswerOutcome struct {
	IsCorrect          bool      `json:"is_correct"`
	PreviousDifficulty int       `json:"previous_difficulty"`
	NewDifficulty      int       `json:"new_difficulty"`
	Direction          Direction `json:"direction"`
	PhaseComplete      bool      `json:"phase_complete"`
	NextPhase          Phase     `json:"next_phase,omitempty"`
	TestComplete       bool      `json:"test_complete"`
	Stop               Stop      `json:"stop_condition"`
}

// NewExamState creates the state a freshly initialized session starts in.
func NewExamState(sessionID string, cfg *Config) *ExamState {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ExamState{
		SessionID:         sessionID,
		Phase:             PhaseDiagnostic,
		CurrentDifficulty: cfg.StartingDifficulty,
		DifficultyPath:    []int{},
	}
}

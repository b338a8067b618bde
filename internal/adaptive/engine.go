package adaptive

import (
	"fmt"

	"aptitude-service/internal/models"
)

// Engine drives the exam state machine. It is pure computation: the service
// layer loads a session, hands the engine its ExamState, and persists
// whatever the engine mutated.
type Engine struct {
	config *Config
}

func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

func (e *Engine) Config() *Config {
	return e.config
}

// ProcessAnswer folds one answered question into the state: path append,
// counters, staircase adjustment, provisional band, stop-condition check,
// and phase transition when the phase's question count is reached.
// history is the full ordered response history including the answer being
// processed; it feeds the accuracy-based stop conditions and may be nil.
func (e *Engine) ProcessAnswer(state *ExamState, isCorrect bool, history []models.Response) (*AnswerOutcome, error) {
	if state.Phase == PhaseCompleted {
		return nil, fmt.Errorf("session %s already complete", state.SessionID)
	}
	if state.QuestionsAnswered >= e.config.MaxTotalQuestions() {
		return nil, fmt.Errorf("session %s reached the question cap", state.SessionID)
	}

	outcome := &AnswerOutcome{
		IsCorrect:          isCorrect,
		PreviousDifficulty: state.CurrentDifficulty,
		Direction:          DirectionUnchanged,
	}

	// One path entry per answered question, at the difficulty the question
	// was served at. Keeps questionsAnswered == len(difficultyPath).
	state.DifficultyPath = append(state.DifficultyPath, state.CurrentDifficulty)
	state.QuestionsAnswered++
	if isCorrect {
		state.CorrectAnswers++
	}

	newDifficulty, direction := e.Adjust(state.Phase, state.CurrentDifficulty, isCorrect)
	state.CurrentDifficulty = newDifficulty
	outcome.NewDifficulty = newDifficulty
	outcome.Direction = direction

	if state.Phase == PhaseAdaptive {
		e.updateProvisionalBand(state)

		stop := e.CheckStopConditions(state.QuestionsAnswered, state.DifficultyPath, history)
		outcome.Stop = stop
		if stop.Met && !state.StopMet {
			state.StopMet = true
			state.StopReason = stop.Reason
		}
	}

	e.advancePhase(state, outcome)
	return outcome, nil
}

// advancePhase moves the state to the next phase when the current phase's
// cumulative question count is reached. Counts are cumulative session
// totals, so a phase can never be skipped or re-entered.
func (e *Engine) advancePhase(state *ExamState, outcome *AnswerOutcome) {
	total := state.QuestionsAnswered

	switch state.Phase {
	case PhaseDiagnostic:
		if total >= e.config.DiagnosticQuestions {
			state.Phase = PhaseAdaptive
			outcome.PhaseComplete = true
			outcome.NextPhase = PhaseAdaptive
		}
	case PhaseAdaptive:
		if total >= e.config.AdaptiveBoundary() {
			state.Phase = PhaseStability
			outcome.PhaseComplete = true
			outcome.NextPhase = PhaseStability
		}
	case PhaseStability:
		if total >= e.config.MaxTotalQuestions() {
			state.Phase = PhaseCompleted
			outcome.PhaseComplete = true
			outcome.NextPhase = PhaseCompleted
			outcome.TestComplete = true
		}
	}

	// Belt and braces: the hard cap completes the test from any phase.
	if total >= e.config.MaxTotalQuestions() && state.Phase != PhaseCompleted {
		state.Phase = PhaseCompleted
		outcome.TestComplete = true
	}
}

// updateProvisionalBand recomputes the running difficulty estimate from the
// trailing window of the path once enough adaptive-core answers exist.
func (e *Engine) updateProvisionalBand(state *ExamState) {
	adaptiveAnswered := state.QuestionsAnswered - e.config.DiagnosticQuestions
	if adaptiveAnswered < e.config.ProvisionalWindow {
		return
	}
	window := state.DifficultyPath[len(state.DifficultyPath)-e.config.ProvisionalWindow:]
	sum := 0
	for _, d := range window {
		sum += d
	}
	state.ProvisionalBand = e.clamp(roundDiv(sum, len(window)))
}

// roundDiv is integer division rounded to nearest.
func roundDiv(sum, n int) int {
	return (sum + n/2) / n
}

package adaptive

import (
	"fmt"

	"aptitude-service/internal/models"
)

// CheckStopConditions decides whether enough evidence exists to end the
// adaptive core. The verdict is informational: the phase still runs to its
// full question count, and the signal is recorded for analytics and for a
// future early-exit feature. allResponses is the full ordered history,
// including the answer just processed.
func (e *Engine) CheckStopConditions(totalAnswered int, difficultyPath []int, allResponses []models.Response) Stop {
	adaptiveAnswered := totalAnswered - e.config.DiagnosticQuestions
	if adaptiveAnswered <= 0 {
		return Stop{}
	}

	if adaptiveAnswered >= e.config.AdaptiveQuestions {
		return Stop{
			Met:     true,
			Reason:  "max_questions",
			Message: fmt.Sprintf("adaptive core reached its %d-question limit", e.config.AdaptiveQuestions),
		}
	}

	// Difficulty has settled: the trailing window never moved.
	if w := e.config.StabilizedWindow; adaptiveAnswered >= w && len(difficultyPath) >= w {
		window := difficultyPath[len(difficultyPath)-w:]
		settled := true
		for _, d := range window[1:] {
			if d != window[0] {
				settled = false
				break
			}
		}
		if settled {
			return Stop{
				Met:     true,
				Reason:  StopReasonStabilized,
				Message: fmt.Sprintf("difficulty held at %d for the last %d questions", window[0], w),
			}
		}
	}

	// Accuracy plateau at a difficulty bound: the staircase can no longer
	// move, so further questions add little evidence.
	if w := e.config.PlateauWindow; adaptiveAnswered >= w && len(allResponses) >= w {
		window := allResponses[len(allResponses)-w:]
		correct := 0
		for _, r := range window {
			if r.IsCorrect {
				correct++
			}
		}
		accuracy := float64(correct) / float64(w)
		current := difficultyPath[len(difficultyPath)-1]

		if accuracy >= e.config.PlateauHighAccuracy && current == e.config.MaxDifficulty {
			return Stop{
				Met:     true,
				Reason:  StopReasonPlateauHigh,
				Message: fmt.Sprintf("%.0f%% correct over the last %d questions at the difficulty ceiling", accuracy*100, w),
			}
		}
		if accuracy <= e.config.PlateauLowAccuracy && current == e.config.MinDifficulty {
			return Stop{
				Met:     true,
				Reason:  StopReasonPlateauLow,
				Message: fmt.Sprintf("%.0f%% correct over the last %d questions at the difficulty floor", accuracy*100, w),
			}
		}
	}

	return Stop{}
}

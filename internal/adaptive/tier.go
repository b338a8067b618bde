package adaptive

import "aptitude-service/internal/models"

// ClassifyTier maps the ordered diagnostic-screener responses to an ability
// tier and the difficulty the adaptive core starts at. It is a pure
// function of the responses: identical screener histories always yield the
// identical (tier, startingDifficulty) pair.
func (e *Engine) ClassifyTier(diagnostic []models.Response) (Tier, int) {
	correct := 0
	totalTimeMs := 0
	for _, r := range diagnostic {
		if r.IsCorrect {
			correct++
		}
		totalTimeMs += r.ResponseTimeMs
	}

	switch {
	case correct >= e.config.TierHighMinCorrect:
		start := e.config.TierHighStart
		// A perfect screener answered quickly seeds the ceiling.
		if correct == len(diagnostic) && len(diagnostic) > 0 {
			meanMs := totalTimeMs / len(diagnostic)
			if meanMs > 0 && meanMs < e.config.FastPerfectMeanMs {
				start = e.config.MaxDifficulty
			}
		}
		return TierHigh, e.clamp(start)
	case correct >= e.config.TierMediumMinCorrect:
		return TierMedium, e.clamp(e.config.TierMediumStart)
	default:
		return TierLow, e.clamp(e.config.TierLowStart)
	}
}

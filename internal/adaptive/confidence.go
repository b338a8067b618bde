package adaptive

import (
	"math"

	"aptitude-service/internal/models"
)

// DetermineConfidenceTag labels how reliable the final ability estimate is.
// It looks at the variance of the tail of the difficulty path; a settled
// tail means the staircase converged. Wildly inconsistent response times
// over the same window downgrade the tag one level, since they suggest
// guessing or disengagement rather than measured ability.
func (e *Engine) DetermineConfidenceTag(difficultyPath []int, responses []models.Response) ConfidenceTag {
	if len(difficultyPath) == 0 {
		return ConfidenceLow
	}

	window := difficultyPath
	if len(window) > e.config.ConfidenceWindow {
		window = window[len(window)-e.config.ConfidenceWindow:]
	}

	pathVar := intVariance(window)
	var tag ConfidenceTag
	switch {
	case pathVar < e.config.HighVarianceMax:
		tag = ConfidenceHigh
	case pathVar < e.config.ModerateVarianceMax:
		tag = ConfidenceModerate
	default:
		tag = ConfidenceLow
	}

	if timeSpread(responses, e.config.ConfidenceWindow) > e.config.TimeSpreadMax {
		tag = downgrade(tag)
	}
	return tag
}

func downgrade(tag ConfidenceTag) ConfidenceTag {
	switch tag {
	case ConfidenceHigh:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

// timeSpread is the coefficient of variation of response times over the
// trailing window. Zero when there is not enough data to judge.
func timeSpread(responses []models.Response, window int) float64 {
	if len(responses) < 2 {
		return 0
	}
	if len(responses) > window {
		responses = responses[len(responses)-window:]
	}

	sum := 0.0
	for _, r := range responses {
		sum += float64(r.ResponseTimeMs)
	}
	mean := sum / float64(len(responses))
	if mean == 0 {
		return 0
	}

	ss := 0.0
	for _, r := range responses {
		d := float64(r.ResponseTimeMs) - mean
		ss += d * d
	}
	return math.Sqrt(ss/float64(len(responses))) / mean
}

// intVariance is the population variance of an int series.
func intVariance(series []int) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0
	for _, v := range series {
		sum += v
	}
	mean := float64(sum) / float64(len(series))

	ss := 0.0
	for _, v := range series {
		d := float64(v) - mean
		ss += d * d
	}
	return ss / float64(len(series))
}

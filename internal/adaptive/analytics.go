package adaptive

import (
	"strconv"

	"aptitude-service/internal/models"
)

// AccuracyByDifficulty groups the response history by difficulty level
// (keys "1".."5") into correct/total/accuracy buckets.
func AccuracyByDifficulty(responses []models.Response) map[string]models.AccuracyBucket {
	buckets := make(map[string]models.AccuracyBucket)
	for _, r := range responses {
		key := strconv.Itoa(r.DifficultyAtTime)
		b := buckets[key]
		b.Total++
		if r.IsCorrect {
			b.Correct++
		}
		buckets[key] = b
	}
	return finalize(buckets)
}

// AccuracyBySubtag groups the response history by cognitive-skill subtag.
func AccuracyBySubtag(responses []models.Response) map[string]models.AccuracyBucket {
	buckets := make(map[string]models.AccuracyBucket)
	for _, r := range responses {
		b := buckets[r.Subtag]
		b.Total++
		if r.IsCorrect {
			b.Correct++
		}
		buckets[r.Subtag] = b
	}
	return finalize(buckets)
}

func finalize(buckets map[string]models.AccuracyBucket) map[string]models.AccuracyBucket {
	for key, b := range buckets {
		if b.Total > 0 {
			b.Accuracy = float64(b.Correct) / float64(b.Total) * 100
		}
		buckets[key] = b
	}
	return buckets
}

// ClassifyPath reduces the difficulty trajectory to its overall shape.
// Monotonic paths that actually moved are ascending or descending; a path
// whose variance stays under the configured threshold is stable; anything
// else fluctuates.
func (e *Engine) ClassifyPath(path []int) PathShape {
	if len(path) < 2 {
		return PathStable
	}

	rises, falls := 0, 0
	for i := 1; i < len(path); i++ {
		switch {
		case path[i] > path[i-1]:
			rises++
		case path[i] < path[i-1]:
			falls++
		}
	}

	switch {
	case rises > 0 && falls == 0:
		return PathAscending
	case falls > 0 && rises == 0:
		return PathDescending
	case intVariance(path) < e.config.StableVarianceMax:
		return PathStable
	default:
		return PathFluctuating
	}
}

// AverageResponseTimeMs is the mean response time over the whole session.
func AverageResponseTimeMs(responses []models.Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	sum := 0
	for _, r := range responses {
		sum += r.ResponseTimeMs
	}
	return float64(sum) / float64(len(responses))
}

// AptitudeLevel derives the final difficulty estimate: the rounded mean of
// the stability-confirmation slice of the path, or the provisional band
// when no stability answers exist.
func (e *Engine) AptitudeLevel(path []int, provisionalBand int) int {
	boundary := e.config.AdaptiveBoundary()
	if len(path) <= boundary {
		if provisionalBand > 0 {
			return e.clamp(provisionalBand)
		}
		return e.config.StartingDifficulty
	}
	tail := path[boundary:]
	sum := 0
	for _, d := range tail {
		sum += d
	}
	return e.clamp(roundDiv(sum, len(tail)))
}

package adaptive

import (
	"math"
	"testing"

	"aptitude-service/internal/models"
)

func TestAccuracyBuckets(t *testing.T) {
	responses := []models.Response{
		{DifficultyAtTime: 3, Subtag: "numerical_reasoning", IsCorrect: true},
		{DifficultyAtTime: 3, Subtag: "verbal_reasoning", IsCorrect: false},
		{DifficultyAtTime: 4, Subtag: "numerical_reasoning", IsCorrect: true},
		{DifficultyAtTime: 4, Subtag: "pattern_recognition", IsCorrect: true},
		{DifficultyAtTime: 5, Subtag: "numerical_reasoning", IsCorrect: false},
	}

	byDifficulty := AccuracyByDifficulty(responses)
	if b := byDifficulty["3"]; b.Correct != 1 || b.Total != 2 || math.Abs(b.Accuracy-50) > 0.01 {
		t.Errorf("difficulty 3 bucket wrong: %+v", b)
	}
	if b := byDifficulty["4"]; b.Correct != 2 || b.Total != 2 || math.Abs(b.Accuracy-100) > 0.01 {
		t.Errorf("difficulty 4 bucket wrong: %+v", b)
	}
	if b := byDifficulty["5"]; b.Correct != 0 || b.Total != 1 || b.Accuracy != 0 {
		t.Errorf("difficulty 5 bucket wrong: %+v", b)
	}
	if len(byDifficulty) != 3 {
		t.Errorf("Expected 3 difficulty buckets, got %d", len(byDifficulty))
	}

	bySubtag := AccuracyBySubtag(responses)
	if b := bySubtag["numerical_reasoning"]; b.Correct != 2 || b.Total != 3 {
		t.Errorf("numerical_reasoning bucket wrong: %+v", b)
	}
	if b := bySubtag["verbal_reasoning"]; b.Total != 1 || b.Correct != 0 {
		t.Errorf("verbal_reasoning bucket wrong: %+v", b)
	}
}

func TestClassifyPath(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name string
		path []int
		want PathShape
	}{
		{"monotonic rise", []int{2, 2, 3, 3, 4, 5}, PathAscending},
		{"monotonic fall", []int{5, 4, 4, 3, 2, 2}, PathDescending},
		{"flat", []int{3, 3, 3, 3, 3, 3}, PathStable},
		{"small wobble", []int{3, 3, 4, 3, 3, 3, 4, 3}, PathStable},
		{"seesaw", []int{2, 4, 1, 5, 2, 4, 1, 5}, PathFluctuating},
		{"single entry", []int{3}, PathStable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.ClassifyPath(tc.path); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestAptitudeLevel(t *testing.T) {
	engine := NewEngine(nil)

	full := make([]int, 0, 50)
	for i := 0; i < 44; i++ {
		full = append(full, 3)
	}
	// Stability tail settles on 4.
	full = append(full, 4, 4, 4, 4, 5, 4)

	if got := engine.AptitudeLevel(full, 3); got != 4 {
		t.Errorf("Expected aptitude 4 from stability tail, got %d", got)
	}

	// Without stability answers the provisional band stands in.
	if got := engine.AptitudeLevel(full[:44], 4); got != 4 {
		t.Errorf("Expected provisional band fallback 4, got %d", got)
	}
}

func TestAverageResponseTimeMs(t *testing.T) {
	responses := timedResponses([]int{10000, 20000, 30000})
	if got := AverageResponseTimeMs(responses); math.Abs(got-20000) > 0.01 {
		t.Errorf("Expected mean 20000, got %.2f", got)
	}
	if got := AverageResponseTimeMs(nil); got != 0 {
		t.Errorf("Expected 0 for empty history, got %.2f", got)
	}
}

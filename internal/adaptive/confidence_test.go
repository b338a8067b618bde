package adaptive

import (
	"testing"

	"aptitude-service/internal/models"
)

func timedResponses(timesMs []int) []models.Response {
	responses := make([]models.Response, len(timesMs))
	for i, ms := range timesMs {
		responses[i] = models.Response{ResponseTimeMs: ms, SequenceNumber: i + 1}
	}
	return responses
}

func TestDetermineConfidenceTag(t *testing.T) {
	engine := NewEngine(nil)

	steadyTimes := []int{20000, 21000, 19000, 20000, 22000, 20000, 19000, 21000, 20000, 20000}
	// Mostly snap answers with one three-minute stall.
	erraticTimes := []int{1500, 1200, 2000, 1800, 900, 1600, 2200, 1100, 1300, 200000}

	wobblyPath := []int{3, 4, 3, 4, 5, 3, 4, 5, 3, 4}

	testCases := []struct {
		name    string
		path    []int
		timesMs []int
		wantTag ConfidenceTag
	}{
		{"settled tail is high", []int{3, 3, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, steadyTimes, ConfidenceHigh},
		{"mild wobble is moderate", wobblyPath, steadyTimes, ConfidenceModerate},
		{"wide swings are low", []int{1, 5, 1, 5, 1, 5, 1, 5, 1, 5}, steadyTimes, ConfidenceLow},
		{"erratic timing downgrades high", []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, erraticTimes, ConfidenceModerate},
		{"erratic timing downgrades moderate", wobblyPath, erraticTimes, ConfidenceLow},
		{"empty path is low", []int{}, nil, ConfidenceLow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tag := engine.DetermineConfidenceTag(tc.path, timedResponses(tc.timesMs))
			if tag != tc.wantTag {
				t.Errorf("Expected %s, got %s", tc.wantTag, tag)
			}
		})
	}
}

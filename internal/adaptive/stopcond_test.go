package adaptive

import (
	"testing"

	"aptitude-service/internal/models"
)

func pathOf(prefix []int, repeated int, times int) []int {
	path := append([]int{}, prefix...)
	for i := 0; i < times; i++ {
		path = append(path, repeated)
	}
	return path
}

func responsesOf(results []bool) []models.Response {
	responses := make([]models.Response, len(results))
	for i, correct := range results {
		responses[i] = models.Response{IsCorrect: correct, SequenceNumber: i + 1}
	}
	return responses
}

func TestCheckStopConditions(t *testing.T) {
	engine := NewEngine(nil)

	diagnostic := []int{3, 3, 3, 3, 3, 3, 3, 3}

	testCases := []struct {
		name       string
		total      int
		path       []int
		responses  []models.Response
		wantMet    bool
		wantReason string
	}{
		{
			name:    "no signal before adaptive core",
			total:   8,
			path:    diagnostic,
			wantMet: false,
		},
		{
			name:    "moving difficulty keeps going",
			total:   16,
			path:    append(append([]int{}, diagnostic...), 3, 4, 3, 4, 3, 4, 3, 4),
			wantMet: false,
		},
		{
			name:       "settled difficulty stabilizes",
			total:      16,
			path:       pathOf(diagnostic, 4, 8),
			wantMet:    true,
			wantReason: StopReasonStabilized,
		},
		{
			name:  "high accuracy plateau at ceiling",
			total: 18,
			path:  append(append([]int{}, diagnostic...), 3, 4, 5, 4, 5, 4, 5, 4, 5, 5),
			responses: responsesOf([]bool{
				true, true, true, true, true, true, true, true, // diagnostic
				true, true, false, true, true, true, true, true, true, true,
			}),
			wantMet:    true,
			wantReason: StopReasonPlateauHigh,
		},
		{
			name:       "adaptive limit reached",
			total:      44,
			path:       pathOf(diagnostic, 3, 36),
			wantMet:    true,
			wantReason: "max_questions",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stop := engine.CheckStopConditions(tc.total, tc.path, tc.responses)
			if stop.Met != tc.wantMet {
				t.Fatalf("Expected met=%v, got %+v", tc.wantMet, stop)
			}
			if tc.wantMet && stop.Reason != tc.wantReason {
				t.Errorf("Expected reason %q, got %q", tc.wantReason, stop.Reason)
			}
		})
	}
}

package adaptive

import "testing"

func TestAdjustStaysInRange(t *testing.T) {
	engine := NewEngine(nil)

	for d := 1; d <= 5; d++ {
		for _, correct := range []bool{true, false} {
			next, _ := engine.Adjust(PhaseAdaptive, d, correct)
			if next < 1 || next > 5 {
				t.Errorf("Adjust(%d, %v) = %d, out of [1,5]", d, correct, next)
			}
		}
	}
}

func TestAdjustStaircase(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name           string
		current        int
		isCorrect      bool
		wantDifficulty int
		wantDirection  Direction
	}{
		{"correct steps up", 3, true, 4, DirectionIncreased},
		{"wrong steps down", 3, false, 2, DirectionDecreased},
		{"correct at ceiling stays", 5, true, 5, DirectionUnchanged},
		{"wrong at floor stays", 1, false, 1, DirectionUnchanged},
		{"correct from floor", 1, true, 2, DirectionIncreased},
		{"wrong from ceiling", 5, false, 4, DirectionDecreased},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, dir := engine.Adjust(PhaseAdaptive, tc.current, tc.isCorrect)
			if got != tc.wantDifficulty {
				t.Errorf("Expected difficulty %d, got %d", tc.wantDifficulty, got)
			}
			if dir != tc.wantDirection {
				t.Errorf("Expected direction %s, got %s", tc.wantDirection, dir)
			}
		})
	}
}

func TestAdjustInactiveOutsideAdaptiveCore(t *testing.T) {
	engine := NewEngine(nil)

	for _, phase := range []Phase{PhaseDiagnostic, PhaseStability} {
		for _, correct := range []bool{true, false} {
			got, dir := engine.Adjust(phase, 3, correct)
			if got != 3 || dir != DirectionUnchanged {
				t.Errorf("Adjust in %s phase: expected passthrough (3, unchanged), got (%d, %s)", phase, got, dir)
			}
		}
	}
}

package adaptive

// Adjust applies the staircase rule: a correct answer steps the difficulty
// up, a wrong one steps it down, and the result is clamped to the
// configured range. The rule is only live during the adaptive core; every
// other phase passes the current difficulty through unchanged.
func (e *Engine) Adjust(phase Phase, current int, isCorrect bool) (int, Direction) {
	if phase != PhaseAdaptive {
		return current, DirectionUnchanged
	}

	next := current
	if isCorrect {
		next += e.config.StepUp
	} else {
		next -= e.config.StepDown
	}
	next = e.clamp(next)

	switch {
	case next > current:
		return next, DirectionIncreased
	case next < current:
		return next, DirectionDecreased
	default:
		return next, DirectionUnchanged
	}
}

func (e *Engine) clamp(d int) int {
	if d < e.config.MinDifficulty {
		return e.config.MinDifficulty
	}
	if d > e.config.MaxDifficulty {
		return e.config.MaxDifficulty
	}
	return d
}

package selection

import "aptitude-service/internal/models"

// Request describes one question the session needs next.
type Request struct {
	GradeLevel int    `json:"grade_level"`
	Difficulty int    `json:"difficulty"`
	Subtag     string `json:"subtag,omitempty"`
	Phase      string `json:"phase,omitempty"`
	// The exclusion set: everything the session has already seen, by id
	// and by normalized text.
	ExcludeIDs   []string `json:"exclude_ids"`
	ExcludeTexts []string `json:"exclude_texts"`
}

// Outcome is the explicit result of a bounded pick. Every branch of the
// retry ladder is visible in it, so each can be asserted on independently:
// first-try success, retry success, fallback success, and
// accepted-with-warning.
type Outcome struct {
	Question     *models.Question `json:"question"`
	Attempts     int              `json:"attempts"`
	UsedFallback bool             `json:"used_fallback"`
	Widened      bool             `json:"widened"`
	// Warnings is non-empty when the pick degraded: a duplicate was
	// accepted or filters had to be dropped.
	Warnings []string `json:"warnings,omitempty"`
}

// Degraded reports whether the pick had to relax a guarantee.
func (o *Outcome) Degraded() bool {
	return len(o.Warnings) > 0
}

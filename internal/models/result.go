package models

import "time"

// AccuracyBucket aggregates correctness for one difficulty level or subtag.
type AccuracyBucket struct {
	Correct  int     `bson:"correct" json:"correct"`
	Total    int     `bson:"total" json:"total"`
	Accuracy float64 `bson:"accuracy" json:"accuracy"`
}

// TestResults is derived once at completion and never recomputed.
type TestResults struct {
	ID            string `bson:"_id,omitempty" json:"id"`
	SessionID     string `bson:"session_id" json:"session_id"`
	StudentID     string `bson:"student_id" json:"student_id"`
	AptitudeLevel int    `bson:"aptitude_level" json:"aptitude_level"`
	ConfidenceTag string `bson:"confidence_tag" json:"confidence_tag"`
	Tier          string `bson:"tier" json:"tier"`

	TotalQuestions int `bson:"total_questions" json:"total_questions"`
	CorrectAnswers int `bson:"correct_answers" json:"correct_answers"`

	// Map keys are difficulty levels "1".."5" and subtag names; string keys
	// keep the documents directly queryable in Mongo.
	AccuracyByDifficulty map[string]AccuracyBucket `bson:"accuracy_by_difficulty" json:"accuracy_by_difficulty"`
	AccuracyBySubtag     map[string]AccuracyBucket `bson:"accuracy_by_subtag" json:"accuracy_by_subtag"`

	DifficultyPath        []int     `bson:"difficulty_path" json:"difficulty_path"`
	PathClassification    string    `bson:"path_classification" json:"path_classification"`
	AverageResponseTimeMs float64   `bson:"average_response_time_ms" json:"average_response_time_ms"`
	CompletedAt           time.Time `bson:"completed_at" json:"completed_at"`
}

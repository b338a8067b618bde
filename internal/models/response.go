package models

import "time"

// Response records one answered question. Rows are insert-only: once
// written they are never updated, so the snapshot fields stay a faithful
// audit copy of what the student actually saw.
type Response struct {
	ID               string `bson:"_id,omitempty" json:"id"`
	SessionID        string `bson:"session_id" json:"session_id"`
	QuestionID       string `bson:"question_id" json:"question_id"`
	SelectedAnswer   string `bson:"selected_answer" json:"selected_answer"`
	IsCorrect        bool   `bson:"is_correct" json:"is_correct"`
	ResponseTimeMs   int    `bson:"response_time_ms" json:"response_time_ms"`
	DifficultyAtTime int    `bson:"difficulty_at_time" json:"difficulty_at_time"`
	Subtag           string `bson:"subtag" json:"subtag"`
	Phase            string `bson:"phase" json:"phase"`
	// SequenceNumber is 1-based and contiguous per session.
	SequenceNumber int `bson:"sequence_number" json:"sequence_number"`

	// Verbatim snapshot of the question as served.
	QuestionText  string   `bson:"question_text" json:"question_text"`
	Options       []Option `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correct_answer" json:"correct_answer"`
	Explanation   string   `bson:"explanation" json:"explanation"`

	AnsweredAt time.Time `bson:"answered_at" json:"answered_at"`
}

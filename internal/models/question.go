package models

import (
	"strings"
	"time"
)

// Option is one of the four answer choices (IDs A through D).
type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Question struct {
	ID   string `bson:"_id,omitempty" json:"id"`
	Text string `bson:"text" json:"text"`
	// Options always carries exactly four entries, A through D.
	Options       []Option  `bson:"options" json:"options"`
	CorrectAnswer string    `bson:"correct_answer" json:"-"`
	Explanation   string    `bson:"explanation" json:"-"`
	Difficulty    int       `bson:"difficulty" json:"difficulty"`
	Subtag        string    `bson:"subtag" json:"subtag"`
	GradeLevel    int       `bson:"grade_level" json:"grade_level"`
	Phase         string    `bson:"phase" json:"phase"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Subtags lists the cognitive-skill categories a question can target.
var Subtags = []string{
	"numerical_reasoning",
	"logical_reasoning",
	"verbal_reasoning",
	"spatial_reasoning",
	"data_interpretation",
	"pattern_recognition",
}

// AnswerChoices are the accepted values for a submitted answer.
var AnswerChoices = []string{"A", "B", "C", "D"}

func IsValidAnswer(choice string) bool {
	for _, c := range AnswerChoices {
		if c == choice {
			return true
		}
	}
	return false
}

func IsValidSubtag(subtag string) bool {
	for _, s := range Subtags {
		if s == subtag {
			return true
		}
	}
	return false
}

// NormalizedText lowercases the question text and collapses all runs of
// whitespace to single spaces. Two questions with equal normalized text are
// treated as duplicates even when their ids differ.
func (q *Question) NormalizedText() string {
	return NormalizeText(q.Text)
}

func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

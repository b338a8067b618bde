package repository

import (
	"context"
	"errors"
	"time"

	"aptitude-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrVersionConflict is returned when a versioned update matched no
// document, meaning another writer advanced the session first.
var ErrVersionConflict = errors.New("session was modified by another request")

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("aptitude_sessions")}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	// A malformed id can never match a document.
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	var session models.Session
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	res, err := r.Col.InsertOne(ctx, session)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

// UpdateVersioned writes the session state only if the stored version still
// matches session.Version. On success the in-memory version is bumped to
// mirror the stored one.
func (r *SessionRepository) UpdateVersioned(ctx context.Context, session *models.Session) error {
	objID, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return err
	}
	session.UpdatedAt = time.Now()
	update := bson.M{
		"current_phase":           session.CurrentPhase,
		"current_difficulty":      session.CurrentDifficulty,
		"difficulty_path":         session.DifficultyPath,
		"questions_answered":      session.QuestionsAnswered,
		"correct_answers":         session.CorrectAnswers,
		"current_question_index":  session.CurrentQuestionIndex,
		"current_phase_questions": session.CurrentPhaseQuestions,
		"provisional_band":        session.ProvisionalBand,
		"tier":                    session.Tier,
		"stop_condition_met":      session.StopConditionMet,
		"stop_condition_reason":   session.StopConditionReason,
		"status":                  session.Status,
		"completed_at":            session.CompletedAt,
		"updated_at":              session.UpdatedAt,
	}
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": objID, "version": session.Version},
		bson.M{"$set": update, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	session.Version++
	return nil
}

func (r *SessionRepository) FindInProgressByStudent(ctx context.Context, studentID string) (*models.Session, error) {
	var session models.Session
	err := r.Col.FindOne(ctx, bson.M{
		"student_id": studentID,
		"status":     models.StatusInProgress,
	}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

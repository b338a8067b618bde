package repository

import (
	"context"

	"aptitude-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("aptitude_results")}
}

func (r *ResultRepository) Create(ctx context.Context, result *models.TestResults) error {
	res, err := r.Col.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}
	return nil
}

func (r *ResultRepository) FindBySession(ctx context.Context, sessionID string) (*models.TestResults, error) {
	var result models.TestResults
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByStudent returns a student's result history, newest first.
func (r *ResultRepository) FindByStudent(ctx context.Context, studentID string) ([]models.TestResults, error) {
	opts := options.Find().SetSort(bson.M{"completed_at": -1})
	cur, err := r.Col.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.TestResults
	for cur.Next(ctx) {
		var result models.TestResults
		if err := cur.Decode(&result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

package repository

import (
	"context"

	"aptitude-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResponseRepository struct {
	Col *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{Col: db.Collection("aptitude_responses")}
}

func (r *ResponseRepository) Create(ctx context.Context, response *models.Response) error {
	res, err := r.Col.InsertOne(ctx, response)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		response.ID = oid.Hex()
	}
	return nil
}

// FindBySession returns the full answer history in submission order.
func (r *ResponseRepository) FindBySession(ctx context.Context, sessionID string) ([]models.Response, error) {
	opts := options.Find().SetSort(bson.M{"sequence_number": 1})
	cur, err := r.Col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var responses []models.Response
	for cur.Next(ctx) {
		var resp models.Response
		if err := cur.Decode(&resp); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

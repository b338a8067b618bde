package source

import (
	"context"
	"log"

	"aptitude-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSource reads the question bank collection the generation service
// writes into. When a query comes up empty it asks the generator to top the
// bank up once before giving up.
type MongoSource struct {
	Col       *mongo.Collection
	Generator *GeneratorClient
}

func NewMongoSource(db *mongo.Database, generator *GeneratorClient) *MongoSource {
	return &MongoSource{
		Col:       db.Collection("questions"),
		Generator: generator,
	}
}

func (s *MongoSource) FetchOne(ctx context.Context, criteria Criteria) (*models.Question, error) {
	questions, err := s.FetchBatch(ctx, criteria, 1)
	if err != nil {
		return nil, err
	}
	return &questions[0], nil
}

func (s *MongoSource) FetchBatch(ctx context.Context, criteria Criteria, count int) ([]models.Question, error) {
	questions, err := s.sample(ctx, criteria, count)
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		return questions, nil
	}

	// Empty bank for these criteria: ask the generator to top it up, then
	// look once more. Best effort; a dead generator degrades to
	// ErrNoQuestions and the caller's widening ladder.
	if s.Generator != nil {
		if err := s.Generator.RequestBatch(ctx, criteria, count); err != nil {
			log.Printf("[QuestionSource] generator top-up failed: %v", err)
		} else {
			questions, err = s.sample(ctx, criteria, count)
			if err != nil {
				return nil, err
			}
			if len(questions) > 0 {
				return questions, nil
			}
		}
	}

	return nil, ErrNoQuestions
}

// sample pulls up to count random matching questions via $sample so repeat
// queries with the same criteria do not replay the same bank order.
func (s *MongoSource) sample(ctx context.Context, criteria Criteria, count int) ([]models.Question, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: s.filter(criteria)}},
		bson.D{{Key: "$sample", Value: bson.M{"size": count}}},
	}

	cur, err := s.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

func (s *MongoSource) filter(criteria Criteria) bson.M {
	filter := bson.M{"difficulty": criteria.Difficulty}
	if criteria.GradeLevel > 0 {
		filter["grade_level"] = criteria.GradeLevel
	}
	if criteria.Subtag != "" {
		filter["subtag"] = criteria.Subtag
	}
	if len(criteria.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": criteria.ExcludeIDs}
	}
	return filter
}

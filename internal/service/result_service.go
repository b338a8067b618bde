package service

import (
	"context"
	"errors"

	"aptitude-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type ResultService struct {
	Results ResultStore
}

func NewResultService(results ResultStore) *ResultService {
	return &ResultService{Results: results}
}

func (s *ResultService) GetBySession(ctx context.Context, userID, sessionID string) (*models.TestResults, error) {
	result, err := s.Results.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	if userID != "" && result.StudentID != userID {
		return nil, ErrOwnership
	}
	return result, nil
}

func (s *ResultService) GetByStudent(ctx context.Context, userID, studentID string) ([]models.TestResults, error) {
	if userID != "" && userID != studentID {
		return nil, ErrOwnership
	}
	return s.Results.FindByStudent(ctx, studentID)
}

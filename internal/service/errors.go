package service

import (
	"errors"

	"aptitude-service/internal/repository"
	"aptitude-service/internal/source"
)

// Sentinel errors of the session lifecycle. Handlers map these to HTTP
// statuses; everything else surfaces as a 500 with a generic body.
var (
	ErrValidation         = errors.New("invalid request")
	ErrSessionNotFound    = errors.New("session not found")
	ErrResultNotFound     = errors.New("results not found")
	ErrQuestionNotInPhase = errors.New("question not found in current phase")
	ErrSessionCompleted   = errors.New("session is already completed")
	ErrSessionAbandoned   = errors.New("session has been abandoned")
	ErrSessionNotFinished = errors.New("session still has questions remaining")
	ErrOwnership          = errors.New("session does not belong to the authenticated user")

	// Re-exported so handlers depend on one error surface.
	ErrVersionConflict = repository.ErrVersionConflict
	ErrSourceExhausted = source.ErrNoQuestions
)

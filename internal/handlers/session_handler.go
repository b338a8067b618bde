package handlers

import (
	"context"
	"errors"
	"net/http"

	"aptitude-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// InitializeSession starts a new aptitude test session
func (h *SessionHandler) InitializeSession(c *gin.Context) {
	var req struct {
		StudentID  string `json:"student_id" binding:"required"`
		GradeLevel int    `json:"grade_level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetHeader("X-User-ID")
	if userID != "" && userID != req.StudentID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot start a session for another student"})
		return
	}

	result, err := h.Service.Initialize(context.Background(), req.StudentID, req.GradeLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":        result.Session,
		"first_question": result.FirstQuestion,
		"warnings":       result.Warnings,
	})
}

// GetNextQuestion returns the next question for a session
func (h *SessionHandler) GetNextQuestion(c *gin.Context) {
	sessionID := c.Param("sessionId")
	userID := c.GetHeader("X-User-ID")

	view, err := h.Service.NextQuestion(context.Background(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question":         view.Question,
		"is_test_complete": view.IsTestComplete,
		"current_phase":    view.CurrentPhase,
		"progress":         view.Progress,
	})
}

// SubmitAnswer processes one answered question
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		SessionID      string `json:"session_id" binding:"required"`
		QuestionID     string `json:"question_id" binding:"required"`
		SelectedAnswer string `json:"selected_answer" binding:"required"`
		ResponseTimeMs int    `json:"response_time_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetHeader("X-User-ID")
	result, err := h.Service.SubmitAnswer(context.Background(), userID, service.SubmitAnswerInput{
		SessionID:      req.SessionID,
		QuestionID:     req.QuestionID,
		SelectedAnswer: req.SelectedAnswer,
		ResponseTimeMs: req.ResponseTimeMs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_correct":          result.IsCorrect,
		"previous_difficulty": result.PreviousDifficulty,
		"new_difficulty":      result.NewDifficulty,
		"difficulty_change":   result.DifficultyChange,
		"phase_complete":      result.PhaseComplete,
		"next_phase":          result.NextPhase,
		"test_complete":       result.TestComplete,
		"stop_condition":      result.StopCondition,
		"updated_session":     result.UpdatedSession,
	})
}

// CompleteSession finalizes a finished session and returns its results
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	userID := c.GetHeader("X-User-ID")

	results, err := h.Service.Complete(context.Background(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// AbandonSession marks a session abandoned
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	userID := c.GetHeader("X-User-ID")

	if err := h.Service.Abandon(context.Background(), userID, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionCompleted) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot abandon a completed session"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session abandoned"})
}

// ResumeSession returns the session state and pending question
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	userID := c.GetHeader("X-User-ID")

	view, err := h.Service.Resume(context.Background(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":          view.Session,
		"current_question": view.CurrentQuestion,
		"progress":         view.Progress,
	})
}

// FindInProgressSession looks up a student's active session
func (h *SessionHandler) FindInProgressSession(c *gin.Context) {
	studentID := c.Param("studentId")
	userID := c.GetHeader("X-User-ID")

	session, err := h.Service.FindInProgress(context.Background(), userID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GetSessionProgress is the public counters-only progress view
func (h *SessionHandler) GetSessionProgress(c *gin.Context) {
	progress, err := h.Service.PublicProgress(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// respondError maps service sentinels to HTTP statuses. Anything unmapped
// renders as a 500 without leaking store internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	case errors.Is(err, service.ErrQuestionNotInPhase):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found in current phase"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, service.ErrResultNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Results not found"})
	case errors.Is(err, service.ErrOwnership):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrSessionCompleted),
		errors.Is(err, service.ErrSessionAbandoned),
		errors.Is(err, service.ErrSessionNotFinished):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Session was modified concurrently, retry the request"})
	case errors.Is(err, service.ErrSourceExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No questions available for the requested criteria"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

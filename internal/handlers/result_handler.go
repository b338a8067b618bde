package handlers

import (
	"context"
	"net/http"

	"aptitude-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	Service *service.ResultService
}

func NewResultHandler(s *service.ResultService) *ResultHandler {
	return &ResultHandler{Service: s}
}

// GetSessionResults returns the finalized results of one session
func (h *ResultHandler) GetSessionResults(c *gin.Context) {
	sessionID := c.Param("sessionId")
	userID := c.GetHeader("X-User-ID")

	result, err := h.Service.GetBySession(context.Background(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStudentResults returns a student's result history
func (h *ResultHandler) GetStudentResults(c *gin.Context) {
	studentID := c.Param("studentId")
	userID := c.GetHeader("X-User-ID")

	results, err := h.Service.GetByStudent(context.Background(), userID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobagent-labs/web3-job-agent/internal/dtos"
	"github.com/jobagent-labs/web3-job-agent/internal/services"
)

type ChatHandler struct {
	ChatService *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: chat}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSession is the POST /sessions endpoint. The new session already
// contains the agent's welcome message.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	sess := h.ChatService.CreateSession()
	c.JSON(http.StatusCreated, dtos.SessionResponse{
		SessionID: sess.ID,
		Messages:  sess.Messages(),
	})
}

// GetMessages is the GET /sessions/:id/messages endpoint.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	sess, err := h.ChatService.GetSession(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, dtos.MessagesResponse{
		SessionID: sess.ID,
		Messages:  sess.Messages(),
	})
}

// SendMessage is the POST /sessions/:id/messages endpoint: one turn of the
// chat loop. Blank input is a silent no-op and still returns 200 with the
// unchanged history.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dtos.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	messages, err := h.ChatService.SubmitMessage(c.Request.Context(), c.Param("id"), req.Content)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, services.ErrAgentBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A request is already in flight for this session"})
	case err == nil || errors.Is(err, services.ErrInputRejected):
		c.JSON(http.StatusOK, dtos.MessagesResponse{
			SessionID: c.Param("id"),
			Messages:  messages,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat turn failed: " + err.Error()})
	}
}

package dtos

import "github.com/jobagent-labs/web3-job-agent/internal/models"

type SendMessageRequest struct {
	// Content is intentionally not "binding:required": blank submissions are
	// a silent no-op handled by the chat service, not a 400.
	Content string `json:"content"`
}

type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
}

type MessagesResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
}

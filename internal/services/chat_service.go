package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

const agentTurnTimeout = 60 * time.Second

const agentUnavailableMessage = "⚠️ The job agent is unavailable right now. Please try again in a moment."

// ChatSession holds one conversation: an append-only message sequence, the
// input buffer bound to the chat box, and the listings currently shown.
// State lives for the session only; nothing is persisted.
type ChatSession struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	input       string
	messages    []models.Message
	currentJobs []models.Job
	pendingReq  string // id of the in-flight agent request, "" when idle
}

// Messages returns a copy of the conversation history in insertion order.
func (s *ChatSession) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetInput replaces the session's input buffer.
func (s *ChatSession) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// Input returns the current input buffer.
func (s *ChatSession) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// CurrentJobs returns the listings shown to the user in this session.
func (s *ChatSession) CurrentJobs() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, len(s.currentJobs))
	copy(out, s.currentJobs)
	return out
}

// SetCurrentJobs replaces the session's shown listings.
func (s *ChatSession) SetCurrentJobs(jobs []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentJobs = make([]models.Job, len(jobs))
	copy(s.currentJobs, jobs)
}

func (s *ChatSession) append(role models.Role, content string) {
	s.messages = append(s.messages, models.Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// ChatService owns all live chat sessions and runs the message loop.
type ChatService struct {
	Agent *AgentService

	mu       sync.RWMutex
	sessions map[string]*ChatSession
}

func NewChatService(agent *AgentService) *ChatService {
	return &ChatService{
		Agent:    agent,
		sessions: make(map[string]*ChatSession),
	}
}

// CreateSession starts a new conversation, greeted by the agent's welcome
// message.
func (c *ChatService) CreateSession() *ChatSession {
	sess := &ChatSession{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if c.Agent != nil {
		sess.append(models.RoleAssistant, c.Agent.WelcomeMessage())
	}

	c.mu.Lock()
	c.sessions[sess.ID] = sess
	c.mu.Unlock()

	log.Printf("💬 Session created: %s", sess.ID)
	return sess
}

// GetSession looks up a live session.
func (c *ChatService) GetSession(id string) (*ChatSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sess, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SubmitMessage sets the session's input buffer and submits it.
func (c *ChatService) SubmitMessage(ctx context.Context, sessionID, content string) ([]models.Message, error) {
	sess, err := c.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.SetInput(content)
	return c.Submit(ctx, sess)
}

// Submit runs one turn of the message loop: reject blank input, append the
// user message, clear the buffer, call the agent, append the reply.
//
// At most one agent request is in flight per session. Each submission gets
// its own request id; a reply is appended only if its id still owns the
// session's pending slot, so a late reply from an abandoned turn can never
// land out of order.
func (c *ChatService) Submit(ctx context.Context, sess *ChatSession) ([]models.Message, error) {
	sess.mu.Lock()
	trimmed := strings.TrimSpace(sess.input)
	if trimmed == "" {
		// Silent no-op: sequence and buffer stay as they are.
		sess.mu.Unlock()
		return sess.Messages(), ErrInputRejected
	}
	if sess.pendingReq != "" {
		sess.mu.Unlock()
		return sess.Messages(), ErrAgentBusy
	}

	reqID := uuid.NewString()
	submitted := sess.input
	sess.append(models.RoleUser, submitted)
	sess.input = ""
	sess.pendingReq = reqID
	sess.mu.Unlock()

	reply, err := c.runAgentTurn(ctx, sess, trimmed)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.pendingReq != reqID {
		// A stale reply; the slot moved on without us.
		return c.snapshotLocked(sess), nil
	}
	sess.pendingReq = ""

	switch {
	case err == nil:
		sess.append(models.RoleAssistant, reply)
	case isMalformedReply(err):
		var malformed *MalformedReplyError
		errors.As(err, &malformed)
		log.Printf("⚠️ Malformed agent reply, degrading to raw text: %v", err)
		sess.append(models.RoleAssistant, "⚠️ I couldn't fully parse the agent's reply, so here it is as-is:\n\n"+malformed.Raw)
	default:
		log.Printf("❌ Agent turn failed: %v", err)
		sess.append(models.RoleAssistant, agentUnavailableMessage)
	}

	return c.snapshotLocked(sess), nil
}

func (c *ChatService) runAgentTurn(ctx context.Context, sess *ChatSession, input string) (string, error) {
	if c.Agent == nil {
		return "", ErrAgentUnavailable
	}
	turnCtx, cancel := context.WithTimeout(ctx, agentTurnTimeout)
	defer cancel()
	return c.Agent.HandleTurn(turnCtx, sess, input)
}

func (c *ChatService) snapshotLocked(sess *ChatSession) []models.Message {
	out := make([]models.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

func isMalformedReply(err error) bool {
	var malformed *MalformedReplyError
	return errors.As(err, &malformed)
}

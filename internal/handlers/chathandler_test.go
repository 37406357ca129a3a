package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/jobagent-labs/web3-job-agent/internal/dtos"
	"github.com/jobagent-labs/web3-job-agent/internal/models"
	"github.com/jobagent-labs/web3-job-agent/internal/services"
	"github.com/jobagent-labs/web3-job-agent/internal/wallet"
)

type scriptedModel struct {
	replies []string
	calls   int
}

func (m *scriptedModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.calls >= len(m.replies) {
		return nil, fmt.Errorf("unexpected llm call %d", m.calls)
	}
	reply := m.replies[m.calls]
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, _ string, _ ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, nil)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestRouter(t *testing.T, model llms.Model) (*gin.Engine, *services.JobService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	llm := &services.LLMService{Client: model}
	jobService := services.NewJobService(llm, services.NewVectorStore())
	agent := services.NewAgentService(llm, jobService, services.NewMatcherService())
	chatService := services.NewChatService(agent)

	provider, err := wallet.New(models.WalletConfig{
		AppName:   "Web3 Job Agent",
		ProjectID: "test-project-id",
		Chains:    wallet.DefaultChains(),
		SSR:       true,
	})
	require.NoError(t, err)

	chatHandler := NewChatHandler(chatService)
	jobHandler := NewJobHandler(jobService)
	walletHandler := NewWalletHandler(provider)

	r := gin.New()
	api := r.Group("/api/v1", provider.Middlewares()...)
	api.GET("/health", HealthCheck)
	api.POST("/sessions", chatHandler.CreateSession)
	api.GET("/sessions/:id/messages", chatHandler.GetMessages)
	api.POST("/sessions/:id/messages", chatHandler.SendMessage)
	api.GET("/jobs", jobHandler.ListJobs)
	api.GET("/jobs/:id", jobHandler.GetJob)
	api.POST("/jobs/search", jobHandler.SearchJobs)
	api.GET("/wallet/config", walletHandler.GetConfig)
	return r, jobService
}

func createSession(t *testing.T, r *gin.Engine) dtos.SessionResponse {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dtos.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func postMessage(r *gin.Engine, sessionID, content string) *httptest.ResponseRecorder {
	body := strings.NewReader(fmt.Sprintf(`{"content": %q}`, content))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID+"/messages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSessionReturnsWelcome(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})

	resp := createSession(t, r)
	require.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Messages, 1)
	require.Equal(t, models.RoleAssistant, resp.Messages[0].Role)
}

func TestSendMessageAppendsTurn(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{replies: []string{"show_default_msg"}})
	sess := createSession(t, r)

	w := postMessage(r, sess.SessionID, "hello")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dtos.MessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 3) // welcome, user, assistant
	require.Equal(t, models.RoleUser, resp.Messages[1].Role)
	require.Equal(t, "hello", resp.Messages[1].Content)
	require.Equal(t, models.RoleAssistant, resp.Messages[2].Role)
}

func TestSendBlankMessageIsNoOp(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	sess := createSession(t, r)

	for _, content := range []string{"", "   "} {
		w := postMessage(r, sess.SessionID, content)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dtos.MessagesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Messages, 1, "blank input must not grow the history")
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	w := postMessage(r, "no-such-session", "hello")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMessagesUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing/messages", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchJobsRequiresQuery(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchJobsReturnsRequestedPage(t *testing.T) {
	r, jobService := newTestRouter(t, &scriptedModel{})

	listings := make([]dtos.JobListing, 7)
	for i := range listings {
		listings[i] = dtos.JobListing{
			Title:    fmt.Sprintf("Go Engineer %d", i+1),
			Company:  "Chainify",
			Location: "Berlin",
		}
	}
	jobService.AddListings(context.Background(), listings)

	body := strings.NewReader(`{"query": "go engineer", "page": 2, "per_page": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/search", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs       []models.Job `json:"jobs"`
		Total      int          `json:"total"`
		Page       int          `json:"page"`
		PerPage    int          `json:"per_page"`
		TotalPages int          `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 3)
	require.Equal(t, 6, resp.Total)
	require.Equal(t, 2, resp.Page)
	require.Equal(t, 3, resp.PerPage)
	require.Equal(t, 2, resp.TotalPages)
}

func TestWalletConfigEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedModel{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var cfg models.WalletConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	require.Equal(t, "test-project-id", cfg.ProjectID)
	require.Len(t, cfg.Chains, len(wallet.DefaultChains()))
	require.True(t, cfg.SSR)
}

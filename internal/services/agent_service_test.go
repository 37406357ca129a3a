package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

const listingsJSON = `[
  {"title": "Senior Go Engineer", "company": "Chainify", "location": "Berlin",
   "salary_range": "€90k - €120k", "description": "Build indexing pipelines.",
   "requirements": ["Go", "Postgres", "gRPC"], "application_link": "https://chainify.io/careers/1"},
  {"title": "Smart Contract Developer", "company": "Mintbase", "location": "Remote",
   "salary_range": "$130k - $160k", "description": "Ship audited Solidity contracts.",
   "requirements": ["Solidity", "Foundry", "EVM"], "application_link": "https://mintbase.xyz/jobs/7"}
]`

func newTestAgent(model *fakeModel) (*AgentService, *ChatSession) {
	llm := &LLMService{Client: model}
	jobs := NewJobService(llm, NewVectorStore())
	agent := NewAgentService(llm, jobs, NewMatcherService())
	return agent, &ChatSession{ID: "test"}
}

func TestHandleTurnUnknownIntentShowsDefaultMessage(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{{text: "something weird"}}}
	agent, sess := newTestAgent(model)

	reply, err := agent.HandleTurn(context.Background(), sess, "what's the weather")
	require.NoError(t, err)
	require.Equal(t, defaultMessage, reply)
}

func TestHandleTurnFindJobsGeneratesAndStoresListings(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{
		{text: "find_jobs"},
		{text: `{"search_query": "go engineer", "location": "Berlin", "job_type": ""}`},
		{text: listingsJSON},
	}}
	agent, sess := newTestAgent(model)

	reply, err := agent.HandleTurn(context.Background(), sess, "find go jobs in berlin")
	require.NoError(t, err)

	require.Contains(t, reply, "Senior Go Engineer")
	require.Contains(t, reply, "Mintbase")
	require.Contains(t, reply, "1. 🏢")
	require.Contains(t, reply, "enter its number")

	// Listings were kept as session state and in the catalog.
	require.Len(t, sess.CurrentJobs(), 2)
	require.Len(t, agent.JobService.ListJobs(), 2)
}

func TestHandleTurnFindJobsStripsCodeFences(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{
		{text: "find_jobs"},
		{text: "```json\n{\"search_query\": \"solidity\", \"location\": \"\", \"job_type\": \"\"}\n```"},
		{text: "```json\n" + listingsJSON + "\n```"},
	}}
	agent, sess := newTestAgent(model)

	reply, err := agent.HandleTurn(context.Background(), sess, "solidity roles")
	require.NoError(t, err)
	require.Contains(t, reply, "Smart Contract Developer")
}

func TestHandleTurnViewJobResolvesByNumber(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{
		{text: "view_job"},
		{text: `{"company": "", "description": "job 2"}`},
	}}
	agent, sess := newTestAgent(model)
	sess.SetCurrentJobs([]models.Job{
		{ID: "a", Title: "Senior Go Engineer", Company: "Chainify"},
		{ID: "b", Title: "Smart Contract Developer", Company: "Mintbase", ApplicationLink: "https://mintbase.xyz/jobs/7"},
	})

	reply, err := agent.HandleTurn(context.Background(), sess, "tell me about job 2")
	require.NoError(t, err)
	require.Contains(t, reply, "Detailed Job Information")
	require.Contains(t, reply, "Smart Contract Developer")
	require.Contains(t, reply, "Mintbase")
}

func TestHandleTurnViewJobWithoutSearchFirst(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{{text: "view_job"}}}
	agent, sess := newTestAgent(model)

	reply, err := agent.HandleTurn(context.Background(), sess, "show me job 3")
	require.NoError(t, err)
	require.Contains(t, reply, "search for jobs first")
}

func TestHandleTurnApplyReturnsApplicationLink(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{
		{text: "apply_to_job"},
		{text: `{"company": "Mintbase", "description": ""}`},
	}}
	agent, sess := newTestAgent(model)
	sess.SetCurrentJobs([]models.Job{
		{ID: "a", Title: "Senior Go Engineer", Company: "Chainify"},
		{ID: "b", Title: "Smart Contract Developer", Company: "Mintbase", ApplicationLink: "https://mintbase.xyz/jobs/7"},
	})

	reply, err := agent.HandleTurn(context.Background(), sess, "apply to the mintbase one")
	require.NoError(t, err)
	require.Contains(t, reply, "https://mintbase.xyz/jobs/7")
}

func TestHandleTurnMalformedListingsJSON(t *testing.T) {
	model := &fakeModel{responses: []fakeResponse{
		{text: "find_jobs"},
		{text: `{"search_query": "go", "location": "", "job_type": ""}`},
		{text: "here are some jobs I found: ..."},
	}}
	agent, sess := newTestAgent(model)

	_, err := agent.HandleTurn(context.Background(), sess, "go jobs")
	var malformed *MalformedReplyError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, malformed.Raw, "here are some jobs")
}

func TestShortForLogKeepsRunesIntact(t *testing.T) {
	require.Equal(t, "short input", shortForLog("short input"))

	long := strings.Repeat("日本語のメッセージ", 5)
	got := shortForLog(long)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, string([]rune(long)[:20])+"...", got)

	// Exactly at the limit stays untouched.
	exact := strings.Repeat("é", 20)
	require.Equal(t, exact, shortForLog(exact))
}

func TestWelcomeMessageListsCategories(t *testing.T) {
	agent, _ := newTestAgent(&fakeModel{})

	msg := agent.WelcomeMessage()
	require.Contains(t, msg, "Welcome")
	for _, category := range defaultCategories {
		require.Contains(t, msg, category)
	}
}

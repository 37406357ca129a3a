package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jobagent-labs/web3-job-agent/internal/dtos"
	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

// Agent action types, mirroring the CLI agent's action surface.
const (
	ActionFindJobs       = "find_jobs"
	ActionViewJob        = "view_job"
	ActionApplyToJob     = "apply_to_job"
	ActionShowDefaultMsg = "show_default_msg"
)

const (
	resultsPerPage   = 5
	generatedPerTurn = 10
)

const classifySystemPrompt = `You are a job search assistant. Classify the user's input into one of these categories:
- find_jobs: When user wants to search for jobs
- view_job: When user wants to view details of a specific job
- apply_to_job: When user wants to apply to a specific job
- show_default_msg: When the input doesn't match any of the above
Only respond with one of these exact categories, nothing else.`

const refineSearchSystemPrompt = `You are a job search assistant. Given the user's job search query,
create a refined, professional search query. Extract location and job type if mentioned.
Return only valid JSON with these fields, no markdown:
{
    "search_query": "refined search terms",
    "location": "location if specified, or empty string",
    "job_type": "job type if specified (full-time, part-time, contract, etc), or empty string"
}`

const extractJobRefSystemPrompt = `You are a job search assistant. From the user's input, extract:
1. Company name (if mentioned)
2. Brief job description, title, or list position (if mentioned)
Return only valid JSON with these fields, no markdown:
{
    "company": "extracted company name or empty string",
    "description": "brief job description/title/position or empty string"
}`

const generateJobsSystemPrompt = `You are a job search assistant. Generate %d realistic job listings based on the search query.
Each job must include: title, company, location, salary_range, description (2-3 sentences),
requirements (3-4 key points), application_link (fictional but realistic URL).
Return only a valid JSON array of job objects with exactly those field names. Do not wrap the output in markdown code blocks.`

const defaultMessage = `Here's what you can do:
1. Search for jobs: "Find software developer jobs in New York"
2. View job details: "Show me more about job 3"
3. Get application info: "How do I apply to job 3"
Please try again with one of these formats.`

var defaultCategories = []string{
	"Software Development",
	"Data Science",
	"Web Development",
	"Machine Learning",
	"DevOps",
	"Blockchain Engineering",
	"Smart Contract Development",
	"UI/UX Design",
	"Product Management",
	"Developer Relations",
}

// AgentService turns one user message into one assistant reply: it asks the
// LLM to classify the input, extracts parameters, and dispatches the
// matching job action.
type AgentService struct {
	LLMService     *LLMService
	JobService     *JobService
	MatcherService *MatcherService

	mu         sync.RWMutex
	categories []string
}

func NewAgentService(llm *LLMService, jobs *JobService, matcher *MatcherService) *AgentService {
	return &AgentService{
		LLMService:     llm,
		JobService:     jobs,
		MatcherService: matcher,
		categories:     defaultCategories,
	}
}

// WelcomeMessage greets a new session with the current trending categories.
func (s *AgentService) WelcomeMessage() string {
	var b strings.Builder
	b.WriteString("👋 Welcome! I can help you find your dream job!\n\n")
	b.WriteString("🔍 You can search for jobs by:\n")
	b.WriteString("1. Entering a search query (e.g., 'Solidity developer in New York')\n")
	b.WriteString("2. Choosing from our trending categories:\n\n")
	for i, category := range s.Categories() {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, category)
	}
	b.WriteString("\nWhat kind of job are you looking for?")
	return b.String()
}

func (s *AgentService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// StartCategoryRefresher periodically regenerates the trending categories
// shown in the welcome message. Best-effort: on any failure the previous
// list stays in place.
func (s *AgentService) StartCategoryRefresher(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			s.refreshCategories()
		}
	}()
}

func (s *AgentService) refreshCategories() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw, err := s.LLMService.GenerateText(ctx,
		"You are a job market analyst. Return only a valid JSON array of strings, no markdown.",
		fmt.Sprintf("List the %d job categories currently trending in tech and web3 hiring.", len(defaultCategories)))
	if err != nil {
		log.Printf("⚠️ Category refresh failed: %v", err)
		return
	}

	var categories []string
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &categories); err != nil || len(categories) == 0 {
		log.Printf("⚠️ Category refresh returned unusable JSON: %v", err)
		return
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	log.Printf("🔖 Trending categories refreshed (%d entries)", len(categories))
}

// HandleTurn processes a single user message and returns the assistant
// reply. A *MalformedReplyError means the LLM answered but not in the shape
// we asked for; the caller degrades to showing the raw text.
func (s *AgentService) HandleTurn(ctx context.Context, sess *ChatSession, input string) (string, error) {
	logPrefix := fmt.Sprintf("[Turn: %s]", shortForLog(input))

	log.Printf("%s 📥 START processing", logPrefix)

	// --- STEP 1: CLASSIFY INTENT ---
	action, err := s.LLMService.GenerateText(ctx, classifySystemPrompt, input)
	if err != nil {
		return "", err
	}
	action = strings.TrimSpace(strings.ToLower(action))
	log.Printf("%s 🧠 Classified as: %s", logPrefix, action)

	// --- STEP 2: DISPATCH ---
	switch action {
	case ActionFindJobs:
		return s.handleFindJobs(ctx, sess, input, logPrefix)
	case ActionViewJob:
		return s.handleJobReference(ctx, sess, input, logPrefix, false)
	case ActionApplyToJob:
		return s.handleJobReference(ctx, sess, input, logPrefix, true)
	default:
		log.Printf("%s ⏹️  Unrecognized intent, showing default message.", logPrefix)
		return defaultMessage, nil
	}
}

func (s *AgentService) handleFindJobs(ctx context.Context, sess *ChatSession, input, logPrefix string) (string, error) {
	// Refine the raw input into a clean search query.
	raw, err := s.LLMService.GenerateText(ctx, refineSearchSystemPrompt, input)
	if err != nil {
		return "", err
	}

	var params struct {
		SearchQuery string `json:"search_query"`
		Location    string `json:"location"`
		JobType     string `json:"job_type"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &params); err != nil {
		return "", &MalformedReplyError{Raw: raw, Err: err}
	}
	if params.SearchQuery == "" {
		params.SearchQuery = input
	}
	log.Printf("%s 🔍 Searching for jobs matching: %s", logPrefix, params.SearchQuery)

	// Catalog first, then ask the LLM to fill the page.
	jobs, _, err := s.JobService.SearchJobs(ctx, params.SearchQuery, params.Location, 1, resultsPerPage)
	if err != nil {
		return "", err
	}

	if len(jobs) < resultsPerPage {
		log.Printf("%s 📂 Catalog has %d matches, generating fresh listings...", logPrefix, len(jobs))
		generated, err := s.generateListings(ctx, params.SearchQuery, params.Location, params.JobType)
		if err != nil {
			return "", err
		}
		stored := s.JobService.AddListings(ctx, generated)
		jobs = append(jobs, stored...)
		if len(jobs) > resultsPerPage {
			jobs = jobs[:resultsPerPage]
		}
	}

	if len(jobs) == 0 {
		return "😕 I couldn't find any jobs matching that. Try a different query or one of the trending categories.", nil
	}

	sess.SetCurrentJobs(jobs)
	log.Printf("%s ✅ Returning %d listings", logPrefix, len(jobs))

	var b strings.Builder
	for i, job := range jobs {
		b.WriteString(formatJobListing(job, i+1))
		b.WriteString("\n")
	}
	b.WriteString("\nTo learn more about a specific job, enter its number or say 'Tell me about job X'")
	return b.String(), nil
}

func (s *AgentService) generateListings(ctx context.Context, query, location, jobType string) ([]dtos.JobListing, error) {
	locationStr := ""
	if location != "" {
		locationStr = " in " + location
	}
	typeStr := ""
	if jobType != "" {
		typeStr = " " + jobType
	}
	prompt := fmt.Sprintf("Find%s jobs matching '%s'%s. Generate relevant job listings.", typeStr, query, locationStr)

	raw, err := s.LLMService.GenerateText(ctx, fmt.Sprintf(generateJobsSystemPrompt, generatedPerTurn), prompt)
	if err != nil {
		return nil, err
	}

	var listings []dtos.JobListing
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &listings); err != nil {
		return nil, &MalformedReplyError{Raw: raw, Err: err}
	}
	return listings, nil
}

func (s *AgentService) handleJobReference(ctx context.Context, sess *ChatSession, input, logPrefix string, apply bool) (string, error) {
	if len(sess.CurrentJobs()) == 0 {
		return "❌ Please search for jobs first before requesting details.", nil
	}

	raw, err := s.LLMService.GenerateText(ctx, extractJobRefSystemPrompt, input)
	if err != nil {
		return "", err
	}

	var ref struct {
		Company     string `json:"company"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &ref); err != nil {
		return "", &MalformedReplyError{Raw: raw, Err: err}
	}

	job := s.MatcherService.MatchListing(sess.CurrentJobs(), ref.Company, ref.Description)
	if job == nil {
		// Fall back to matching against the raw input (bare "3" etc).
		job = s.MatcherService.MatchListing(sess.CurrentJobs(), "", input)
	}
	if job == nil {
		log.Printf("%s ❌ SKIPPED: could not resolve job reference.", logPrefix)
		return "❌ I couldn't figure out which job you mean. Please specify its number from the list.", nil
	}

	if apply {
		log.Printf("%s 🎯 Resolved application request to: %s", logPrefix, job.Title)
		return formatApplicationInfo(*job), nil
	}
	log.Printf("%s 🎯 Resolved details request to: %s", logPrefix, job.Title)
	return formatJobDetails(*job), nil
}

// --- FORMATTING HELPERS ---

func formatJobListing(job models.Job, index int) string {
	var reqs strings.Builder
	for _, r := range job.Requirements {
		fmt.Fprintf(&reqs, "• %s\n", r)
	}
	return fmt.Sprintf(`%d. 🏢 %s at %s
📍 %s
💰 %s

%s

Key Requirements:
%s`, index, job.Title, job.Company, job.Location, job.SalaryRange, job.Description, reqs.String())
}

func formatJobDetails(job models.Job) string {
	var reqs strings.Builder
	for _, r := range job.Requirements {
		fmt.Fprintf(&reqs, "• %s\n", r)
	}
	return fmt.Sprintf(`📋 Detailed Job Information
======================

🏢 Position: %s
🏛️ Company: %s
📍 Location: %s
💰 Salary Range: %s

📝 Description:
%s

🎯 Key Requirements:
%s
🔗 How to Apply:
%s

To go back to the job list, just ask to see the jobs again.`,
		job.Title, job.Company, job.Location, job.SalaryRange, job.Description, reqs.String(), job.ApplicationLink)
}

func formatApplicationInfo(job models.Job) string {
	link := job.ApplicationLink
	if link == "" {
		link = "No direct link available — check the company's careers page."
	}
	return fmt.Sprintf(`📨 Applying to %s at %s

🔗 Application link:
%s

Good luck! 🍀`, job.Title, job.Company, link)
}

// shortForLog truncates free text for a log prefix without splitting a
// multi-byte character.
func shortForLog(s string) string {
	runes := []rune(s)
	if len(runes) <= 20 {
		return s
	}
	return string(runes[:20]) + "..."
}

// stripCodeFences removes a surrounding markdown code block, which some
// models add even when told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package services

import (
	"strconv"
	"strings"

	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

// MatcherService resolves a user's job reference ("job 3", "the Stripe
// role", "the backend one") to one of the listings shown in the session.
type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// MatchListing tries to pick the listing the user means out of the jobs
// currently shown in the session. Returns nil when nothing matches.
func (s *MatcherService) MatchListing(jobs []models.Job, company, description string) *models.Job {
	if len(jobs) == 0 {
		return nil
	}

	// --- RULE 1: Ordinal Match ---
	// "job 3" / "the 3rd one" -> index 3 (1-based) into the shown list.
	if n, ok := extractOrdinal(description); ok && n >= 1 && n <= len(jobs) {
		return &jobs[n-1]
	}
	if n, ok := extractOrdinal(company); ok && n >= 1 && n <= len(jobs) {
		return &jobs[n-1]
	}

	companyLower := strings.ToLower(strings.TrimSpace(company))
	descLower := strings.ToLower(strings.TrimSpace(description))

	// --- RULE 2: Company Name Match ---
	// Skip very short names to avoid false positives ("X", "Go").
	if len(companyLower) >= 3 {
		for i := range jobs {
			jobCompany := strings.ToLower(jobs[i].Company)
			if strings.Contains(jobCompany, companyLower) || strings.Contains(companyLower, jobCompany) {
				return &jobs[i]
			}
		}
	}

	// --- RULE 3: Title/Description Match ---
	// Does "senior backend engineer" overlap the listing title?
	if descLower != "" {
		for i := range jobs {
			titleLower := strings.ToLower(jobs[i].Title)
			if strings.Contains(titleLower, descLower) || strings.Contains(descLower, titleLower) {
				return &jobs[i]
			}
		}
	}

	return nil
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// extractOrdinal finds a 1-based position in free text: a bare number,
// "job 3", "#2", or an ordinal word.
func extractOrdinal(text string) (int, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	for _, f := range fields {
		f = strings.Trim(f, "#.,!?()")
		if n, err := strconv.Atoi(f); err == nil && n > 0 {
			return n, true
		}
		if n, ok := ordinalWords[f]; ok {
			return n, true
		}
	}
	return 0, false
}

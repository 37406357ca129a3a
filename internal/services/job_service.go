package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jobagent-labs/web3-job-agent/internal/dtos"
	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

// JobService keeps the job catalog. Everything is in memory and scoped to
// the process; listings accumulate as the agent discovers them.
type JobService struct {
	LLMService *LLMService
	Vectors    *VectorStore

	mu   sync.RWMutex
	jobs map[string]models.Job
}

func NewJobService(llm *LLMService, vectors *VectorStore) *JobService {
	return &JobService{
		LLMService: llm,
		Vectors:    vectors,
		jobs:       make(map[string]models.Job),
	}
}

// AddListings stores generated listings in the catalog and indexes their
// embeddings. Indexing is best-effort: a failed embedding keeps the listing
// in the catalog, it just won't show up in similarity search.
func (s *JobService) AddListings(ctx context.Context, listings []dtos.JobListing) []models.Job {
	jobs := make([]models.Job, 0, len(listings))

	s.mu.Lock()
	for _, l := range listings {
		job := models.Job{
			ID:              uuid.NewString(),
			CreatedAt:       time.Now(),
			Title:           l.Title,
			Company:         l.Company,
			Location:        l.Location,
			SalaryRange:     l.SalaryRange,
			Description:     l.Description,
			Requirements:    l.Requirements,
			ApplicationLink: l.ApplicationLink,
		}
		s.jobs[job.ID] = job
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	if err := s.indexJobs(ctx, jobs); err != nil {
		log.Printf("⚠️ Failed to index %d listings: %v", len(jobs), err)
	}
	return jobs
}

// indexJobs embeds each job's searchable text and adds it to the vector
// index, a few jobs at a time.
func (s *JobService) indexJobs(ctx context.Context, jobs []models.Job) error {
	if s.LLMService == nil || s.Vectors == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			vectors, err := s.LLMService.EmbedTexts(gctx, []string{embeddingText(job)})
			if err != nil {
				return err
			}
			return s.Vectors.Add(job.ID, vectors[0], map[string]string{
				"company":  job.Company,
				"location": job.Location,
			})
		})
	}
	return g.Wait()
}

func embeddingText(job models.Job) string {
	return fmt.Sprintf("%s at %s, %s. %s", job.Title, job.Company, job.Location, job.Description)
}

// GetJob returns a catalog entry by id.
func (s *JobService) GetJob(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// ListJobs returns the whole catalog, newest first.
func (s *JobService) ListJobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		// Tie-break on id so paging sees a stable order.
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// SearchJobs ranks the catalog against the query by embedding similarity
// and returns one page of results plus the total number of matches found.
// Matches are fetched up to page*perPage deep, then the requested window
// is sliced out, so total is bounded by that depth. An optional location
// narrows the match set. When the index is empty (or the embedder is down)
// it falls back to a plain substring scan so the demo still answers.
func (s *JobService) SearchJobs(ctx context.Context, query, location string, page, perPage int) ([]models.Job, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 5
	}
	depth := page * perPage

	var filters map[string]string
	if location != "" {
		filters = map[string]string{"location": location}
	}

	var matches []models.Job
	if s.LLMService != nil && s.Vectors != nil && s.Vectors.Len() > 0 {
		queryVec, err := s.LLMService.EmbedQuery(ctx, query)
		if err == nil {
			hits := s.Vectors.Search(queryVec, depth, filters)
			matches = make([]models.Job, 0, len(hits))
			for _, hit := range hits {
				if job, ok := s.GetJob(hit.JobID); ok {
					matches = append(matches, job)
				}
			}
			return paginate(matches, page, perPage), len(matches), nil
		}
		log.Printf("⚠️ Embedding search failed, falling back to text scan: %v", err)
	}

	matches = s.scanJobs(query, location, depth)
	return paginate(matches, page, perPage), len(matches), nil
}

func (s *JobService) scanJobs(query, location string, k int) []models.Job {
	needle := strings.ToLower(query)

	var jobs []models.Job
	for _, job := range s.ListJobs() {
		if location != "" && !strings.EqualFold(job.Location, location) {
			continue
		}
		haystack := strings.ToLower(job.Title + " " + job.Company + " " + job.Location + " " + job.Description)
		if strings.Contains(haystack, needle) {
			jobs = append(jobs, job)
			if len(jobs) == k {
				break
			}
		}
	}
	return jobs
}

// paginate slices the requested 1-based page out of matches.
func paginate(matches []models.Job, page, perPage int) []models.Job {
	start := (page - 1) * perPage
	if start >= len(matches) {
		return nil
	}
	end := start + perPage
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end]
}

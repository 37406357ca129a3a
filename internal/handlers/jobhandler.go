package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobagent-labs/web3-job-agent/internal/dtos"
	"github.com/jobagent-labs/web3-job-agent/internal/services"
)

type JobHandler struct {
	JobService *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{JobService: jobs}
}

// ListJobs is the GET /jobs endpoint: the full catalog, newest first.
func (h *JobHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.JobService.ListJobs()})
}

// GetJob is the GET /jobs/:id endpoint.
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.JobService.GetJob(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// SearchJobs is the POST /jobs/search endpoint, the same search the agent
// uses, exposed directly for the front end's browse view.
func (h *JobHandler) SearchJobs(c *gin.Context) {
	var req dtos.JobSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 {
		req.PerPage = 5
	}

	jobs, total, err := h.JobService.SearchJobs(c.Request.Context(), req.Query, req.Location, req.Page, req.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":        jobs,
		"total":       total,
		"page":        req.Page,
		"per_page":    req.PerPage,
		"total_pages": (total + req.PerPage - 1) / req.PerPage,
	})
}

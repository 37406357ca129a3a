package dtos

type JobSearchRequest struct {
	Query    string `json:"query" binding:"required"`
	Location string `json:"location"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

// JobListing mirrors the JSON schema the agent asks the LLM to produce when
// it has to generate listings instead of serving them from the catalog.
type JobListing struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	SalaryRange     string   `json:"salary_range"`
	Description     string   `json:"description"`
	Requirements    []string `json:"requirements"`
	ApplicationLink string   `json:"application_link"`
}

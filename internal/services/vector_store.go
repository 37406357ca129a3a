package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// VectorStore is an in-memory cosine-similarity index over job ids.
// State lives for the process lifetime only; there is no on-disk index.
type VectorStore struct {
	mu    sync.RWMutex
	dim   int
	items []vectorItem
}

type vectorItem struct {
	jobID    string
	vector   []float32
	metadata map[string]string
}

// ScoredID is a search hit: a job id and its similarity in [0, 1].
type ScoredID struct {
	JobID      string
	Similarity float64
}

func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// Add indexes a vector under the given job id, with optional metadata for
// filtered search. All vectors must share one dimension; the first Add
// fixes it.
func (v *VectorStore) Add(jobID string, vector []float32, metadata map[string]string) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for job %s", jobID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dim == 0 {
		v.dim = len(vector)
	} else if len(vector) != v.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, index uses %d", len(vector), v.dim)
	}

	stored := make(map[string]string, len(metadata))
	for key, value := range metadata {
		stored[key] = value
	}
	v.items = append(v.items, vectorItem{jobID: jobID, vector: vector, metadata: stored})
	return nil
}

// Search returns up to k job ids ranked by cosine similarity to query.
// When filters is non-empty, only items whose metadata matches every
// filter key are considered.
func (v *VectorStore) Search(query []float32, k int, filters map[string]string) []ScoredID {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if k <= 0 || len(v.items) == 0 || len(query) != v.dim {
		return nil
	}

	results := make([]ScoredID, 0, len(v.items))
	for _, item := range v.items {
		if !matchesFilters(item.metadata, filters) {
			continue
		}
		results = append(results, ScoredID{
			JobID:      item.jobID,
			Similarity: cosineSimilarity(query, item.vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

func matchesFilters(metadata, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := metadata[key]
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

// Len reports the number of indexed vectors.
func (v *VectorStore) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

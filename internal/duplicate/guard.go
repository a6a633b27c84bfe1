// Package duplicate ranks existing documents against a candidate title so
// uploads of already-shared knowledge get caught before a new document is
// created.
package duplicate

import (
	"math"
	"sort"

	"knowledgehub/internal/similarity"
	id "knowledgehub/pkg/domain"
)

// CorpusEntry is the slice of an existing document the guard needs.
type CorpusEntry struct {
	ID    id.DocumentID
	Title string
}

// Candidate is one likely duplicate, ranked by similarity.
type Candidate struct {
	ID                id.DocumentID `json:"id"`
	Title             string        `json:"title"`
	SimilarityPercent int           `json:"similarity_percent"`

	// score keeps full precision for ordering; the rounded percent is what
	// callers render.
	score float64
}

// Guard checks candidate titles against the corpus at a configured threshold.
type Guard struct {
	threshold float64
}

// New creates a Guard. Threshold is the minimum Jaccard similarity treated as
// a duplicate; values outside (0,1] fall back to the conventional 0.8.
func New(threshold float64) *Guard {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &Guard{threshold: threshold}
}

// FindDuplicates returns every corpus entry whose title similarity reaches the
// threshold, ordered by descending similarity. Ties keep corpus order so
// output is stable. An empty result means the upload may proceed unprompted.
func (g *Guard) FindDuplicates(candidateTitle string, corpus []CorpusEntry) []Candidate {
	var matches []Candidate
	for _, entry := range corpus {
		score := similarity.Jaccard(candidateTitle, entry.Title)
		if score < g.threshold {
			continue
		}
		matches = append(matches, Candidate{
			ID:                entry.ID,
			Title:             entry.Title,
			SimilarityPercent: int(math.Round(score * 100)),
			score:             score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	return matches
}

// Threshold reports the configured cut-off.
func (g *Guard) Threshold() float64 { return g.threshold }

package index

import (
	"math"
	"sort"

	"github.com/ternarybob/colloquy/internal/models"
)

// cosineSimilarity computes the cosine of the angle between two vectors.
// A zero vector scores 0 against everything.
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

// similaritySearch returns the k chunks nearest to the query vector,
// highest score first. Ties keep index order, so results are stable for
// identical queries.
func (f *flatIndex) similaritySearch(query []float32, k int) []models.ScoredChunk {
	scored := make([]models.ScoredChunk, 0, len(f.vectors))
	for i, vec := range f.vectors {
		scored = append(scored, models.ScoredChunk{
			Chunk: f.chunks[i],
			Score: cosineSimilarity(query, vec),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// mmrSearch fetches the fetchK nearest candidates and greedily re-ranks
// them by maximal marginal relevance: each step picks the candidate
// maximizing lambda*sim(query, c) - (1-lambda)*max(sim(c, selected)).
// lambda 1 degenerates to pure similarity, lambda 0 to pure diversity.
func (f *flatIndex) mmrSearch(query []float32, k, fetchK int, lambda float64) []models.ScoredChunk {
	type candidate struct {
		idx   int
		score float64
	}

	candidates := make([]candidate, 0, len(f.vectors))
	for i, vec := range f.vectors {
		candidates = append(candidates, candidate{idx: i, score: cosineSimilarity(query, vec)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if fetchK < len(candidates) {
		candidates = candidates[:fetchK]
	}

	var selected []models.ScoredChunk
	var selectedIdx []int
	remaining := candidates

	for len(selected) < k && len(remaining) > 0 {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			penalty := 0.0
			for _, s := range selectedIdx {
				if sim := cosineSimilarity(f.vectors[c.idx], f.vectors[s]); sim > penalty {
					penalty = sim
				}
			}
			mmr := lambda*c.score - (1-lambda)*penalty
			if mmr > bestScore {
				bestScore = mmr
				best = i
			}
		}

		chosen := remaining[best]
		selected = append(selected, models.ScoredChunk{Chunk: f.chunks[chosen.idx], Score: chosen.score})
		selectedIdx = append(selectedIdx, chosen.idx)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

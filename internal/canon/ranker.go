// Package canon ranks pre-embedded fact shards against a query embedding.
package canon

import (
	"math"
	"sort"
)

// Shard is an atomic, citeable fact extracted from merchant reference
// material. Ranking never mutates a shard.
type Shard struct {
	Topic      string    `json:"topic"`
	Tags       []string  `json:"tags,omitempty"`
	Assertions []string  `json:"assertions"`
	Caveats    []string  `json:"caveats,omitempty"`
	Citation   string    `json:"citation,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// RankedShard pairs a shard with its similarity score.
type RankedShard struct {
	Shard Shard   `json:"shard"`
	Score float64 `json:"score"`
}

// DefaultMaxResults caps ranked output when the caller does not ask for more.
const DefaultMaxResults = 4

// Ranker scores candidate shards by cosine similarity to a query embedding.
type Ranker struct{}

// NewRanker creates a shard ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank scores shards against the query embedding, drops shards with no
// assertions, sorts descending with stable ties, and truncates to max
// results. Shards without an embedding score zero but are still eligible.
func (r *Ranker) Rank(shards []Shard, query []float32, maxResults int) []RankedShard {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	ranked := make([]RankedShard, 0, len(shards))
	for _, shard := range shards {
		if len(shard.Assertions) == 0 {
			continue
		}
		ranked = append(ranked, RankedShard{
			Shard: shard,
			Score: CosineSimilarity(shard.Embedding, query),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

// CosineSimilarity computes cosine similarity between two vectors, returning
// zero when either vector is empty or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

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

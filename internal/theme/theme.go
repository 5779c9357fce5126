// Package theme extracts recurring theme phrases from a document batch and
// groups them into semantically related clusters.
package theme

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/tanDivina/agent-scholar/internal/embedding"
	"github.com/tanDivina/agent-scholar/internal/library"
)

// Theme is a recurring phrase aggregated across the batch.
type Theme struct {
	Label             string  `json:"theme"`
	Frequency         int     `json:"frequency"`
	DocumentFrequency int     `json:"document_frequency"`
	RelevanceScore    float64 `json:"relevance_score"`

	documentIDs map[string]struct{}
}

// DocumentIDs returns the distinct documents the theme occurred in.
func (t Theme) DocumentIDs() []string {
	ids := make([]string, 0, len(t.documentIDs))
	for id := range t.documentIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cluster groups semantically similar themes. Clusters partition the theme
// set: every reported theme belongs to exactly one cluster.
type Cluster struct {
	Name   string   `json:"cluster_name"`
	Themes []string `json:"themes"`
	Size   int      `json:"size"`
}

// Analysis is the theme section of an analysis response.
type Analysis struct {
	TotalDocuments int       `json:"total_documents"`
	TopThemes      []Theme   `json:"top_themes"`
	Clusters       []Cluster `json:"theme_clusters"`
}

// Extractor derives themes per document and aggregates them corpus-wide.
type Extractor struct {
	embedder          embedding.Embedder
	perDocLimit       int
	minDocFreq        int
	maxThemes         int
	clusterSimilarity float64
}

// NewExtractor creates a theme extractor. Zero values fall back to the
// defaults: 15 themes per document, document frequency >= 2, 20 reported
// themes, 0.75 cluster similarity.
func NewExtractor(embedder embedding.Embedder, perDocLimit, minDocFreq, maxThemes int, clusterSimilarity float64) *Extractor {
	if perDocLimit <= 0 {
		perDocLimit = 15
	}
	if minDocFreq <= 0 {
		minDocFreq = 2
	}
	if maxThemes <= 0 {
		maxThemes = 20
	}
	if clusterSimilarity <= 0 {
		clusterSimilarity = 0.75
	}
	return &Extractor{
		embedder:          embedder,
		perDocLimit:       perDocLimit,
		minDocFreq:        minDocFreq,
		maxThemes:         maxThemes,
		clusterSimilarity: clusterSimilarity,
	}
}

// Analyze extracts, aggregates, and clusters themes for the batch.
func (e *Extractor) Analyze(ctx context.Context, docs []library.Document) (*Analysis, error) {
	aggregate := make(map[string]*Theme)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for phrase, count := range e.topPhrases(doc) {
			th, ok := aggregate[phrase]
			if !ok {
				th = &Theme{Label: phrase, documentIDs: make(map[string]struct{})}
				aggregate[phrase] = th
			}
			th.Frequency += count
			th.documentIDs[doc.ID] = struct{}{}
		}
	}

	var themes []Theme
	for _, th := range aggregate {
		th.DocumentFrequency = len(th.documentIDs)
		if th.DocumentFrequency < e.minDocFreq {
			continue
		}
		themes = append(themes, *th)
	}

	scoreThemes(themes)

	// Relevance-descending order (label ascending on ties) makes both the
	// reported list and the greedy clustering deterministic.
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].RelevanceScore != themes[j].RelevanceScore {
			return themes[i].RelevanceScore > themes[j].RelevanceScore
		}
		return themes[i].Label < themes[j].Label
	})
	if len(themes) > e.maxThemes {
		themes = themes[:e.maxThemes]
	}

	clusters, err := e.cluster(ctx, themes)
	if err != nil {
		return nil, fmt.Errorf("clustering themes: %w", err)
	}

	return &Analysis{
		TotalDocuments: len(docs),
		TopThemes:      themes,
		Clusters:       clusters,
	}, nil
}

// topPhrases returns the per-document phrase counts, limited to the most
// frequent phrases of this document.
func (e *Extractor) topPhrases(doc library.Document) map[string]int {
	words := contentWords(doc.Title + " " + doc.FullText)

	counts := make(map[string]int)
	for i, w := range words {
		if len(w) > 3 && !stopWords[w] {
			counts[w]++
		}
		if i+1 < len(words) {
			next := words[i+1]
			if len(w) > 2 && len(next) > 2 && !stopWords[w] && !stopWords[next] {
				counts[w+" "+next]++
			}
		}
	}

	if len(counts) <= e.perDocLimit {
		return counts
	}

	type phraseCount struct {
		phrase string
		count  int
	}
	ranked := make([]phraseCount, 0, len(counts))
	for p, c := range counts {
		ranked = append(ranked, phraseCount{p, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].phrase < ranked[j].phrase
	})

	top := make(map[string]int, e.perDocLimit)
	for _, pc := range ranked[:e.perDocLimit] {
		top[pc.phrase] = pc.count
	}
	return top
}

// scoreThemes assigns relevance scores normalized to (0,1]. Cross-document
// recurrence weighs heavier than raw frequency.
func scoreThemes(themes []Theme) {
	var maxRaw float64
	raw := make([]float64, len(themes))
	for i, th := range themes {
		raw[i] = 2*float64(th.DocumentFrequency) + math.Log1p(float64(th.Frequency))
		if raw[i] > maxRaw {
			maxRaw = raw[i]
		}
	}
	if maxRaw == 0 {
		return
	}
	for i := range themes {
		themes[i].RelevanceScore = math.Round(raw[i]/maxRaw*1000) / 1000
	}
}

// cluster greedily partitions themes: each theme joins the first existing
// cluster whose centroid is within the similarity threshold, otherwise it
// starts its own. Input order is relevance-descending, so cluster names are
// the highest-relevance members.
func (e *Extractor) cluster(ctx context.Context, themes []Theme) ([]Cluster, error) {
	if len(themes) == 0 {
		return nil, nil
	}

	labels := make([]string, len(themes))
	for i, th := range themes {
		labels[i] = th.Label
	}

	vectors, err := e.embedder.Embed(ctx, labels)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d themes", len(vectors), len(labels))
	}

	var clusters []Cluster
	var centroids [][]float64

	for i, label := range labels {
		assigned := -1
		for c := range clusters {
			if embedding.Cosine(vectors[i], centroids[c]) >= e.clusterSimilarity {
				assigned = c
				break
			}
		}

		if assigned == -1 {
			clusters = append(clusters, Cluster{Name: label, Themes: []string{label}, Size: 1})
			centroid := make([]float64, len(vectors[i]))
			copy(centroid, vectors[i])
			centroids = append(centroids, centroid)
			continue
		}

		clusters[assigned].Themes = append(clusters[assigned].Themes, label)
		clusters[assigned].Size++
		updateCentroid(centroids[assigned], vectors[i], clusters[assigned].Size)
	}

	return clusters, nil
}

// updateCentroid folds a new member vector into the running mean.
func updateCentroid(centroid, vec []float64, newSize int) {
	n := float64(newSize)
	for i := range centroid {
		centroid[i] = (centroid[i]*(n-1) + vec[i]) / n
	}
}

// contentWords lowercases and tokenizes text on non-letter boundaries.
func contentWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "shall": true,
	"must": true, "to": true, "of": true, "in": true, "for": true, "on": true,
	"with": true, "at": true, "by": true, "from": true, "as": true, "into": true,
	"through": true, "during": true, "before": true, "after": true, "above": true,
	"below": true, "between": true, "among": true, "and": true, "but": true,
	"or": true, "nor": true, "not": true, "so": true, "yet": true, "both": true,
	"either": true, "neither": true, "each": true, "every": true, "all": true,
	"any": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "no": true, "only": true, "own": true,
	"same": true, "than": true, "too": true, "very": true, "just": true,
	"how": true, "what": true, "which": true, "who": true, "whom": true,
	"whose": true, "this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "itself": true, "they": true, "them": true,
	"their": true, "theirs": true, "we": true, "our": true, "ours": true,
	"you": true, "your": true, "yours": true, "he": true, "him": true,
	"his": true, "she": true, "her": true, "hers": true, "i": true, "me": true,
	"my": true, "about": true, "up": true, "out": true, "also": true,
	"like": true, "when": true, "where": true, "there": true, "here": true,
	"then": true, "over": true, "under": true, "again": true, "further": true,
	"once": true, "because": true, "while": true, "if": true, "unless": true,
}

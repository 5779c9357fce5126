// Package contradiction finds opposing statement pairs across documents.
package contradiction

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tanDivina/agent-scholar/internal/embedding"
	"github.com/tanDivina/agent-scholar/internal/library"
	"github.com/tanDivina/agent-scholar/internal/statement"
)

// Contradiction type labels.
const (
	TypeOpposingViews   = "opposing_views"
	TypeFactualConflict = "factual_conflict"
)

// Side identifies one statement of a contradiction pair.
type Side struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Statement string `json:"statement"`
}

// Pair is a single contradiction finding. The pair is unordered; it is
// stored canonically with the lower document id as Document1.
type Pair struct {
	Document1       Side    `json:"document1"`
	Document2       Side    `json:"document2"`
	ConfidenceScore float64 `json:"confidence_score"`
	Type            string  `json:"contradiction_type"`
}

// DocPairCount counts contradictions between one document pair.
type DocPairCount struct {
	Documents []string `json:"documents"`
	Count     int      `json:"contradiction_count"`
}

// Summary aggregates the findings.
type Summary struct {
	Types                  map[string]int `json:"contradiction_types"`
	MostContradictoryPairs []DocPairCount `json:"most_contradictory_pairs"`
	AverageConfidence      float64        `json:"average_confidence"`
}

// Analysis is the contradiction section of an analysis response.
type Analysis struct {
	TotalDocumentsAnalyzed int      `json:"total_documents_analyzed"`
	ContradictionsFound    int      `json:"contradictions_found"`
	HighConfidence         []Pair   `json:"high_confidence_contradictions"`
	Summary                *Summary `json:"contradiction_summary,omitempty"`
}

// Detector compares statements pairwise across documents.
type Detector struct {
	embedder          embedding.Embedder
	extractor         *statement.Extractor
	topicalSimilarity float64
	minConfidence     float64
	maxResults        int
	workers           int
}

// NewDetector creates a detector. Zero thresholds fall back to the defaults:
// topical similarity 0.6, min confidence 0.5, 50 results, 4 workers.
func NewDetector(embedder embedding.Embedder, extractor *statement.Extractor,
	topicalSimilarity, minConfidence float64, maxResults, workers int) *Detector {
	if topicalSimilarity <= 0 {
		topicalSimilarity = 0.6
	}
	if minConfidence <= 0 {
		minConfidence = 0.5
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	if workers <= 0 {
		workers = 4
	}
	return &Detector{
		embedder:          embedder,
		extractor:         extractor,
		topicalSimilarity: topicalSimilarity,
		minConfidence:     minConfidence,
		maxResults:        maxResults,
		workers:           workers,
	}
}

// docStatements is the precomputed per-document statement arena.
type docStatements struct {
	doc        library.Document
	statements []statement.Statement
	vectors    [][]float64
}

// finding carries positions for deterministic tie-breaking before the
// result is flattened into a Pair.
type finding struct {
	pair       Pair
	pos1, pos2 int
}

// Detect runs the pairwise contradiction scan over the batch.
func (d *Detector) Detect(ctx context.Context, docs []library.Document) (*Analysis, error) {
	// Canonical document order: lower id first, so pair reporting is
	// symmetric and each unordered pair is visited exactly once.
	sorted := make([]library.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	arena, err := d.buildArena(ctx, sorted)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var findings []finding

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i := 0; i < len(arena); i++ {
		for j := i + 1; j < len(arena); j++ {
			a, b := arena[i], arena[j]
			g.Go(func() error {
				// Cooperative cancellation checkpoint per document pair.
				if err := gctx.Err(); err != nil {
					return err
				}
				pairFindings := d.comparePair(a, b)
				if len(pairFindings) > 0 {
					mu.Lock()
					findings = append(findings, pairFindings...)
					mu.Unlock()
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		fi, fj := findings[i], findings[j]
		if fi.pair.ConfidenceScore != fj.pair.ConfidenceScore {
			return fi.pair.ConfidenceScore > fj.pair.ConfidenceScore
		}
		if fi.pair.Document1.ID != fj.pair.Document1.ID {
			return fi.pair.Document1.ID < fj.pair.Document1.ID
		}
		if fi.pair.Document2.ID != fj.pair.Document2.ID {
			return fi.pair.Document2.ID < fj.pair.Document2.ID
		}
		if fi.pos1 != fj.pos1 {
			return fi.pos1 < fj.pos1
		}
		return fi.pos2 < fj.pos2
	})

	found := len(findings)
	if found > d.maxResults {
		findings = findings[:d.maxResults]
	}

	pairs := make([]Pair, len(findings))
	for i, f := range findings {
		pairs[i] = f.pair
	}

	return &Analysis{
		TotalDocumentsAnalyzed: len(docs),
		ContradictionsFound:    found,
		HighConfidence:         pairs,
		Summary:                summarize(pairs),
	}, nil
}

// buildArena extracts statements and embeds them in one batch per request,
// so the O(n^2) scan reuses precomputed vectors.
func (d *Detector) buildArena(ctx context.Context, docs []library.Document) ([]docStatements, error) {
	var arena []docStatements
	var texts []string

	for _, doc := range docs {
		stmts := d.extractor.Extract(doc)
		if len(stmts) == 0 {
			continue
		}
		arena = append(arena, docStatements{doc: doc, statements: stmts})
		for _, s := range stmts {
			texts = append(texts, s.Text)
		}
	}

	if len(texts) == 0 {
		return arena, nil
	}

	vectors, err := d.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding statements: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d statements", len(vectors), len(texts))
	}

	offset := 0
	for i := range arena {
		n := len(arena[i].statements)
		arena[i].vectors = vectors[offset : offset+n]
		offset += n
	}
	return arena, nil
}

// comparePair scans all statement combinations of two documents.
func (d *Detector) comparePair(a, b docStatements) []finding {
	var out []finding
	for i, s1 := range a.statements {
		for j, s2 := range b.statements {
			f, ok := d.compare(a.doc, b.doc, s1, s2, a.vectors[i], b.vectors[j])
			if ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// compare decides whether two statements contradict each other. Both must
// discuss the same subject (topical gate) and either carry opposite polarity
// or assertively negate one another.
func (d *Detector) compare(docA, docB library.Document, s1, s2 statement.Statement, v1, v2 []float64) (finding, bool) {
	sim := embedding.Cosine(v1, v2)
	if sim < d.topicalSimilarity {
		return finding{}, false
	}

	opposite := (s1.Polarity == statement.PolarityPositive && s2.Polarity == statement.PolarityNegative) ||
		(s1.Polarity == statement.PolarityNegative && s2.Polarity == statement.PolarityPositive)

	neg1 := statement.HasNegation(statement.Tokens(s1.Text))
	neg2 := statement.HasNegation(statement.Tokens(s2.Text))
	bothAssertive := s1.Certainty == statement.CertaintyAssertive &&
		s2.Certainty == statement.CertaintyAssertive

	var ctype string
	switch {
	case opposite:
		ctype = TypeOpposingViews
		if neg1 != neg2 {
			// One side explicitly negates the shared claim.
			ctype = TypeFactualConflict
		}
	case neg1 != neg2 && bothAssertive:
		// Neither side carries sentiment, but one flatly negates a claim
		// the other asserts outright ("X causes Y" vs "X does not cause Y").
		ctype = TypeFactualConflict
	default:
		return finding{}, false
	}

	confidence := 0.5*sim + 0.3 + 0.2*certaintyWeight(s1, s2)
	confidence = math.Round(math.Min(confidence, 1.0)*1000) / 1000
	if confidence < d.minConfidence {
		return finding{}, false
	}

	return finding{
		pair: Pair{
			Document1:       Side{ID: docA.ID, Title: docA.Title, Statement: s1.Text},
			Document2:       Side{ID: docB.ID, Title: docB.Title, Statement: s2.Text},
			ConfidenceScore: confidence,
			Type:            ctype,
		},
		pos1: s1.Position,
		pos2: s2.Position,
	}, true
}

// certaintyWeight scales confidence by how assertive both sides are; heavy
// hedging on either side weakens the finding.
func certaintyWeight(s1, s2 statement.Statement) float64 {
	hedged := 0
	if s1.Certainty == statement.CertaintyHedged {
		hedged++
	}
	if s2.Certainty == statement.CertaintyHedged {
		hedged++
	}
	switch hedged {
	case 0:
		return 1.0
	case 1:
		return 0.6
	default:
		return 0.3
	}
}

func summarize(pairs []Pair) *Summary {
	if len(pairs) == 0 {
		return nil
	}

	types := make(map[string]int)
	pairCounts := make(map[[2]string]int)
	var total float64

	for _, p := range pairs {
		types[p.Type]++
		pairCounts[[2]string{p.Document1.ID, p.Document2.ID}]++
		total += p.ConfidenceScore
	}

	ranked := make([]DocPairCount, 0, len(pairCounts))
	for docs, count := range pairCounts {
		ranked = append(ranked, DocPairCount{Documents: []string{docs[0], docs[1]}, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].Documents[0] != ranked[j].Documents[0] {
			return ranked[i].Documents[0] < ranked[j].Documents[0]
		}
		return ranked[i].Documents[1] < ranked[j].Documents[1]
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	return &Summary{
		Types:                  types,
		MostContradictoryPairs: ranked,
		AverageConfidence:      math.Round(total/float64(len(pairs))*1000) / 1000,
	}
}

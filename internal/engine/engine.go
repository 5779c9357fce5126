// Package engine orchestrates an analysis request through validation,
// retrieval, the concurrent sub-analyses, and synthesis.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tanDivina/agent-scholar/internal/config"
	"github.com/tanDivina/agent-scholar/internal/contradiction"
	"github.com/tanDivina/agent-scholar/internal/embedding"
	"github.com/tanDivina/agent-scholar/internal/library"
	"github.com/tanDivina/agent-scholar/internal/perspective"
	"github.com/tanDivina/agent-scholar/internal/statement"
	"github.com/tanDivina/agent-scholar/internal/synthesis"
	"github.com/tanDivina/agent-scholar/internal/theme"
)

// Analysis type values.
const (
	TypeComprehensive  = "comprehensive"
	TypeThemes         = "themes"
	TypeContradictions = "contradictions"
	TypePerspectives   = "perspectives"
)

// Request limits.
const (
	MaxQueryLength       = 500
	MaxDocumentIDsLength = 1000
)

// Retriever is the upstream document collaborator. *library.DB satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, ids []string, max int) ([]library.Document, error)
}

// Request is one analysis invocation.
type Request struct {
	AnalysisType     string `json:"analysis_type"`
	Query            string `json:"query"`
	DocumentIDs      string `json:"document_ids"`
	MaxDocuments     int    `json:"max_documents"`
	IncludeSynthesis bool   `json:"include_synthesis"`
}

// Result is the full analysis response. Sections not requested, or lost to a
// sub-analysis failure, stay nil and are omitted from the JSON encoding.
type Result struct {
	AnalysisID            string                  `json:"analysis_id"`
	AnalysisType          string                  `json:"analysis_type"`
	AnalysisTimestamp     string                  `json:"analysis_timestamp"`
	DocumentsAnalyzed     int                     `json:"documents_analyzed"`
	QueryUsed             string                  `json:"query_used,omitempty"`
	ThemeAnalysis         *theme.Analysis         `json:"theme_analysis,omitempty"`
	ContradictionAnalysis *contradiction.Analysis `json:"contradiction_analysis,omitempty"`
	PerspectiveAnalysis   *perspective.Analysis   `json:"perspective_analysis,omitempty"`
	Synthesis             *synthesis.Synthesis    `json:"synthesis,omitempty"`
	Partial               bool                    `json:"partial,omitempty"`
	Errors                map[string]string       `json:"errors,omitempty"`
}

// ValidationError rejects a request before any work happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RetrievalError fails the whole request: without documents there is
// nothing to analyze.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieving documents: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// Engine wires the sub-analyzers together for one deployment.
type Engine struct {
	retriever    Retriever
	cfg          config.Analysis
	themes       *theme.Extractor
	detector     *contradiction.Detector
	perspectives *perspective.Analyzer
}

// New builds an engine from the configured thresholds.
func New(retriever Retriever, embedder embedding.Embedder, cfg config.Analysis) *Engine {
	extractor := statement.NewExtractor(cfg.MinStatementTokens, cfg.MaxStatementsPerDoc)
	return &Engine{
		retriever: retriever,
		cfg:       cfg,
		themes: theme.NewExtractor(embedder, cfg.ThemesPerDocument, cfg.MinThemeFrequency,
			cfg.MaxThemes, cfg.ClusterSimilarity),
		detector: contradiction.NewDetector(embedder, extractor, cfg.TopicalSimilarity,
			cfg.MinConfidence, cfg.MaxContradictions, cfg.PairWorkers),
		perspectives: perspective.NewAnalyzer(extractor),
	}
}

// ParseDocumentIDs splits a comma-separated id list, dropping empties.
func ParseDocumentIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Analyze runs one request through the full pipeline. Validation and
// retrieval failures return an error; sub-analysis failures degrade into the
// result's Errors map, and budget exhaustion flags the result as partial.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	req, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		AnalysisID:        uuid.NewString(),
		AnalysisType:      req.AnalysisType,
		AnalysisTimestamp: time.Now().UTC().Format(time.RFC3339),
		QueryUsed:         req.Query,
	}

	ids := ParseDocumentIDs(req.DocumentIDs)
	docs, err := e.retriever.Retrieve(ctx, req.Query, ids, req.MaxDocuments)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	result.DocumentsAnalyzed = len(docs)
	if len(docs) == 0 {
		log.Printf("analysis %s: no documents matched, skipping analysis", result.AnalysisID)
		return result, nil
	}
	log.Printf("analysis %s: analyzing %d documents (type=%s)",
		result.AnalysisID, len(docs), req.AnalysisType)

	wantThemes := req.AnalysisType == TypeComprehensive || req.AnalysisType == TypeThemes
	wantContradictions := req.AnalysisType == TypeComprehensive || req.AnalysisType == TypeContradictions
	wantPerspectives := req.AnalysisType == TypeComprehensive || req.AnalysisType == TypePerspectives

	budget := e.cfg.Budget()
	if budget <= 0 {
		budget = 2 * time.Minute
	}
	budgetCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	var mu sync.Mutex
	sectionErrs := make(map[string]string)
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if errors.Is(err, context.DeadlineExceeded) && budgetCtx.Err() != nil {
			result.Partial = true
			sectionErrs[section] = "aborted: analysis budget exceeded"
			return
		}
		sectionErrs[section] = err.Error()
	}

	// One task per sub-analysis; they share no mutable state and each
	// records either its result slot or an error annotation.
	g := new(errgroup.Group)
	g.SetLimit(3)

	if wantThemes {
		g.Go(func() error {
			analysis, err := e.themes.Analyze(budgetCtx, docs)
			if err != nil {
				fail("theme_analysis", err)
				return nil
			}
			result.ThemeAnalysis = analysis
			return nil
		})
	}
	if wantContradictions {
		g.Go(func() error {
			analysis, err := e.detector.Detect(budgetCtx, docs)
			if err != nil {
				fail("contradiction_analysis", err)
				return nil
			}
			result.ContradictionAnalysis = analysis
			return nil
		})
	}
	if wantPerspectives {
		g.Go(func() error {
			result.PerspectiveAnalysis = e.perspectives.Analyze(docs)
			return nil
		})
	}
	_ = g.Wait()

	if len(sectionErrs) > 0 {
		result.Errors = sectionErrs
		log.Printf("analysis %s: %d sub-analyses degraded: %v",
			result.AnalysisID, len(sectionErrs), sectionErrs)
	}

	requested := 0
	for _, want := range []bool{wantThemes, wantContradictions, wantPerspectives} {
		if want {
			requested++
		}
	}
	if requested > 1 || req.IncludeSynthesis {
		result.Synthesis = synthesis.Build(result.ThemeAnalysis,
			result.ContradictionAnalysis, result.PerspectiveAnalysis)
	}

	return result, nil
}

// validate normalizes defaults and bounds-checks the request.
func (e *Engine) validate(req Request) (Request, error) {
	if req.AnalysisType == "" {
		req.AnalysisType = TypeComprehensive
	}
	switch req.AnalysisType {
	case TypeComprehensive, TypeThemes, TypeContradictions, TypePerspectives:
	default:
		return req, &ValidationError{Message: fmt.Sprintf(
			"invalid analysis_type %q: expected comprehensive, themes, contradictions or perspectives",
			req.AnalysisType)}
	}

	if len(req.Query) > MaxQueryLength {
		return req, &ValidationError{Message: fmt.Sprintf(
			"query too long: %d chars, limit %d", len(req.Query), MaxQueryLength)}
	}
	if len(req.DocumentIDs) > MaxDocumentIDsLength {
		return req, &ValidationError{Message: fmt.Sprintf(
			"document_ids too long: %d chars, limit %d", len(req.DocumentIDs), MaxDocumentIDsLength)}
	}

	limit := e.cfg.MaxDocumentCap
	if limit <= 0 {
		limit = 100
	}
	if req.MaxDocuments == 0 {
		req.MaxDocuments = e.cfg.DefaultMaxDocuments
		if req.MaxDocuments <= 0 {
			req.MaxDocuments = 20
		}
	}
	if req.MaxDocuments < 1 || req.MaxDocuments > limit {
		return req, &ValidationError{Message: fmt.Sprintf(
			"max_documents must be between 1 and %d, got %d", limit, req.MaxDocuments)}
	}

	return req, nil
}

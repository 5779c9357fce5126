package engine

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tanDivina/agent-scholar/internal/config"
	"github.com/tanDivina/agent-scholar/internal/embedding"
	"github.com/tanDivina/agent-scholar/internal/library"
)

type fakeRetriever struct {
	docs     []library.Document
	err      error
	gotQuery string
	gotIDs   []string
	gotMax   int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, ids []string, max int) ([]library.Document, error) {
	f.gotQuery, f.gotIDs, f.gotMax = query, ids, max
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func sampleDocs() []library.Document {
	return []library.Document{
		{ID: "d1", Title: "Benefits", Author: "Dr. Alice Johnson", FullText: "Machine learning provides excellent results in pattern recognition. Machine learning is definitely beneficial for research."},
		{ID: "d2", Title: "Challenges", Author: "Prof. Bob Smith", FullText: "Machine learning is not always reliable and can produce poor results. Perhaps the uncertainty is the most concerning issue."},
		{ID: "d3", Title: "Outlook", Author: "Dr. Carol Davis", FullText: "Machine learning shows positive trends in research funding. The future looks bright for the field."},
		{ID: "d4", Title: "Methods", Author: "Dr. Alice Johnson", FullText: "Machine learning algorithms process large datasets effectively in practice."},
		{ID: "d5", Title: "Survey", Author: "Prof. Bob Smith", FullText: "Machine learning adoption grew across industries over the past decade."},
	}
}

func newTestEngine(r Retriever) *Engine {
	return New(r, embedding.NewHashEmbedder(64), config.Default().Analysis)
}

func TestThemesOnlyResponse(t *testing.T) {
	e := newTestEngine(&fakeRetriever{docs: sampleDocs()})

	result, err := e.Analyze(context.Background(), Request{AnalysisType: TypeThemes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ThemeAnalysis == nil {
		t.Fatal("expected theme_analysis present")
	}
	if result.ContradictionAnalysis != nil || result.PerspectiveAnalysis != nil {
		t.Error("expected unrequested sections to be nil")
	}
	if result.Synthesis != nil {
		t.Error("expected no synthesis for single-type request")
	}
	if result.DocumentsAnalyzed != 5 {
		t.Errorf("expected 5 documents analyzed, got %d", result.DocumentsAnalyzed)
	}

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"contradiction_analysis", "perspective_analysis", "synthesis"} {
		if strings.Contains(string(body), key) {
			t.Errorf("expected %q absent from response body", key)
		}
	}
}

func TestSingleTypeWithExplicitSynthesis(t *testing.T) {
	e := newTestEngine(&fakeRetriever{docs: sampleDocs()})

	result, err := e.Analyze(context.Background(), Request{AnalysisType: TypeThemes, IncludeSynthesis: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Synthesis == nil {
		t.Error("expected synthesis when explicitly requested")
	}
}

func TestComprehensiveDefault(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()}
	e := newTestEngine(retriever)

	result, err := e.Analyze(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AnalysisType != TypeComprehensive {
		t.Errorf("expected default analysis_type comprehensive, got %q", result.AnalysisType)
	}
	if retriever.gotMax != 20 {
		t.Errorf("expected default max_documents 20, got %d", retriever.gotMax)
	}
	if result.ThemeAnalysis == nil || result.ContradictionAnalysis == nil || result.PerspectiveAnalysis == nil {
		t.Error("expected all sections for comprehensive analysis")
	}
	if result.Synthesis == nil {
		t.Error("expected synthesis for multi-type request")
	}
	if result.AnalysisID == "" || result.AnalysisTimestamp == "" {
		t.Error("expected analysis id and timestamp to be set")
	}
}

func TestZeroDocumentsIsNotAnError(t *testing.T) {
	e := newTestEngine(&fakeRetriever{})

	result, err := e.Analyze(context.Background(), Request{Query: "nothing matches this"})
	if err != nil {
		t.Fatalf("expected no error for empty retrieval, got %v", err)
	}
	if result.DocumentsAnalyzed != 0 {
		t.Errorf("expected documents_analyzed 0, got %d", result.DocumentsAnalyzed)
	}
	if result.ThemeAnalysis != nil || result.ContradictionAnalysis != nil || result.PerspectiveAnalysis != nil {
		t.Error("expected all sections absent for empty batch")
	}
}

func TestValidation(t *testing.T) {
	e := newTestEngine(&fakeRetriever{docs: sampleDocs()})
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{"bad type", Request{AnalysisType: "sentiment"}},
		{"max documents above cap", Request{MaxDocuments: 101}},
		{"max documents negative", Request{MaxDocuments: -1}},
		{"query too long", Request{Query: strings.Repeat("q", MaxQueryLength+1)}},
		{"document ids too long", Request{DocumentIDs: strings.Repeat("a", MaxDocumentIDsLength+1)}},
	}
	for _, tt := range tests {
		_, err := e.Analyze(ctx, tt.req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
		}
	}
}

func TestRetrievalFailureFailsRequest(t *testing.T) {
	e := newTestEngine(&fakeRetriever{err: errors.New("store unreachable")})

	_, err := e.Analyze(context.Background(), Request{})
	var rerr *RetrievalError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
}

func TestDocumentIDsForwarded(t *testing.T) {
	retriever := &fakeRetriever{docs: sampleDocs()[:2]}
	e := newTestEngine(retriever)

	_, err := e.Analyze(context.Background(), Request{DocumentIDs: " d1, d2 ,,"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(retriever.gotIDs, []string{"d1", "d2"}) {
		t.Errorf("expected parsed ids [d1 d2], got %v", retriever.gotIDs)
	}
}

func TestIdempotence(t *testing.T) {
	e := newTestEngine(&fakeRetriever{docs: sampleDocs()})
	ctx := context.Background()

	first, err := e.Analyze(ctx, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Analyze(ctx, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.ThemeAnalysis, second.ThemeAnalysis) {
		t.Error("expected identical theme analysis across runs")
	}
	if !reflect.DeepEqual(first.ContradictionAnalysis, second.ContradictionAnalysis) {
		t.Error("expected identical contradiction analysis across runs")
	}
	if !reflect.DeepEqual(first.PerspectiveAnalysis, second.PerspectiveAnalysis) {
		t.Error("expected identical perspective analysis across runs")
	}
	if !reflect.DeepEqual(first.Synthesis, second.Synthesis) {
		t.Error("expected identical synthesis across runs")
	}
}

func TestBudgetExhaustionReturnsPartial(t *testing.T) {
	e := newTestEngine(&fakeRetriever{docs: sampleDocs()})

	// An already-expired deadline exercises the same cooperative-abort path
	// as an exhausted analysis budget.
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	result, err := e.Analyze(ctx, Request{})
	if err != nil {
		t.Fatalf("expected degraded result, not error, got %v", err)
	}
	if !result.Partial {
		t.Error("expected partial flag after budget exhaustion")
	}
	if len(result.Errors) == 0 {
		t.Error("expected per-section error annotations")
	}
	if result.PerspectiveAnalysis == nil {
		t.Error("expected non-cancellable section to still complete")
	}
}

func TestZeroBudgetFallsBackToDefault(t *testing.T) {
	// A zero-valued Analysis config must not start every request expired.
	e := New(&fakeRetriever{docs: sampleDocs()}, embedding.NewHashEmbedder(64), config.Analysis{})

	result, err := e.Analyze(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Partial {
		t.Error("expected full result with fallback budget")
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no degraded sections, got %v", result.Errors)
	}
	if result.ThemeAnalysis == nil || result.ContradictionAnalysis == nil || result.PerspectiveAnalysis == nil {
		t.Error("expected all sections to complete")
	}
}

func TestParseDocumentIDs(t *testing.T) {
	if got := ParseDocumentIDs(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	got := ParseDocumentIDs("a, b,,c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected parse result: %v", got)
	}
}

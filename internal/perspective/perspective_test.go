package perspective

import (
	"testing"

	"github.com/tanDivina/agent-scholar/internal/library"
	"github.com/tanDivina/agent-scholar/internal/statement"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(statement.NewExtractor(4, 60))
}

func TestSingleAuthorDiversity(t *testing.T) {
	docs := []library.Document{
		{ID: "d1", Author: "Dr. Alice Johnson", FullText: "The method clearly proves excellent results in trials."},
		{ID: "d2", Author: "Dr. Alice Johnson", FullText: "The approach demonstrates strong and reliable gains."},
	}

	analysis := newTestAnalyzer().Analyze(docs)

	if analysis.TotalAuthors != 1 {
		t.Fatalf("expected 1 author, got %d", analysis.TotalAuthors)
	}
	if analysis.Diversity.Level != DiversityLow {
		t.Errorf("expected low diversity for single author, got %q", analysis.Diversity.Level)
	}
	if analysis.Diversity.OverallScore != 0.0 {
		t.Errorf("expected 0.0 diversity score, got %f", analysis.Diversity.OverallScore)
	}

	author := analysis.AuthorPerspectives["Dr. Alice Johnson"]
	if author.DocumentCount != 2 {
		t.Errorf("expected 2 documents, got %d", author.DocumentCount)
	}
	if author.Summary.SentimentTendency != statement.PolarityPositive {
		t.Errorf("expected positive tendency, got %q", author.Summary.SentimentTendency)
	}
	if author.Summary.CertaintyTendency != statement.CertaintyAssertive {
		t.Errorf("expected assertive tendency, got %q", author.Summary.CertaintyTendency)
	}
}

func TestOpposedAuthorsScoreHigh(t *testing.T) {
	docs := []library.Document{
		{ID: "d1", Author: "Optimist", FullText: "The method clearly proves excellent results in trials. The approach demonstrates strong and reliable gains."},
		{ID: "d2", Author: "Skeptic", FullText: "The approach may be problematic in several cases. The system seems weak and possibly unreliable overall."},
	}

	analysis := newTestAnalyzer().Analyze(docs)

	if analysis.TotalAuthors != 2 {
		t.Fatalf("expected 2 authors, got %d", analysis.TotalAuthors)
	}
	if analysis.Diversity.Level != DiversityHigh {
		t.Errorf("expected high diversity for opposed stances, got %q (score %f)",
			analysis.Diversity.Level, analysis.Diversity.OverallScore)
	}
	if analysis.Diversity.OverallScore < 0.66 || analysis.Diversity.OverallScore > 1 {
		t.Errorf("diversity score out of expected range: %f", analysis.Diversity.OverallScore)
	}

	skeptic := analysis.AuthorPerspectives["Skeptic"]
	if skeptic.Summary.SentimentTendency != statement.PolarityNegative {
		t.Errorf("expected negative tendency for skeptic, got %q", skeptic.Summary.SentimentTendency)
	}
	if skeptic.Summary.CertaintyTendency != statement.CertaintyHedged {
		t.Errorf("expected hedged tendency for skeptic, got %q", skeptic.Summary.CertaintyTendency)
	}
}

func TestCautiousOptimistTrait(t *testing.T) {
	docs := []library.Document{
		{ID: "d1", Author: "Hopeful", FullText: "The treatment may improve patient outcomes substantially. The approach could possibly bring strong benefits later."},
	}

	analysis := newTestAnalyzer().Analyze(docs)
	traits := analysis.AuthorPerspectives["Hopeful"].Summary.Traits

	want := map[string]bool{"optimistic": false, "cautious": false, "cautious-optimist": false}
	for _, trait := range traits {
		if _, ok := want[trait]; ok {
			want[trait] = true
		}
	}
	for trait, found := range want {
		if !found {
			t.Errorf("expected trait %q in %v", trait, traits)
		}
	}
}

func TestConciseTrait(t *testing.T) {
	docs := []library.Document{
		{ID: "d1", Author: "Terse", FullText: "The parser works very well. The linter found nothing wrong."},
	}

	analysis := newTestAnalyzer().Analyze(docs)
	summary := analysis.AuthorPerspectives["Terse"].Summary

	if summary.Style.AvgSentenceLength >= 12 {
		t.Fatalf("expected short average sentence length, got %f", summary.Style.AvgSentenceLength)
	}
	var found bool
	for _, trait := range summary.Traits {
		if trait == "concise" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected concise trait, got %v", summary.Traits)
	}
}

func TestMissingAuthorGrouped(t *testing.T) {
	docs := []library.Document{
		{ID: "d1", FullText: "The committee met on Tuesday afternoon as planned."},
		{ID: "d2", Author: "  ", FullText: "Budgets were discussed for an hour."},
	}

	analysis := newTestAnalyzer().Analyze(docs)

	if analysis.TotalAuthors != 1 {
		t.Fatalf("expected unattributed documents grouped under one author, got %d", analysis.TotalAuthors)
	}
	author, ok := analysis.AuthorPerspectives[UnknownAuthor]
	if !ok {
		t.Fatalf("expected %q entry, got %v", UnknownAuthor, analysis.AuthorPerspectives)
	}
	if author.DocumentCount != 2 {
		t.Errorf("expected 2 documents, got %d", author.DocumentCount)
	}
}

func TestEmptyBatch(t *testing.T) {
	analysis := newTestAnalyzer().Analyze(nil)
	if analysis.TotalAuthors != 0 {
		t.Errorf("expected 0 authors, got %d", analysis.TotalAuthors)
	}
	if analysis.Diversity.Level != DiversityLow || analysis.Diversity.OverallScore != 0.0 {
		t.Errorf("expected low/0.0 diversity, got %+v", analysis.Diversity)
	}
}

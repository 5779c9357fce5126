package statement

import (
	"strings"
	"testing"

	"github.com/tanDivina/agent-scholar/internal/library"
)

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("First sentence here. Second sentence follows! Third one ends?")
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "First sentence here." {
		t.Errorf("unexpected first sentence: %q", got[0])
	}
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	got := SplitSentences("Dr. Smith studied transformers, e.g. attention layers. The results were clear.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "e.g. attention layers") {
		t.Errorf("abbreviation split the sentence: %q", got[0])
	}
}

func TestSplitSentencesDecimals(t *testing.T) {
	got := SplitSentences("Accuracy rose to 97.5 percent in trials. Error fell below 2.1 percent.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
}

func TestSplitSentencesEmpty(t *testing.T) {
	if got := SplitSentences(""); len(got) != 0 {
		t.Errorf("expected no sentences, got %v", got)
	}
	if got := SplitSentences("   \n  "); len(got) != 0 {
		t.Errorf("expected no sentences for whitespace, got %v", got)
	}
}

func TestExtractFiltersShortStatements(t *testing.T) {
	e := NewExtractor(4, 0)
	doc := library.Document{ID: "d1", FullText: "Too short. This sentence is long enough to keep."}

	got := e.Extract(doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got))
	}
	if got[0].DocumentID != "d1" {
		t.Errorf("expected document attribution, got %q", got[0].DocumentID)
	}
	if got[0].Position != 1 {
		t.Errorf("expected original position 1, got %d", got[0].Position)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := NewExtractor(4, 0)
	if got := e.Extract(library.Document{ID: "d1"}); len(got) != 0 {
		t.Errorf("expected empty list for empty text, got %d statements", len(got))
	}
}

func TestExtractCapsPerDocument(t *testing.T) {
	e := NewExtractor(4, 3)
	text := strings.Repeat("This sentence is definitely long enough. ", 10)
	got := e.Extract(library.Document{ID: "d1", FullText: text})
	if len(got) != 3 {
		t.Errorf("expected cap of 3 statements, got %d", len(got))
	}
}

func TestPolarityClassification(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Machine learning provides excellent results for analysis.", PolarityPositive},
		{"The approach produced poor and unreliable results.", PolarityNegative},
		{"The committee met on Tuesday afternoon as planned.", PolarityNeutral},
		{"The treatment does not improve patient outcomes.", PolarityNegative},
		{"The results were not bad at all this time.", PolarityPositive},
	}

	e := NewExtractor(4, 0)
	for _, tt := range tests {
		got := e.Extract(library.Document{ID: "d", FullText: tt.text})
		if len(got) != 1 {
			t.Fatalf("expected 1 statement for %q, got %d", tt.text, len(got))
		}
		if got[0].Polarity != tt.want {
			t.Errorf("polarity(%q) = %q, want %q", tt.text, got[0].Polarity, tt.want)
		}
	}
}

func TestCertaintyClassification(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"The study proves the method works on large corpora.", CertaintyAssertive},
		{"This approach may possibly help in some cases.", CertaintyHedged},
		{"The model processes a million tokens per second.", CertaintyAssertive},
	}

	e := NewExtractor(4, 0)
	for _, tt := range tests {
		got := e.Extract(library.Document{ID: "d", FullText: tt.text})
		if len(got) != 1 {
			t.Fatalf("expected 1 statement for %q, got %d", tt.text, len(got))
		}
		if got[0].Certainty != tt.want {
			t.Errorf("certainty(%q) = %q, want %q", tt.text, got[0].Certainty, tt.want)
		}
	}
}

func TestHasNegation(t *testing.T) {
	if !HasNegation(Tokens("This does not improve anything.")) {
		t.Error("expected negation detected")
	}
	if HasNegation(Tokens("This improves everything.")) {
		t.Error("expected no negation")
	}
}

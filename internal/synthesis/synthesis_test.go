package synthesis

import (
	"strings"
	"testing"

	"github.com/tanDivina/agent-scholar/internal/contradiction"
	"github.com/tanDivina/agent-scholar/internal/perspective"
	"github.com/tanDivina/agent-scholar/internal/theme"
)

func TestAllSectionsPresent(t *testing.T) {
	themes := &theme.Analysis{
		TotalDocuments: 3,
		TopThemes: []theme.Theme{
			{Label: "machine learning", RelevanceScore: 1.0},
			{Label: "data analysis", RelevanceScore: 0.8},
		},
	}
	contradictions := &contradiction.Analysis{
		TotalDocumentsAnalyzed: 3,
		ContradictionsFound:    1,
		HighConfidence: []contradiction.Pair{{
			Document1:       contradiction.Side{ID: "d1", Title: "Benefits of ML"},
			Document2:       contradiction.Side{ID: "d2", Title: "Challenges in AI"},
			ConfidenceScore: 0.85,
			Type:            contradiction.TypeOpposingViews,
		}},
	}
	perspectives := &perspective.Analysis{
		TotalAuthors: 3,
		Diversity:    perspective.Diversity{Level: perspective.DiversityHigh, OverallScore: 0.7},
	}

	s := Build(themes, contradictions, perspectives)

	if len(s.KeyInsights) != 3 {
		t.Fatalf("expected 3 insights, got %v", s.KeyInsights)
	}
	if !strings.Contains(s.KeyInsights[0], "machine learning, data analysis") {
		t.Errorf("expected theme insight, got %q", s.KeyInsights[0])
	}
	if !strings.Contains(s.KeyInsights[1], "1 potential contradiction") {
		t.Errorf("expected contradiction insight, got %q", s.KeyInsights[1])
	}
	if !strings.Contains(s.KeyInsights[2], "3 authors with high perspective diversity") {
		t.Errorf("expected perspective insight, got %q", s.KeyInsights[2])
	}

	var investigate bool
	for _, rec := range s.Recommendations {
		if strings.Contains(rec, `"Benefits of ML"`) && strings.Contains(rec, `"Challenges in AI"`) {
			investigate = true
		}
	}
	if !investigate {
		t.Errorf("expected an investigate recommendation naming both documents, got %v", s.Recommendations)
	}

	if s.OverallAssessment.ThemeCoherence != "high" {
		t.Errorf("expected high coherence, got %q", s.OverallAssessment.ThemeCoherence)
	}
	if s.OverallAssessment.ConsistencyLevel != "moderate" {
		t.Errorf("expected moderate consistency, got %q", s.OverallAssessment.ConsistencyLevel)
	}
	if s.OverallAssessment.PerspectiveDiversity != perspective.DiversityHigh {
		t.Errorf("expected high diversity, got %q", s.OverallAssessment.PerspectiveDiversity)
	}
}

func TestToleratesAbsentSections(t *testing.T) {
	s := Build(&theme.Analysis{TotalDocuments: 2}, nil, nil)

	if s.OverallAssessment.ConsistencyLevel != "unknown" {
		t.Errorf("expected unknown consistency without contradiction section, got %q",
			s.OverallAssessment.ConsistencyLevel)
	}
	if s.OverallAssessment.PerspectiveDiversity != "unknown" {
		t.Errorf("expected unknown diversity without perspective section, got %q",
			s.OverallAssessment.PerspectiveDiversity)
	}
	if s.OverallAssessment.ThemeCoherence != "low" {
		t.Errorf("expected low coherence with no themes, got %q", s.OverallAssessment.ThemeCoherence)
	}
	if len(s.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", s.Recommendations)
	}
}

func TestAllNil(t *testing.T) {
	s := Build(nil, nil, nil)
	if len(s.KeyInsights) != 0 || len(s.Recommendations) != 0 {
		t.Errorf("expected empty synthesis, got %+v", s)
	}
	if s.OverallAssessment.ThemeCoherence != "unknown" {
		t.Errorf("expected unknown labels, got %+v", s.OverallAssessment)
	}
}

func TestNoContradictionsIsConsistent(t *testing.T) {
	s := Build(nil, &contradiction.Analysis{TotalDocumentsAnalyzed: 5}, nil)

	if s.OverallAssessment.ConsistencyLevel != "high" {
		t.Errorf("expected high consistency, got %q", s.OverallAssessment.ConsistencyLevel)
	}
	var found bool
	for _, in := range s.KeyInsights {
		if strings.Contains(in, "No significant contradictions") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected clean-bill insight, got %v", s.KeyInsights)
	}
}

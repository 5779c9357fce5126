// Package synthesis aggregates the analysis sections into insights and
// recommendations. It extracts nothing new; it only reads section results.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/tanDivina/agent-scholar/internal/contradiction"
	"github.com/tanDivina/agent-scholar/internal/perspective"
	"github.com/tanDivina/agent-scholar/internal/theme"
)

// Assessment carries one coarse qualitative label per analysis section.
type Assessment struct {
	ThemeCoherence       string `json:"theme_coherence"`
	ConsistencyLevel     string `json:"consistency_level"`
	PerspectiveDiversity string `json:"perspective_diversity"`
}

// Synthesis is the synthesis section of an analysis response.
type Synthesis struct {
	KeyInsights       []string   `json:"key_insights"`
	Recommendations   []string   `json:"recommendations"`
	OverallAssessment Assessment `json:"overall_assessment"`
}

// Build synthesizes whichever sections were computed. Any input may be nil;
// absent sections are reported as "unknown" in the assessment.
func Build(themes *theme.Analysis, contradictions *contradiction.Analysis, perspectives *perspective.Analysis) *Synthesis {
	s := &Synthesis{
		KeyInsights:     []string{},
		Recommendations: []string{},
		OverallAssessment: Assessment{
			ThemeCoherence:       "unknown",
			ConsistencyLevel:     "unknown",
			PerspectiveDiversity: "unknown",
		},
	}

	if themes != nil {
		labels := make([]string, 0, 5)
		for _, th := range themes.TopThemes {
			labels = append(labels, th.Label)
			if len(labels) == 5 {
				break
			}
		}
		if len(labels) > 0 {
			s.KeyInsights = append(s.KeyInsights, "Primary themes: "+strings.Join(labels, ", "))
		} else {
			s.KeyInsights = append(s.KeyInsights, "No recurring themes detected across the documents")
		}
		s.OverallAssessment.ThemeCoherence = themeCoherence(themes)
	}

	if contradictions != nil {
		if contradictions.ContradictionsFound > 0 {
			s.KeyInsights = append(s.KeyInsights,
				fmt.Sprintf("Found %d potential contradictions", contradictions.ContradictionsFound))
			s.Recommendations = append(s.Recommendations, "Review contradictory statements for consistency")
			for i, p := range contradictions.HighConfidence {
				if i == 3 {
					break
				}
				s.Recommendations = append(s.Recommendations,
					fmt.Sprintf("Investigate the contradiction between %q and %q",
						sideName(p.Document1), sideName(p.Document2)))
			}
		} else {
			s.KeyInsights = append(s.KeyInsights, "No significant contradictions detected")
		}
		s.OverallAssessment.ConsistencyLevel = consistencyLevel(contradictions)
	}

	if perspectives != nil {
		s.KeyInsights = append(s.KeyInsights,
			fmt.Sprintf("Analyzed %d authors with %s perspective diversity",
				perspectives.TotalAuthors, perspectives.Diversity.Level))
		s.OverallAssessment.PerspectiveDiversity = perspectives.Diversity.Level
	}

	return s
}

func sideName(side contradiction.Side) string {
	if side.Title != "" {
		return side.Title
	}
	return side.ID
}

// themeCoherence buckets the average relevance of the reported themes.
func themeCoherence(themes *theme.Analysis) string {
	if len(themes.TopThemes) == 0 {
		return "low"
	}
	var total float64
	for _, th := range themes.TopThemes {
		total += th.RelevanceScore
	}
	if total/float64(len(themes.TopThemes)) >= 0.5 {
		return "high"
	}
	return "moderate"
}

// consistencyLevel buckets the contradiction count.
func consistencyLevel(contradictions *contradiction.Analysis) string {
	switch {
	case contradictions.ContradictionsFound == 0:
		return "high"
	case contradictions.ContradictionsFound <= 5:
		return "moderate"
	default:
		return "low"
	}
}

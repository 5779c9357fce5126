// Package report renders analysis results as markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/tanDivina/agent-scholar/internal/engine"
)

// Markdown renders the result as a readable markdown report.
func Markdown(result *engine.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cross-Library Analysis Results (%s)\n\n", result.AnalysisType)
	fmt.Fprintf(&b, "**Analysis Time:** %s\n", result.AnalysisTimestamp)
	fmt.Fprintf(&b, "**Documents Analyzed:** %d\n\n", result.DocumentsAnalyzed)

	if result.QueryUsed != "" {
		fmt.Fprintf(&b, "**Query:** %s\n\n", result.QueryUsed)
	}
	if result.Partial {
		b.WriteString("*Partial results: the analysis budget was exhausted before every section finished.*\n\n")
	}

	if result.ThemeAnalysis != nil {
		b.WriteString("## Theme Analysis\n\n")
		if len(result.ThemeAnalysis.TopThemes) > 0 {
			b.WriteString("**Top Themes:**\n")
			for i, th := range result.ThemeAnalysis.TopThemes {
				if i == 5 {
					break
				}
				fmt.Fprintf(&b, "%d. **%s** (relevance: %g, appears in %d docs)\n",
					i+1, th.Label, th.RelevanceScore, th.DocumentFrequency)
			}
		} else {
			b.WriteString("No recurring themes found.\n")
		}
		if len(result.ThemeAnalysis.Clusters) > 0 {
			b.WriteString("\n**Theme Clusters:**\n")
			for i, c := range result.ThemeAnalysis.Clusters {
				if i == 3 {
					break
				}
				fmt.Fprintf(&b, "- **%s**: %s\n", c.Name, strings.Join(c.Themes, ", "))
			}
		}
		b.WriteString("\n")
	}

	if result.ContradictionAnalysis != nil {
		b.WriteString("## Contradiction Analysis\n\n")
		if result.ContradictionAnalysis.ContradictionsFound > 0 {
			fmt.Fprintf(&b, "**Found %d potential contradictions**\n\n",
				result.ContradictionAnalysis.ContradictionsFound)
			b.WriteString("**High Confidence Contradictions:**\n")
			for i, p := range result.ContradictionAnalysis.HighConfidence {
				if i == 3 {
					break
				}
				fmt.Fprintf(&b, "%d. **%s** vs **%s**\n", i+1, p.Document1.Title, p.Document2.Title)
				fmt.Fprintf(&b, "   - Type: %s\n", p.Type)
				fmt.Fprintf(&b, "   - Confidence: %.2f\n", p.ConfidenceScore)
			}
		} else {
			b.WriteString("**No significant contradictions detected**\n")
		}
		b.WriteString("\n")
	}

	if result.PerspectiveAnalysis != nil {
		b.WriteString("## Perspective Analysis\n\n")
		fmt.Fprintf(&b, "**Authors Analyzed:** %d\n", result.PerspectiveAnalysis.TotalAuthors)
		fmt.Fprintf(&b, "**Perspective Diversity:** %s\n\n", result.PerspectiveAnalysis.Diversity.Level)
	}

	if result.Synthesis != nil {
		b.WriteString("## Key Insights\n\n")
		for _, insight := range result.Synthesis.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		if len(result.Synthesis.Recommendations) > 0 {
			b.WriteString("\n**Recommendations:**\n")
			for _, rec := range result.Synthesis.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
		}
		assessment := result.Synthesis.OverallAssessment
		b.WriteString("\n**Overall Assessment:**\n")
		fmt.Fprintf(&b, "- Theme Coherence: %s\n", assessment.ThemeCoherence)
		fmt.Fprintf(&b, "- Consistency Level: %s\n", assessment.ConsistencyLevel)
		fmt.Fprintf(&b, "- Perspective Diversity: %s\n", assessment.PerspectiveDiversity)
	}

	if len(result.Errors) > 0 {
		b.WriteString("\n## Degraded Sections\n\n")
		sections := make([]string, 0, len(result.Errors))
		for section := range result.Errors {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			fmt.Fprintf(&b, "- %s: %s\n", section, result.Errors[section])
		}
	}

	return b.String()
}

// HTML renders the markdown report as an HTML fragment.
func HTML(result *engine.Result) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(result)), &buf); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

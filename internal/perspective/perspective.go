// Package perspective profiles authors by the polarity and certainty of
// their statements and scores how diverse the batch's viewpoints are.
package perspective

import (
	"math"
	"sort"
	"strings"

	"github.com/tanDivina/agent-scholar/internal/library"
	"github.com/tanDivina/agent-scholar/internal/statement"
)

// Diversity level labels.
const (
	DiversityLow    = "low"
	DiversityMedium = "medium"
	DiversityHigh   = "high"
)

// UnknownAuthor groups documents without author metadata.
const UnknownAuthor = "Unknown Author"

// Style holds writing style indicators aggregated per author.
type Style struct {
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	QuestionRatio     float64 `json:"question_ratio"`
	ExclamationRatio  float64 `json:"exclamation_ratio"`
}

// Summary characterizes one author's overall stance.
type Summary struct {
	SentimentTendency string   `json:"sentiment_tendency"`
	CertaintyTendency string   `json:"certainty_tendency"`
	AvgSentimentScore float64  `json:"avg_sentiment_score"`
	AvgCertaintyScore float64  `json:"avg_certainty_score"`
	Traits            []string `json:"perspective_traits"`
	Style             Style    `json:"writing_style"`
}

// Author is one entry of the per-author map.
type Author struct {
	DocumentCount      int     `json:"document_count"`
	TotalContentLength int     `json:"total_content_length"`
	Summary            Summary `json:"perspective_summary"`
}

// Diversity scores how far apart the authors' stances are.
type Diversity struct {
	Level        string  `json:"diversity_level"`
	OverallScore float64 `json:"overall_diversity_score"`
	AuthorCount  int     `json:"author_count"`
}

// Analysis is the perspective section of an analysis response.
type Analysis struct {
	TotalAuthors       int               `json:"total_authors"`
	AuthorPerspectives map[string]Author `json:"author_perspectives"`
	Diversity          Diversity         `json:"diversity_analysis"`
}

// Analyzer groups statements by author and derives stance profiles.
type Analyzer struct {
	extractor *statement.Extractor
}

func NewAnalyzer(extractor *statement.Extractor) *Analyzer {
	return &Analyzer{extractor: extractor}
}

type authorAccum struct {
	docCount      int
	contentLength int
	positive      int
	negative      int
	neutral       int
	assertive     int
	hedged        int
	sentences     int
	words         int
	questions     int
	exclamations  int
}

// Analyze builds per-author profiles and the batch diversity score.
func (a *Analyzer) Analyze(docs []library.Document) *Analysis {
	accums := make(map[string]*authorAccum)

	for _, doc := range docs {
		author := strings.TrimSpace(doc.Author)
		if author == "" {
			author = UnknownAuthor
		}
		acc, ok := accums[author]
		if !ok {
			acc = &authorAccum{}
			accums[author] = acc
		}
		acc.docCount++
		acc.contentLength += len(doc.FullText)
		acc.questions += strings.Count(doc.FullText, "?")
		acc.exclamations += strings.Count(doc.FullText, "!")

		for _, sentence := range statement.SplitSentences(doc.FullText) {
			acc.sentences++
			acc.words += len(strings.Fields(sentence))
		}

		for _, s := range a.extractor.Extract(doc) {
			switch s.Polarity {
			case statement.PolarityPositive:
				acc.positive++
			case statement.PolarityNegative:
				acc.negative++
			default:
				acc.neutral++
			}
			if s.Certainty == statement.CertaintyHedged {
				acc.hedged++
			} else {
				acc.assertive++
			}
		}
	}

	perspectives := make(map[string]Author, len(accums))
	type point struct{ sentiment, certainty float64 }
	points := make([]point, 0, len(accums))

	// Sorted author order keeps the diversity calculation deterministic.
	names := make([]string, 0, len(accums))
	for name := range accums {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		acc := accums[name]
		summary := summarize(acc)
		perspectives[name] = Author{
			DocumentCount:      acc.docCount,
			TotalContentLength: acc.contentLength,
			Summary:            summary,
		}
		points = append(points, point{summary.AvgSentimentScore, summary.AvgCertaintyScore})
	}

	diversity := Diversity{Level: DiversityLow, OverallScore: 0.0, AuthorCount: len(names)}
	if len(points) > 1 {
		// Mean pairwise Euclidean distance in (sentiment, certainty)
		// space; both axes span [-1,1], so 2*sqrt(2) is the maximum.
		var total float64
		var pairs int
		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				ds := points[i].sentiment - points[j].sentiment
				dc := points[i].certainty - points[j].certainty
				total += math.Sqrt(ds*ds + dc*dc)
				pairs++
			}
		}
		score := total / float64(pairs) / (2 * math.Sqrt2)
		diversity.OverallScore = math.Round(score*1000) / 1000
		switch {
		case diversity.OverallScore >= 0.66:
			diversity.Level = DiversityHigh
		case diversity.OverallScore >= 0.33:
			diversity.Level = DiversityMedium
		}
	}

	return &Analysis{
		TotalAuthors:       len(names),
		AuthorPerspectives: perspectives,
		Diversity:          diversity,
	}
}

func summarize(acc *authorAccum) Summary {
	stmts := acc.positive + acc.negative + acc.neutral

	var sentiment, certainty float64
	if stmts > 0 {
		sentiment = float64(acc.positive-acc.negative) / float64(stmts)
		certainty = float64(acc.assertive-acc.hedged) / float64(stmts)
	}

	avgSentenceLength := 0.0
	if acc.sentences > 0 {
		avgSentenceLength = float64(acc.words) / float64(acc.sentences)
	}

	s := Summary{
		SentimentTendency: modalPolarity(acc),
		CertaintyTendency: modalCertainty(acc),
		AvgSentimentScore: math.Round(sentiment*1000) / 1000,
		AvgCertaintyScore: math.Round(certainty*1000) / 1000,
		Traits:            traits(sentiment, certainty, avgSentenceLength),
		Style: Style{
			AvgSentenceLength: math.Round(avgSentenceLength*10) / 10,
			QuestionRatio:     ratio(acc.questions, acc.sentences),
			ExclamationRatio:  ratio(acc.exclamations, acc.sentences),
		},
	}
	return s
}

// modalPolarity picks the author's most common statement polarity, falling
// back to neutral on ties.
func modalPolarity(acc *authorAccum) string {
	switch {
	case acc.positive > acc.negative && acc.positive > acc.neutral:
		return statement.PolarityPositive
	case acc.negative > acc.positive && acc.negative > acc.neutral:
		return statement.PolarityNegative
	default:
		return statement.PolarityNeutral
	}
}

// modalCertainty picks the author's most common certainty label; ties count
// as assertive, matching the statement-level default.
func modalCertainty(acc *authorAccum) string {
	if acc.hedged > acc.assertive {
		return statement.CertaintyHedged
	}
	return statement.CertaintyAssertive
}

// traits derives qualitative labels from the tendency combination.
func traits(sentiment, certainty, avgSentenceLength float64) []string {
	var out []string

	switch {
	case sentiment > 0.2:
		out = append(out, "optimistic")
	case sentiment < -0.2:
		out = append(out, "critical")
	default:
		out = append(out, "balanced")
	}

	switch {
	case certainty > 0.2:
		out = append(out, "confident")
	case certainty < -0.2:
		out = append(out, "cautious")
	default:
		out = append(out, "moderate")
	}

	if sentiment > 0 && certainty < 0 {
		out = append(out, "cautious-optimist")
	}

	if avgSentenceLength > 20 {
		out = append(out, "detailed")
	} else if avgSentenceLength > 0 && avgSentenceLength < 12 {
		out = append(out, "concise")
	}

	return out
}

func ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 1000
}

// Package statement splits document text into analyzable sentence-level
// claims tagged with polarity and certainty.
package statement

import (
	"strings"
	"unicode"

	"github.com/tanDivina/agent-scholar/internal/library"
)

// Polarity labels.
const (
	PolarityPositive = "positive"
	PolarityNeutral  = "neutral"
	PolarityNegative = "negative"
)

// Certainty labels. Unhedged statements count as assertive.
const (
	CertaintyAssertive = "assertive"
	CertaintyHedged    = "hedged"
)

// Statement is a single extracted claim. Never mutated after creation.
type Statement struct {
	DocumentID string
	Text       string
	Position   int
	Polarity   string
	Certainty  string
}

// DefaultMinTokens is the noise filter: statements shorter than this many
// tokens are discarded.
const DefaultMinTokens = 4

// Extractor splits documents into Statements.
type Extractor struct {
	minTokens int
	maxPerDoc int
}

// NewExtractor creates an extractor. minTokens <= 0 uses the default;
// maxPerDoc <= 0 means unbounded.
func NewExtractor(minTokens, maxPerDoc int) *Extractor {
	if minTokens <= 0 {
		minTokens = DefaultMinTokens
	}
	return &Extractor{minTokens: minTokens, maxPerDoc: maxPerDoc}
}

// Extract returns the ordered statements of a document. Empty or unparsable
// text yields an empty list, never an error.
func (e *Extractor) Extract(doc library.Document) []Statement {
	sentences := SplitSentences(doc.FullText)

	var statements []Statement
	for i, sentence := range sentences {
		tokens := Tokens(sentence)
		if len(tokens) < e.minTokens {
			continue
		}

		statements = append(statements, Statement{
			DocumentID: doc.ID,
			Text:       sentence,
			Position:   i,
			Polarity:   classifyPolarity(tokens),
			Certainty:  classifyCertainty(tokens),
		})

		if e.maxPerDoc > 0 && len(statements) >= e.maxPerDoc {
			break
		}
	}
	return statements
}

// abbreviations that must not terminate a sentence. Stored without the
// trailing dot, lowercased; multi-dot forms keep their interior dots.
var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "etc": true, "vs": true, "cf": true,
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"fig": true, "st": true, "no": true, "inc": true, "jr": true,
	"sr": true, "al": true, "approx": true, "dept": true, "est": true,
	"u.s": true, "u.k": true, "ph.d": true,
}

// SplitSentences splits text on sentence boundaries, guarding against
// abbreviations and decimal numbers.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	for i, r := range runes {
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Only a boundary when followed by whitespace or end of text.
		// Catches decimals ("3.5") and dotted tokens ("example.com").
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}

		if r == '.' {
			word := lastWord(current.String())
			if len(word) == 1 || abbreviations[word] {
				continue
			}
		}

		flush()
	}
	flush()

	return sentences
}

// lastWord returns the lowercased token preceding the terminator just
// written to the builder, with its trailing dot stripped.
func lastWord(s string) string {
	s = strings.TrimSuffix(s, ".")
	if idx := strings.LastIndexFunc(s, unicode.IsSpace); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimLeft(s, "(\"'")
	return strings.ToLower(s)
}

// Tokens lowercases and tokenizes text, keeping apostrophes so contractions
// like "doesn't" survive as single tokens.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "effective": true,
	"successful": true, "beneficial": true, "positive": true, "strong": true,
	"improve": true, "improves": true, "improved": true, "improvement": true,
	"better": true, "promising": true, "robust": true, "valuable": true,
	"advantage": true, "gains": true, "reliable": true, "accurate": true,
	"bright": true, "revolutionized": true,
}

var negativeWords = map[string]bool{
	"bad": true, "poor": true, "ineffective": true, "problematic": true,
	"negative": true, "weak": true, "failed": true, "fails": true,
	"failure": true, "harmful": true, "worse": true, "decline": true,
	"flawed": true, "unreliable": true, "risky": true, "dangerous": true,
	"concerning": true, "inaccurate": true, "misleading": true,
}

var negationWords = map[string]bool{
	"not": true, "no": true, "never": true, "cannot": true, "can't": true,
	"won't": true, "doesn't": true, "don't": true, "isn't": true,
	"aren't": true, "wasn't": true, "didn't": true, "without": true,
	"lacks": true, "lack": true, "nor": true,
}

var hedgingWords = map[string]bool{
	"may": true, "might": true, "could": true, "perhaps": true,
	"possibly": true, "maybe": true, "suggests": true, "suggest": true,
	"seems": true, "appears": true, "likely": true, "uncertain": true,
	"unclear": true, "potentially": true, "arguably": true, "probably": true,
}

var assertiveWords = map[string]bool{
	"proves": true, "proved": true, "demonstrates": true, "demonstrated": true,
	"shows": true, "confirms": true, "confirmed": true, "definitely": true,
	"certainly": true, "clearly": true, "undoubtedly": true, "always": true,
	"absolutely": true, "established": true, "obviously": true,
}

// HasNegation reports whether any token is a negation marker.
func HasNegation(tokens []string) bool {
	for _, tok := range tokens {
		if negationWords[tok] {
			return true
		}
	}
	return false
}

// classifyPolarity assigns a three-way polarity label. A negation marker
// within the three tokens preceding a sentiment word inverts it, so
// "does not improve" reads as negative.
func classifyPolarity(tokens []string) string {
	var positive, negative int
	for i, tok := range tokens {
		switch {
		case positiveWords[tok]:
			if negatedAt(tokens, i) {
				negative++
			} else {
				positive++
			}
		case negativeWords[tok]:
			if negatedAt(tokens, i) {
				positive++
			} else {
				negative++
			}
		}
	}

	switch {
	case positive > negative:
		return PolarityPositive
	case negative > positive:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

func negatedAt(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		if negationWords[tokens[j]] {
			return true
		}
	}
	return false
}

// classifyCertainty labels a statement hedged when hedging markers outweigh
// assertive ones; everything else is assertive.
func classifyCertainty(tokens []string) string {
	var hedged, assertive int
	for _, tok := range tokens {
		if hedgingWords[tok] {
			hedged++
		}
		if assertiveWords[tok] {
			assertive++
		}
	}
	if hedged > assertive {
		return CertaintyHedged
	}
	return CertaintyAssertive
}

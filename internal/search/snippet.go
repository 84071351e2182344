package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/factweave/veridex/internal/embed"
	"github.com/factweave/veridex/internal/model"
)

// Locator finds the single most claim-relevant snippet in extracted page
// text. Semantic selection runs when enabled and the embedding service is
// up; otherwise lexical overlap scoring takes over.
type Locator struct {
	embeddings    *embed.Service
	semantic      bool
	minSimilarity float64
	window        int // Sentences of context on each side of the best one
}

// NewLocator builds a snippet locator from retrieval config.
func NewLocator(embeddings *embed.Service, cfg model.RetrievalConfig) *Locator {
	window := cfg.SnippetWindow
	if window <= 0 {
		window = 1
	}
	return &Locator{
		embeddings:    embeddings,
		semantic:      cfg.SemanticSnippets && embeddings != nil && embeddings.Enabled(),
		minSimilarity: cfg.MinSnippetSimilarity,
		window:        window,
	}
}

// Locate returns the best snippet and its relevance score in [0,1].
// An empty snippet means no sentence cleared the bar.
func (l *Locator) Locate(ctx context.Context, claimText, pageText string) (string, float64) {
	sentences := splitSentences(pageText)
	if len(sentences) == 0 {
		return "", 0
	}

	if l.semantic {
		if snippet, score, ok := l.locateSemantic(ctx, claimText, sentences); ok {
			return snippet, score
		}
		// Embedding failure degrades to the lexical path.
	}
	return l.locateLexical(claimText, sentences)
}

func (l *Locator) locateSemantic(ctx context.Context, claimText string, sentences []string) (string, float64, bool) {
	texts := append([]string{claimText}, sentences...)
	vectors := l.embeddings.EmbedBatch(ctx, texts)
	if len(vectors) != len(texts) || vectors[0] == nil {
		return "", 0, false
	}

	best, bestScore := -1, 0.0
	for i, vec := range vectors[1:] {
		if vec == nil {
			continue
		}
		if sim := embed.Cosine(vectors[0], vec); sim > bestScore {
			best, bestScore = i, sim
		}
	}
	if best < 0 || bestScore < l.minSimilarity {
		return "", 0, true
	}
	return l.windowAround(sentences, best), model.ClampScore(bestScore), true
}

// Fact-indicating phrases boost sentences that present evidence rather
// than narrative.
var factPhrases = []string{
	"study shows", "study found", "research shows", "according to",
	"data shows", "figures show", "report found", "survey found",
	"statistics show", "announced that", "confirmed that",
}

var numericPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?%?`)

func (l *Locator) locateLexical(claimText string, sentences []string) (string, float64) {
	claimWords := contentWords(claimText)
	if len(claimWords) == 0 {
		return "", 0
	}

	best, bestScore := -1, 0.0
	for i, sentence := range sentences {
		score := lexicalScore(claimWords, sentence)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore == 0 {
		return "", 0
	}
	return l.windowAround(sentences, best), model.ClampScore(bestScore)
}

// lexicalScore is word overlap with claim content words, plus bonuses for
// fact-indicating phrases and numeric content.
func lexicalScore(claimWords map[string]bool, sentence string) float64 {
	lower := strings.ToLower(sentence)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return 0
	}

	var overlap int
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?()\"'")
		if claimWords[w] && !seen[w] {
			overlap++
			seen[w] = true
		}
	}
	score := float64(overlap) / float64(len(claimWords))

	for _, phrase := range factPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.15
			break
		}
	}
	if numericPattern.MatchString(sentence) {
		score += 0.1
	}
	return score
}

func (l *Locator) windowAround(sentences []string, center int) string {
	start := center - l.window
	if start < 0 {
		start = 0
	}
	end := center + l.window + 1
	if end > len(sentences) {
		end = len(sentences)
	}
	return strings.Join(sentences[start:end], " ")
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences is a pragmatic splitter: terminator followed by space.
// Abbreviation false-positives cost a slightly odd window boundary, not
// correctness.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")

	var sentences []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		if len(s) >= 20 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "of": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"and": true, "or": true, "that": true, "this": true, "it": true,
	"by": true, "with": true, "from": true, "as": true, "has": true,
	"have": true, "had": true, "will": true, "would": true,
}

func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) > 1 && !stopwords[w] {
			words[w] = true
		}
	}
	return words
}

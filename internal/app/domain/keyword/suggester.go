package keyword

import (
	"regexp"
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// MaxSuggestedKeywords caps the number of tokens Suggest returns.
const MaxSuggestedKeywords = 5

const (
	scoreVocabulary = 2
	scoreFallback   = 1
)

// tokenPattern matches alphabetic runs, allowing internal hyphens and
// apostrophes ("rooftop", "check-in", "o'clock").
var tokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z\-']+`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "than",
		"in", "on", "at", "to", "for", "of", "with", "by", "from",
		"up", "down", "out", "off", "over", "under", "into", "about",
		"is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did",
		"will", "would", "can", "could", "should", "may", "might", "must",
		"i", "you", "he", "she", "it", "we", "they",
		"my", "your", "his", "her", "its", "our", "their",
		"this", "that", "these", "those", "there", "here",
		"what", "which", "who", "when", "where", "why", "how",
		"all", "any", "both", "each", "few", "more", "most", "some", "such",
		"no", "not", "only", "own", "same", "so", "too", "very", "just",
		"as", "also", "really", "quite",
	} {
		stopwords[w] = struct{}{}
	}
}

// Suggester proposes keywords for an experience from its title and
// description. It is a pure scoring function over the loaded vocabulary;
// build it once at startup and share it, the matcher is read-only after
// construction.
type Suggester struct {
	vocabulary map[string]struct{}
	phrases    []string
	matcher    *ahocorasick.AhoCorasick
}

// NewSuggester builds a Suggester over the canonical keyword vocabulary.
// Multi-word vocabulary entries ("street food") cannot surface through
// single-token matching, so they are compiled into an Aho-Corasick
// automaton and matched against the raw text instead.
func NewSuggester(vocabulary []string) *Suggester {
	s := &Suggester{
		vocabulary: make(map[string]struct{}, len(vocabulary)),
	}
	for _, name := range vocabulary {
		lowered := strings.ToLower(strings.TrimSpace(name))
		if lowered == "" {
			continue
		}
		s.vocabulary[lowered] = struct{}{}
		if strings.Contains(lowered, " ") {
			s.phrases = append(s.phrases, lowered)
		}
	}
	if len(s.phrases) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			MatchOnlyWholeWords: true,
			MatchKind:           ahocorasick.LeftMostLongestMatch,
			DFA:                 true,
		})
		matcher := builder.Build(s.phrases)
		s.matcher = &matcher
	}
	return s
}

// Suggest returns up to MaxSuggestedKeywords distinct candidates drawn
// from the text. Tokens found in the vocabulary score 2, unknown tokens
// score 1; ties break by shorter token first, then lexical order.
func (s *Suggester) Suggest(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	scores := map[string]int{}
	for _, token := range tokenPattern.FindAllString(text, -1) {
		if _, stop := stopwords[token]; stop {
			continue
		}
		score := scoreFallback
		if _, known := s.vocabulary[token]; known {
			score = scoreVocabulary
		}
		if score > scores[token] {
			scores[token] = score
		}
	}

	if s.matcher != nil {
		for _, match := range s.matcher.FindAll(text) {
			phrase := s.phrases[match.Pattern()]
			if scoreVocabulary > scores[phrase] {
				scores[phrase] = scoreVocabulary
			}
		}
	}

	candidates := make([]string, 0, len(scores))
	for token := range scores {
		candidates = append(candidates, token)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	if len(candidates) > MaxSuggestedKeywords {
		candidates = candidates[:MaxSuggestedKeywords]
	}
	return candidates
}

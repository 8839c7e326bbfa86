// Package themes derives bounded theme sets from an entry's free-form
// writing. Themes come only from the Brain Dump section so links reflect
// what the author actually wrote, not generated material.
package themes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/daybook/internal/citation"
)

const minTermLen = 3

// markerRegex strips backlink/tag markers before tokenizing so existing
// links never feed back into theme derivation.
var markerRegex = regexp.MustCompile(`\[\[[^\]]*\]\]|#[a-z0-9-]+`)

var wordRegex = regexp.MustCompile(`[a-zA-Z]+`)

// stopWords are terms too common in personal writing to be themes
var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"about": true, "against": true, "between": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"above": true, "below": true, "from": true, "down": true, "out": true,
	"off": true, "over": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "both": true,
	"each": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "nor": true, "not": true, "only": true,
	"own": true, "same": true, "than": true, "too": true, "very": true,
	"can": true, "will": true, "just": true, "now": true, "also": true,
	"like": true, "really": true, "think": true, "know": true, "get": true,
	"got": true, "feel": true, "felt": true, "going": true, "went": true,
	"still": true, "well": true, "need": true, "want": true, "even": true,
	"much": true, "make": true, "made": true, "day": true, "time": true,
	"lot": true, "bit": true, "back": true, "good": true, "great": true,
	"nice": true, "okay": true, "yeah": true, "yes": true,
	"this": true, "that": true, "these": true, "those": true, "what": true,
	"which": true, "who": true, "they": true, "them": true, "their": true,
	"you": true, "your": true, "his": true, "her": true, "him": true,
	"she": true, "its": true, "our": true, "ours": true, "are": true, "was": true,
	"were": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "does": true, "did": true, "would": true, "should": true,
	"could": true, "ought": true, "cant": true, "dont": true, "doesnt": true,
	"didnt": true, "wont": true, "wouldnt": true, "shouldnt": true,
	"couldnt": true, "because": true, "until": true, "while": true,
	"myself": true, "something": true, "things": true, "thing": true,
	"today": true, "yesterday": true, "tomorrow": true,
}

// Extractor derives theme sets and topic tags from brain-dump text
type Extractor struct {
	maxThemes     int
	maxTags       int
	minContentLen int
}

// NewExtractor creates an extractor with the given caps. maxThemes bounds
// the theme set used for similarity, maxTags the smaller persisted subset.
func NewExtractor(maxThemes, maxTags, minContentLen int) *Extractor {
	return &Extractor{
		maxThemes:     maxThemes,
		maxTags:       maxTags,
		minContentLen: minContentLen,
	}
}

// Default returns an extractor with the standard caps
func Default() *Extractor {
	return NewExtractor(8, 5, 20)
}

// Themes returns up to maxThemes normalized terms ranked by salience.
// Text below the minimum content length yields an empty set; such entries
// participate in no similarity comparison, which keeps sparse entries from
// producing spurious links.
func (e *Extractor) Themes(text string) []string {
	ranked := e.rank(text)
	if len(ranked) > e.maxThemes {
		ranked = ranked[:e.maxThemes]
	}
	return ranked
}

// Tags returns the smaller persisted subset as formatted topic tags
func (e *Extractor) Tags(text string) []string {
	ranked := e.rank(text)
	if len(ranked) > e.maxTags {
		ranked = ranked[:e.maxTags]
	}
	var tags []string
	for _, term := range ranked {
		if tag := citation.FormatTag(term); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// rank tokenizes, filters, normalizes and orders candidate terms by
// frequency, ties broken by first occurrence for determinism.
func (e *Extractor) rank(text string) []string {
	clean := markerRegex.ReplaceAllString(text, " ")
	if len(strings.TrimSpace(clean)) < e.minContentLen {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	pos := 0
	for _, word := range tokenize(clean) {
		term := normalize(word)
		if term == "" {
			continue
		}
		if _, ok := firstSeen[term]; !ok {
			firstSeen[term] = pos
		}
		counts[term]++
		pos++
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})
	return terms
}

// tokenize extracts word-level terms, preferring prose tokenization and
// falling back to a regex word split if the document fails to parse.
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return wordRegex.FindAllString(text, -1)
	}
	var words []string
	for _, tok := range doc.Tokens() {
		if wordRegex.MatchString(tok.Text) {
			words = append(words, tok.Text)
		}
	}
	return words
}

// normalize case-folds a term, drops short and stopword terms, and
// collapses trivial morphological variants so "goals" and "goal" count
// as one theme.
func normalize(word string) string {
	term := strings.ToLower(strings.Trim(word, ".,!?;:'\"()[]{}"))
	if !isAlpha(term) || len(term) < minTermLen {
		return ""
	}
	if stopWords[term] {
		return ""
	}
	term = collapseSuffix(term)
	if len(term) < minTermLen || stopWords[term] {
		return ""
	}
	return term
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// collapseSuffix strips common inflection suffixes. Deliberately shallow:
// a real stemmer over-merges short personal-writing vocabulary.
func collapseSuffix(term string) string {
	switch {
	case strings.HasSuffix(term, "ies") && len(term) > 4:
		return term[:len(term)-3] + "y"
	case strings.HasSuffix(term, "ing") && len(term) > 5:
		return term[:len(term)-3]
	case strings.HasSuffix(term, "s") && len(term) > 3 && !strings.HasSuffix(term, "ss"):
		return term[:len(term)-1]
	case strings.HasSuffix(term, "ed") && len(term) > 4:
		return term[:len(term)-2]
	}
	return term
}

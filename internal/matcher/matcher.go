// Package matcher maps free-text prompts to a curated image identifier by
// weighted keyword overlap against a catalog.
package matcher

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"unicode/utf8"

	"dreamscape/internal/catalog"
)

// wordLengthUnit is the word length at which an exact word match is worth
// exactly Weights.Word.
const wordLengthUnit = 3

// Source is a uniform random source. *rand.Rand from math/rand/v2 satisfies
// it. Implementations shared between goroutines must be safe for concurrent
// use.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// CategoryScore is the per-category diagnostic breakdown of a match.
type CategoryScore struct {
	Name string `json:"name"`
	// Score is the density-adjusted score used for ranking.
	Score float64 `json:"score"`
	// Raw is the plain sum of entry scores.
	Raw       float64 `json:"raw"`
	Matches   int     `json:"matches"`
	Entries   int     `json:"entries"`
	BestID    *int    `json:"best_id,omitempty"`
	BestScore float64 `json:"best_score"`
}

// Result is the outcome of Match. Scores is ordered by rank.
type Result struct {
	ImageID  int             `json:"image_id"`
	Category string          `json:"category"`
	Fallback bool            `json:"fallback"`
	Scores   []CategoryScore `json:"scores"`
}

// Top returns at most n leading category scores.
func (r Result) Top(n int) []CategoryScore {
	n = max(0, min(n, len(r.Scores)))
	return r.Scores[:n]
}

type compiledKeyword struct {
	text   string
	length int
	words  []compiledWord
}

type compiledWord struct {
	text   string
	length int
}

type compiledEntry struct {
	id       int
	keywords []compiledKeyword
}

type compiledCategory struct {
	name    string
	entries []compiledEntry
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWeights overrides DefaultWeights.
func WithWeights(w Weights) Option {
	return func(m *Matcher) { m.weights = w }
}

// WithRand injects the random source used for fallback selection.
func WithRand(src Source) Option {
	return func(m *Matcher) {
		if src != nil {
			m.rand = src
		}
	}
}

// Matcher scores prompts against an immutable catalog. It holds no mutable
// state of its own and is safe for concurrent use as long as its Source is.
type Matcher struct {
	catalog    *catalog.Catalog
	categories []compiledCategory
	weights    Weights
	rand       Source
}

// New builds a Matcher over cat.
func New(cat *catalog.Catalog, opts ...Option) (*Matcher, error) {
	if cat == nil {
		return nil, errors.New("matcher: catalog is required")
	}
	m := &Matcher{
		catalog: cat,
		weights: DefaultWeights(),
		rand:    globalSource{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.weights.Validate(); err != nil {
		return nil, err
	}
	cat.Each(func(c catalog.Category) {
		cc := compiledCategory{name: c.Name, entries: make([]compiledEntry, 0, len(c.Entries))}
		for _, e := range c.Entries {
			cc.entries = append(cc.entries, compileEntry(e))
		}
		m.categories = append(m.categories, cc)
	})
	return m, nil
}

// Catalog returns the catalog the matcher was built with.
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// Match returns the identifier of the most relevant entry for prompt. It never
// fails: when no category scores above zero it picks uniformly at random
// over every entry in the catalog.
func (m *Matcher) Match(prompt string) Result {
	p := m.parsePrompt(prompt)

	scores := make([]CategoryScore, 0, len(m.categories))
	for _, c := range m.categories {
		cs := CategoryScore{Name: c.name, Entries: len(c.entries)}
		for i := range c.entries {
			s := m.scoreEntry(p, &c.entries[i])
			if s <= 0 {
				continue
			}
			cs.Matches++
			cs.Raw += s
			if s > cs.BestScore {
				id := c.entries[i].id
				cs.BestScore = s
				cs.BestID = &id
			}
		}
		cs.Score = cs.Raw * (1 + float64(cs.Matches)/float64(cs.Entries)*m.weights.Density)
		scores = append(scores, cs)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if top := scores[0]; top.Score > 0 && top.BestID != nil {
		return Result{ImageID: *top.BestID, Category: top.Name, Scores: scores}
	}

	id := m.catalog.At(m.rand.IntN(m.catalog.Len()))
	name, _ := m.catalog.CategoryOf(id)
	return Result{ImageID: id, Category: name, Fallback: true, Scores: scores}
}

// EntryScore returns the score a single entry receives for prompt.
func (m *Matcher) EntryScore(prompt string, e catalog.Entry) float64 {
	ce := compileEntry(e)
	return m.scoreEntry(m.parsePrompt(prompt), &ce)
}

type parsedPrompt struct {
	text   string
	length int
	words  []compiledWord
}

func (m *Matcher) parsePrompt(raw string) parsedPrompt {
	text := catalog.NormalizeText(raw)
	p := parsedPrompt{text: text, length: utf8.RuneCountInString(text)}
	for _, w := range strings.Fields(text) {
		if n := utf8.RuneCountInString(w); n >= m.weights.MinWordLen {
			p.words = append(p.words, compiledWord{text: w, length: n})
		}
	}
	return p
}

func (m *Matcher) scoreEntry(p parsedPrompt, e *compiledEntry) float64 {
	w := m.weights
	var score float64
	for _, kw := range e.keywords {
		if p.text == kw.text {
			score += w.ExactPrompt
		}
		if p.length > 0 && strings.Contains(p.text, kw.text) {
			score += w.PhraseBase + w.PhraseScale*float64(kw.length)/float64(p.length)
		}
		for _, kwWord := range kw.words {
			for _, pw := range p.words {
				switch {
				case pw.text == kwWord.text:
					score += w.Word * float64(kwWord.length) / wordLengthUnit
				case kwWord.length >= w.PartialMinLen &&
					(strings.Contains(pw.text, kwWord.text) || strings.Contains(kwWord.text, pw.text)):
					score += w.Partial * lengthRatio(pw.length, kwWord.length)
				}
			}
		}
	}
	return score
}

func lengthRatio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func compileEntry(e catalog.Entry) compiledEntry {
	ce := compiledEntry{id: e.ID, keywords: make([]compiledKeyword, 0, len(e.Keywords))}
	for _, kw := range e.Keywords {
		text := catalog.NormalizeText(kw)
		ck := compiledKeyword{text: text, length: utf8.RuneCountInString(text)}
		for _, word := range strings.Fields(text) {
			ck.words = append(ck.words, compiledWord{text: word, length: utf8.RuneCountInString(word)})
		}
		ce.keywords = append(ce.keywords, ck)
	}
	return ce
}

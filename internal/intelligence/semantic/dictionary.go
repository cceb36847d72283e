// Package semantic maps domain vocabulary (and its synonyms) to canonical
// concepts tagged with a category and context tags. The dictionary is built
// once by the application root and shared read-only; custom mappings are added
// copy-on-extend so readers never observe a partially updated table.
package semantic

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/turtacn/Musaid-NLQ/internal/intelligence/textnorm"
)

// Category is the subject-matter bucket of a concept. Values match the
// classifier domains.
type Category string

const (
	CategoryLegal      Category = "legal"
	CategoryFinancial  Category = "financial"
	CategoryFleet      Category = "fleet_management"
	CategoryOperations Category = "operations"
	CategoryGeneral    Category = "general"
)

// Concept is one canonical term with its synonyms.
type Concept struct {
	Primary     string   `json:"primary"`
	Synonyms    []string `json:"synonyms"`
	Category    Category `json:"category"`
	ContextTags []string `json:"context_tags"`
	Weight      float64  `json:"weight"`
}

// HasTag reports whether c carries tag.
func (c Concept) HasTag(tag string) bool {
	for _, t := range c.ContextTags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c Concept) canonical() Concept {
	out := Concept{
		Primary:     textnorm.Normalize(c.Primary),
		Synonyms:    textnorm.NormalizeAll(c.Synonyms...),
		Category:    c.Category,
		ContextTags: append([]string(nil), c.ContextTags...),
		Weight:      c.Weight,
	}
	if out.Category == "" {
		out.Category = CategoryGeneral
	}
	if out.Weight <= 0 {
		out.Weight = 0.5
	}
	return out
}

// Dictionary is the effective concept table: the static base table overlaid
// with custom mappings. Iteration order is the base table's insertion order,
// with a custom entry replacing a base entry of the same primary key in place
// and new custom entries appended in registration order.
type Dictionary struct {
	base      []Concept
	mu        sync.Mutex // serializes AddCustomMapping
	custom    []Concept
	effective atomic.Pointer[[]Concept]
}

// NewDictionary returns a dictionary over DefaultConcepts.
func NewDictionary() *Dictionary {
	return NewDictionaryFrom(DefaultConcepts())
}

// NewDictionaryFrom returns a dictionary over concepts, normalizing every key.
func NewDictionaryFrom(concepts []Concept) *Dictionary {
	d := &Dictionary{base: make([]Concept, 0, len(concepts))}
	for _, c := range concepts {
		d.base = append(d.base, c.canonical())
	}
	table := append([]Concept(nil), d.base...)
	d.effective.Store(&table)
	return d
}

// Concepts returns the effective table in iteration order.
func (d *Dictionary) Concepts() []Concept {
	return append([]Concept(nil), (*d.effective.Load())...)
}

// AddCustomMapping registers c without touching the base table. A custom
// entry whose primary key collides with an existing entry takes precedence.
func (d *Dictionary) AddCustomMapping(c Concept) {
	c = c.canonical()
	if c.Primary == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	replaced := false
	for i := range d.custom {
		if d.custom[i].Primary == c.Primary {
			d.custom[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		d.custom = append(d.custom, c)
	}

	overrides := make(map[string]Concept, len(d.custom))
	for _, cc := range d.custom {
		overrides[cc.Primary] = cc
	}
	table := make([]Concept, 0, len(d.base)+len(d.custom))
	used := make(map[string]bool, len(d.custom))
	for _, bc := range d.base {
		if oc, ok := overrides[bc.Primary]; ok {
			table = append(table, oc)
			used[bc.Primary] = true
			continue
		}
		table = append(table, bc)
	}
	for _, cc := range d.custom {
		if !used[cc.Primary] {
			table = append(table, cc)
		}
	}
	d.effective.Store(&table)
}

// FindMatch resolves term to a concept. Lookup order: exact primary key, then
// synonym substring (either direction), then, only when contextTags are
// supplied, a partial primary-key match gated by a shared context tag. The
// first hit in table order wins.
func (d *Dictionary) FindMatch(term string, contextTags ...string) (Concept, bool) {
	term = textnorm.Normalize(term)
	if term == "" {
		return Concept{}, false
	}
	table := *d.effective.Load()

	for _, c := range table {
		if c.Primary == term {
			return c, true
		}
	}

	stem := textnorm.StripPrefixes(term)
	for _, c := range table {
		if c.Primary == stem {
			return c, true
		}
		for _, s := range c.Synonyms {
			if s == "" {
				continue
			}
			if strings.Contains(term, s) || (len([]rune(term)) >= 3 && strings.Contains(s, term)) {
				return c, true
			}
		}
	}

	if len(contextTags) == 0 {
		return Concept{}, false
	}
	for _, c := range table {
		if !sharesTag(c, contextTags) {
			continue
		}
		if strings.Contains(c.Primary, stem) || strings.Contains(stem, c.Primary) {
			return c, true
		}
	}
	return Concept{}, false
}

func sharesTag(c Concept, tags []string) bool {
	for _, t := range tags {
		if c.HasTag(t) {
			return true
		}
	}
	return false
}

// MatchAll returns every concept matched by a token of text (or its
// prefix-stripped form) against primary keys and synonyms, once each, in
// table order. Multi-word synonyms match as phrases.
func (d *Dictionary) MatchAll(text string) []Concept {
	text = textnorm.Normalize(text)
	if text == "" {
		return nil
	}
	table := *d.effective.Load()
	var out []Concept
	for _, c := range table {
		if conceptInText(c, text) {
			out = append(out, c)
		}
	}
	return out
}

func conceptInText(c Concept, text string) bool {
	words := append([]string{c.Primary}, c.Synonyms...)
	var single []string
	for _, w := range words {
		if strings.Contains(w, " ") {
			if textnorm.ContainsPhrase(text, w) {
				return true
			}
			continue
		}
		single = append(single, w)
	}
	return textnorm.ContainsToken(text, single...)
}

// Expand returns query variants with every recognised term replaced by its
// primary key and each synonym. With preserveOriginal the query itself comes
// first. Duplicates are dropped; order is deterministic.
func (d *Dictionary) Expand(query string, preserveOriginal bool) []string {
	normalized := textnorm.Normalize(query)
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if preserveOriginal {
		add(normalized)
	}

	tokens := textnorm.Tokenize(normalized)
	for i, tok := range tokens {
		c, ok := d.FindMatch(tok)
		if !ok {
			continue
		}
		for _, variant := range append([]string{c.Primary}, c.Synonyms...) {
			if variant == tok {
				continue
			}
			replaced := append([]string(nil), tokens...)
			replaced[i] = variant
			add(strings.Join(replaced, " "))
		}
	}
	if len(out) == 0 {
		add(normalized)
	}
	return out
}

// RelatedConcepts returns up to maxResults concepts sharing a context tag or
// the category with term's concept, ranked by shared-tag count then weight;
// table order breaks remaining ties.
func (d *Dictionary) RelatedConcepts(term string, maxResults int) []Concept {
	anchor, ok := d.FindMatch(term)
	if !ok || maxResults <= 0 {
		return nil
	}
	table := *d.effective.Load()

	type scored struct {
		c      Concept
		shared int
		index  int
	}
	var candidates []scored
	for i, c := range table {
		if c.Primary == anchor.Primary {
			continue
		}
		shared := 0
		for _, t := range anchor.ContextTags {
			if c.HasTag(t) {
				shared++
			}
		}
		if shared == 0 && c.Category != anchor.Category {
			continue
		}
		candidates = append(candidates, scored{c: c, shared: shared, index: i})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].shared != candidates[j].shared {
			return candidates[i].shared > candidates[j].shared
		}
		if candidates[i].c.Weight != candidates[j].c.Weight {
			return candidates[i].c.Weight > candidates[j].c.Weight
		}
		return candidates[i].index < candidates[j].index
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	out := make([]Concept, len(candidates))
	for i, s := range candidates {
		out[i] = s.c
	}
	return out
}

//Personal.AI order the ending

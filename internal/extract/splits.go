package extract

import "strings"

// Category is a top-level split group ("BREAKDOWN", "OPPONENT"...) and its labels.
type Category struct {
	Name   string
	Labels []string
}

// Pattern assigns labels outside the configured lists to a category.
type Pattern struct {
	Category string
	Match    func(label string) bool
}

// Label is a configured split in display order.
type Label struct {
	Category string
	Name     string
}

// SplitSet is the set of recognized row labels. Matching is exact:
// case and punctuation sensitive.
type SplitSet struct {
	categories []Category
	patterns   []Pattern
	open       bool

	byLabel    map[string]string
	isCategory map[string]bool
}

// NewSplitSet builds a closed label set from ordered categories.
func NewSplitSet(categories ...Category) *SplitSet {
	s := &SplitSet{
		categories: categories,
		byLabel:    make(map[string]string),
		isCategory: make(map[string]bool),
	}
	for _, c := range categories {
		s.isCategory[c.Name] = true
		for _, l := range c.Labels {
			if _, dup := s.byLabel[l]; !dup {
				s.byLabel[l] = c.Name
			}
		}
	}
	return s
}

// OpenSplitSet accepts any non-empty label (pitcher names, teams, dates).
func OpenSplitSet(category string) *SplitSet {
	s := NewSplitSet(Category{Name: category})
	s.open = true
	return s
}

// WithPatterns adds fallback rules tried after exact matching.
func (s *SplitSet) WithPatterns(patterns ...Pattern) *SplitSet {
	s.patterns = append(s.patterns, patterns...)
	return s
}

func (s *SplitSet) Open() bool { return s.open }

func (s *SplitSet) Categories() []Category { return s.categories }

// IsCategory reports whether text names a top-level category.
func (s *SplitSet) IsCategory(text string) bool {
	return s.isCategory[text]
}

// Labels returns every configured split, category by category.
func (s *SplitSet) Labels() []Label {
	var out []Label
	for _, c := range s.categories {
		for _, l := range c.Labels {
			out = append(out, Label{Category: c.Name, Name: l})
		}
	}
	return out
}

// Match resolves a cell to its category. Exact labels win over category
// names, which win over patterns.
func (s *SplitSet) Match(text string) (category string, ok bool) {
	if text == "" {
		return "", false
	}
	if c, ok := s.byLabel[text]; ok {
		return c, true
	}
	if s.isCategory[text] {
		return text, true
	}
	for _, p := range s.patterns {
		if p.Match(text) {
			return p.Category, true
		}
	}
	if s.open {
		return s.defaultCategory(), true
	}
	return "", false
}

// exact reports a configured label or category name, ignoring patterns.
func (s *SplitSet) exact(text string) bool {
	_, ok := s.byLabel[text]
	return ok || s.isCategory[text]
}

func (s *SplitSet) defaultCategory() string {
	if len(s.categories) == 0 {
		return ""
	}
	return s.categories[0].Name
}

// PrefixPattern matches labels starting with prefix ("vs.").
func PrefixPattern(category, prefix string) Pattern {
	return Pattern{
		Category: category,
		Match:    func(label string) bool { return strings.HasPrefix(label, prefix) },
	}
}

// KeywordPattern matches labels containing any keyword, case-insensitively.
func KeywordPattern(category string, keywords ...string) Pattern {
	return Pattern{
		Category: category,
		Match: func(label string) bool {
			lower := strings.ToLower(label)
			for _, k := range keywords {
				if strings.Contains(lower, k) {
					return true
				}
			}
			return false
		},
	}
}

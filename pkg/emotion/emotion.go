// Package emotion defines the closed set of emotion categories a deployment
// recognizes, along with each category's polarity and crisis flag.
//
// The set is built once at startup from configuration and is read-only
// afterwards, so it is safe for concurrent use without locking.
package emotion

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a single emotion label, e.g. "anxiety".
type Category string

// String returns the label.
func (c Category) String() string { return string(c) }

// Polarity groups categories for balance and trend calculations.
type Polarity string

const (
	// PolarityPositive marks categories that indicate a good mood.
	PolarityPositive Polarity = "positive"

	// PolarityNeutral marks categories with no emotional direction.
	PolarityNeutral Polarity = "neutral"

	// PolarityNegative marks categories that indicate distress.
	PolarityNegative Polarity = "negative"
)

// Score maps a polarity onto +1, 0 or -1.
func (p Polarity) Score() float64 {
	switch p {
	case PolarityPositive:
		return 1
	case PolarityNegative:
		return -1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known polarities.
func (p Polarity) Valid() bool {
	switch p {
	case PolarityPositive, PolarityNeutral, PolarityNegative:
		return true
	default:
		return false
	}
}

// Default category labels, in classifier prompt order.
const (
	Depression Category = "depression"
	Anxiety    Category = "anxiety"
	Anger      Category = "anger"
	SelfHarm   Category = "self_harm"
	Positive   Category = "positive"
	Neutral    Category = "neutral"
)

// DefaultCategories is the label set used when configuration names none.
var DefaultCategories = []Category{Depression, Anxiety, Anger, SelfHarm, Positive, Neutral}

// builtinPolarity covers the default labels and the common alternatives
// (happy, sad, angry, ...) so a custom label list rarely needs an explicit
// polarity map.
var builtinPolarity = map[Category]Polarity{
	Depression: PolarityNegative,
	Anxiety:    PolarityNegative,
	Anger:      PolarityNegative,
	SelfHarm:   PolarityNegative,
	Positive:   PolarityPositive,
	Neutral:    PolarityNeutral,
	"happy":    PolarityPositive,
	"joy":      PolarityPositive,
	"calm":     PolarityPositive,
	"grateful": PolarityPositive,
	"hopeful":  PolarityPositive,
	"sad":      PolarityNegative,
	"anxious":  PolarityNegative,
	"angry":    PolarityNegative,
	"fear":     PolarityNegative,
	"lonely":   PolarityNegative,
	"stressed": PolarityNegative,
}

// builtinCrisis lists labels that always require urgent intervention.
var builtinCrisis = map[Category]bool{
	SelfHarm:   true,
	"suicidal": true,
}

// Config describes a category set.
type Config struct {
	// Categories is the ordered, closed list of labels.
	Categories []string `yaml:"categories"`

	// Default is the label used when classification fails or returns an
	// unknown label. Must be one of Categories.
	Default string `yaml:"default"`

	// Polarity overrides the built-in polarity of individual labels.
	Polarity map[string]string `yaml:"polarity"`

	// Crisis lists labels that trigger urgent intervention. When empty, the
	// built-in crisis labels that are present in Categories are used.
	Crisis []string `yaml:"crisis"`
}

// Set is a closed, ordered set of categories.
type Set struct {
	order    []Category
	index    map[Category]int
	polarity map[Category]Polarity
	crisis   map[Category]bool
	def      Category
}

// ErrEmptySet is returned when a configuration names no categories.
var ErrEmptySet = errors.New("emotion: at least one category is required")

// NewSet builds a Set from configuration. Labels are lower-cased and trimmed;
// duplicates are rejected.
func NewSet(cfg Config) (*Set, error) {
	labels := cfg.Categories
	if len(labels) == 0 {
		labels = make([]string, 0, len(DefaultCategories))
		for _, c := range DefaultCategories {
			labels = append(labels, string(c))
		}
	}

	s := &Set{
		order:    make([]Category, 0, len(labels)),
		index:    make(map[Category]int, len(labels)),
		polarity: make(map[Category]Polarity, len(labels)),
		crisis:   make(map[Category]bool),
	}

	for _, raw := range labels {
		c := Category(normalizeLabel(raw))
		if c == "" {
			return nil, fmt.Errorf("emotion: blank category label %q", raw)
		}
		if _, dup := s.index[c]; dup {
			return nil, fmt.Errorf("emotion: duplicate category %q", c)
		}
		s.index[c] = len(s.order)
		s.order = append(s.order, c)
		s.polarity[c] = builtinPolarityOf(c)
	}
	if len(s.order) == 0 {
		return nil, ErrEmptySet
	}

	for raw, p := range cfg.Polarity {
		c := Category(normalizeLabel(raw))
		if _, ok := s.index[c]; !ok {
			return nil, fmt.Errorf("emotion: polarity given for unknown category %q", c)
		}
		pol := Polarity(strings.ToLower(strings.TrimSpace(p)))
		if !pol.Valid() {
			return nil, fmt.Errorf("emotion: invalid polarity %q for category %q", p, c)
		}
		s.polarity[c] = pol
	}

	if err := s.applyCrisis(cfg.Crisis); err != nil {
		return nil, err
	}

	def := Category(normalizeLabel(cfg.Default))
	if def == "" {
		def = Neutral
	}
	if _, ok := s.index[def]; !ok {
		return nil, fmt.Errorf("emotion: default category %q is not in the category list", def)
	}
	s.def = def

	return s, nil
}

func (s *Set) applyCrisis(labels []string) error {
	if len(labels) == 0 {
		for _, c := range s.order {
			if builtinCrisis[c] {
				s.crisis[c] = true
			}
		}
		return nil
	}
	for _, raw := range labels {
		c := Category(normalizeLabel(raw))
		if _, ok := s.index[c]; !ok {
			return fmt.Errorf("emotion: crisis label %q is not in the category list", c)
		}
		s.crisis[c] = true
	}
	return nil
}

// MustDefaultSet returns the set built from DefaultCategories.
func MustDefaultSet() *Set {
	s, err := NewSet(Config{})
	if err != nil {
		panic(err)
	}
	return s
}

// Categories returns the labels in configuration order.
func (s *Set) Categories() []Category {
	out := make([]Category, len(s.order))
	copy(out, s.order)
	return out
}

// Labels returns the labels as plain strings, in configuration order.
func (s *Set) Labels() []string {
	out := make([]string, len(s.order))
	for i, c := range s.order {
		out[i] = string(c)
	}
	return out
}

// Default returns the fallback category.
func (s *Set) Default() Category { return s.def }

// Contains reports whether c is a member of the set.
func (s *Set) Contains(c Category) bool {
	_, ok := s.index[c]
	return ok
}

// Polarity returns the polarity of c. Non-members are neutral.
func (s *Set) Polarity(c Category) Polarity {
	if p, ok := s.polarity[c]; ok {
		return p
	}
	return PolarityNeutral
}

// IsCrisis reports whether c requires urgent intervention.
func (s *Set) IsCrisis(c Category) bool { return s.crisis[c] }

// Normalize maps free-form classifier output onto a member of the set.
// An exact match wins; otherwise the first category (in set order) whose
// label appears in the text is chosen. Anything else maps to Default.
func (s *Set) Normalize(raw string) Category {
	text := normalizeLabel(raw)
	if text == "" {
		return s.def
	}
	if _, ok := s.index[Category(text)]; ok {
		return Category(text)
	}

	for _, c := range s.order {
		if strings.Contains(text, string(c)) {
			return c
		}
	}
	return s.def
}

// normalizeLabel lower-cases s, strips surrounding punctuation and joins
// words with underscores so "Self Harm." and "self_harm" compare equal.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,;:!?\"'`*")
	return strings.Join(strings.Fields(s), "_")
}

func builtinPolarityOf(c Category) Polarity {
	if p, ok := builtinPolarity[c]; ok {
		return p
	}
	return PolarityNeutral
}

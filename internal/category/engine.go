// Package category maps merchant and description text to spending
// categories using ordered keyword rules.
//
// The engine starts from a built-in default taxonomy and can extend it,
// per category, from an optional external JSON file. Category order is
// significant: the first category whose keyword matches wins.
package category

import (
	"sort"
	"strings"
)

// FallbackCategory is assigned when no keyword matches.
const FallbackCategory = "other"

type (
	// Rule binds one category to its ordered keyword list.
	Rule struct {
		Category string
		Keywords []string
	}

	// Taxonomy is a versioned, ordered rule set.
	Taxonomy struct {
		Version string
		Rules   []Rule
	}

	// RuleSource loads a taxonomy. Implementations decide where the
	// rules come from (built-in defaults, external file).
	RuleSource interface {
		Load() (Taxonomy, error)
	}

	// Engine performs first-match keyword categorization over an
	// immutable rule set.
	Engine struct {
		version string
		rules   []Rule
	}
)

// NewEngine builds an engine from the built-in defaults extended by the
// given source. A nil source, a load error, or an empty rule set all
// fall back silently to the defaults alone.
func NewEngine(src RuleSource) *Engine {
	rules := defaultRules()
	version := defaultVersion

	if src != nil {
		if tax, err := src.Load(); err == nil && len(tax.Rules) > 0 {
			rules = mergeRules(rules, tax.Rules)
			version = tax.Version
			if version == "" {
				version = "v1"
			}
		}
	}

	return &Engine{version: version, rules: rules}
}

// Categorize returns the category for a merchant/description pair and
// the reason for the match: "keyword:<kw>" or "fallback:other".
//
// Matching concatenates merchant and description, lower-cases, collapses
// whitespace, and scans categories in rule order, keywords in keyword
// order, returning on the first keyword that is a substring.
func (e *Engine) Categorize(merchant, description string) (string, string) {
	haystack := normalizeText(merchant + " " + description)
	for _, rule := range e.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(haystack, keyword) {
				return rule.Category, "keyword:" + keyword
			}
		}
	}
	return FallbackCategory, "fallback:" + FallbackCategory
}

// Version reports the loaded taxonomy version.
func (e *Engine) Version() string {
	return e.version
}

// Rules returns a copy of the effective rule set.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// mergeRules extends the defaults with external rules: keywords are
// appended per category (new categories go to the end), then each
// touched category is deduplicated and sorted alphabetically. Categories
// untouched by the external source keep their default keyword order.
func mergeRules(defaults []Rule, extra []Rule) []Rule {
	merged := make([]Rule, len(defaults))
	index := make(map[string]int, len(defaults))
	for i, r := range defaults {
		merged[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
		index[r.Category] = i
	}

	for _, r := range extra {
		keywords := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if normalized := normalizeText(kw); normalized != "" {
				keywords = append(keywords, normalized)
			}
		}

		i, ok := index[r.Category]
		if !ok {
			merged = append(merged, Rule{Category: r.Category})
			i = len(merged) - 1
			index[r.Category] = i
		}
		merged[i].Keywords = dedupeSorted(append(merged[i].Keywords, keywords...))
	}

	return merged
}

func dedupeSorted(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := keywords[:0]
	for _, kw := range keywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// normalizeText lower-cases and collapses internal whitespace to single
// spaces, trimming the ends.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

package category

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileSource loads a taxonomy from a JSON document of the form:
//
//	{"version": "v2", "rules": {"category": ["keyword", ...], ...}}
//
// Categories are read in document order so that match priority across
// categories stays reproducible.
type FileSource struct {
	Path string
}

func (s FileSource) Load() (Taxonomy, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy file: %w", err)
	}
	return parseTaxonomy(data)
}

func parseTaxonomy(data []byte) (Taxonomy, error) {
	var doc struct {
		Version string          `json:"version"`
		Rules   json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(doc.Rules) == 0 {
		return Taxonomy{}, errors.New("taxonomy has no rules")
	}

	rules, err := decodeOrderedRules(doc.Rules)
	if err != nil {
		return Taxonomy{}, err
	}
	if len(rules) == 0 {
		return Taxonomy{}, errors.New("taxonomy rules mapping is empty")
	}

	return Taxonomy{Version: doc.Version, Rules: rules}, nil
}

// decodeOrderedRules walks the rules object token by token because
// encoding/json map decoding would lose the document's key order.
func decodeOrderedRules(raw json.RawMessage) ([]Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy rules: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("taxonomy rules must be a mapping")
	}

	var rules []Rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse taxonomy rules: %w", err)
		}
		categoryName, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("taxonomy rules must be keyed by category name")
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse keywords for %q: %w", categoryName, err)
		}

		// Non-list values are ignored, matching the lenient load contract.
		var keywords []string
		if err := json.Unmarshal(value, &keywords); err != nil {
			continue
		}
		rules = append(rules, Rule{Category: categoryName, Keywords: keywords})
	}

	return rules, nil
}

// Package source discovers and parses budget files (YAML, TOML or JSON) into
// line items.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

// ParseResult holds the output of parsing a single budget file.
type ParseResult struct {
	Path        string
	Items       []model.LineItem
	ParseErrors int
	// Problems describes each skipped entry, one line per entry.
	Problems []string
	Err      error
}

// ParseFile decodes df and converts its entries to line items. Entries that
// fail validation are skipped and counted; a file that cannot be read or
// decoded at all is reported through Err.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Path: df.Path, Err: err}
	}

	raw, err := Decode(data, df.Format)
	if err != nil {
		return ParseResult{Path: df.Path, Err: fmt.Errorf("decoding %s: %w", df.Path, err)}
	}

	result := ParseResult{Path: df.Path}
	for i, ri := range raw.Items {
		item, err := ri.toItem(raw.Frequency)
		if err != nil {
			result.ParseErrors++
			result.Problems = append(result.Problems, fmt.Sprintf("%s: item %d: %v", df.Path, i+1, err))
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result
}

// Decode unmarshals data in the given format.
func Decode(data []byte, format Format) (RawBudget, error) {
	var raw RawBudget
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	return raw, err
}

// Encode marshals items in the given format, the inverse of Decode.
func Encode(items []model.LineItem, frequency model.Frequency, format Format) ([]byte, error) {
	raw := RawBudget{Frequency: string(frequency), Items: make([]RawItem, len(items))}
	for i, it := range items {
		raw.Items[i] = RawItem{
			ID:        it.ID,
			Name:      it.Name,
			Amount:    it.Amount,
			Category:  it.Category,
			Frequency: string(it.Frequency),
			Type:      strings.ToLower(string(it.Type)),
		}
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(raw)
	case FormatTOML:
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(raw); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	case FormatJSON:
		return json.MarshalIndent(raw, "", "  ")
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func (ri RawItem) toItem(defaultFreq string) (model.LineItem, error) {
	name := strings.TrimSpace(ri.Name)
	if name == "" {
		return model.LineItem{}, fmt.Errorf("missing name")
	}
	if ri.Amount < 0 {
		return model.LineItem{}, fmt.Errorf("%q: negative amount %v", name, ri.Amount)
	}

	freqText := ri.Frequency
	if strings.TrimSpace(freqText) == "" {
		freqText = defaultFreq
	}
	if strings.TrimSpace(freqText) == "" {
		freqText = string(model.Monthly)
	}
	freq, err := cadence.Parse(freqText)
	if err != nil {
		return model.LineItem{}, fmt.Errorf("%q: %w", name, err)
	}

	typ, err := model.ParseItemType(ri.Type)
	if err != nil {
		return model.LineItem{}, fmt.Errorf("%q: %w", name, err)
	}

	category := strings.TrimSpace(ri.Category)
	if category == "" {
		category = "Uncategorised"
	}

	return model.LineItem{
		ID:        strings.TrimSpace(ri.ID),
		Name:      name,
		Amount:    ri.Amount,
		Category:  category,
		Frequency: freq,
		Type:      typ,
	}, nil
}

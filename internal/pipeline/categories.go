package pipeline

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/theirongolddev/cadence/internal/cadence"
	"github.com/theirongolddev/cadence/internal/model"
)

// CategoryShare is a category total with its share of the type total.
type CategoryShare struct {
	Category     string
	Total        float64
	Items        int
	SharePercent float64
}

// CategoryTotalAt sums the raw items of one category through an annual
// intermediate and expresses the result at the given frequency.
func CategoryTotalAt(items []model.LineItem, category string, to model.Frequency) (float64, error) {
	var annual float64
	for _, it := range items {
		if it.Category != category {
			continue
		}
		perYear, err := cadence.PerYear(it.Frequency)
		if err != nil {
			return 0, err
		}
		annual += it.Amount * perYear
	}
	return cadence.Convert(annual, model.Annually, to)
}

// RankCategories computes per-category shares of adjusted items, sorted by
// total descending. Ties keep first-seen order.
func RankCategories(adjusted []model.LineItem) []CategoryShare {
	categories := Categories(adjusted)
	totals := CategoryTotals(adjusted, categories)

	counts := make(map[string]int, len(categories))
	for _, it := range adjusted {
		counts[it.Category]++
	}

	typeTotal := Sum(adjusted)
	shares := make([]CategoryShare, 0, len(totals))
	for _, ct := range totals {
		cs := CategoryShare{
			Category: ct.Category,
			Total:    ct.Total,
			Items:    counts[ct.Category],
		}
		if typeTotal > 0 {
			cs.SharePercent = ct.Total / typeTotal * 100
		}
		shares = append(shares, cs)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total > shares[j].Total
	})
	return shares
}

// SuggestCategory returns the existing category closest to input when it looks
// like a near-miss (small edit distance, different spelling). ok is false when
// input already exists or nothing is close enough.
func SuggestCategory(existing []string, input string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return "", false
	}

	best := ""
	bestDist := -1
	for _, c := range existing {
		candidate := strings.ToLower(c)
		if candidate == needle {
			return "", false
		}
		d := levenshtein.ComputeDistance(needle, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	if bestDist < 0 {
		return "", false
	}
	// Allow roughly one typo per four characters, at least one.
	limit := len(needle) / 4
	if limit < 1 {
		limit = 1
	}
	if bestDist > limit {
		return "", false
	}
	return best, true
}

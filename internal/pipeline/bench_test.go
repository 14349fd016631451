package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/cadence/internal/model"
)

func BenchmarkSummarize(b *testing.B) {
	freqs := []model.Frequency{model.Weekly, model.Monthly, model.Quarterly, model.Annually}
	types := model.ItemTypes

	items := make([]model.LineItem, 0, 1000)
	for i := 0; i < 1000; i++ {
		items = append(items, model.LineItem{
			ID:        fmt.Sprintf("item-%d", i),
			Name:      fmt.Sprintf("Item %d", i),
			Amount:    float64(i%97) * 3.25,
			Category:  fmt.Sprintf("Category %d", i%23),
			Frequency: freqs[i%len(freqs)],
			Type:      types[i%len(types)],
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Summarize(items, model.Fortnightly); err != nil {
			b.Fatal(err)
		}
	}
}

package selector

import (
	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/shopspring/decimal"
)

// Stats summarizes the whole collection.
type Stats struct {
	TotalProducts int
	TotalValue    decimal.Decimal
	AveragePrice  decimal.Decimal
	InStock       int
}

// ComputeStats sums prices exactly. AveragePrice is rounded to cents and is
// zero for an empty collection.
func ComputeStats(items []model.Product) Stats {
	s := Stats{
		TotalProducts: len(items),
		TotalValue:    decimal.Zero,
		AveragePrice:  decimal.Zero,
	}
	for _, p := range items {
		s.TotalValue = s.TotalValue.Add(p.Price)
		if p.InStock() {
			s.InStock++
		}
	}
	if s.TotalProducts > 0 {
		s.AveragePrice = s.TotalValue.Div(decimal.NewFromInt(int64(s.TotalProducts))).Round(2)
	}
	return s
}

// StatsMemo caches ComputeStats per items version.
type StatsMemo struct {
	cache byVersion[Stats]
}

func (m *StatsMemo) Stats(version uint64, items []model.Product) Stats {
	return m.cache.get(version, func() Stats { return ComputeStats(items) })
}

func (m *StatsMemo) Computations() int {
	return m.cache.count()
}

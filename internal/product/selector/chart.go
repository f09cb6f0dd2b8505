package selector

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/shopspring/decimal"
)

// ChartKind names a chart series.
type ChartKind string

const (
	PriceChart    ChartKind = "price"
	CategoryChart ChartKind = "category"
)

const (
	priceSeriesLimit   = 10
	categoryNameLength = 10
)

var ErrUnknownChart = errors.New("unknown chart type")

// ParseChartKind defaults an empty value to PriceChart.
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(s) {
	case "", PriceChart:
		return PriceChart, nil
	case CategoryChart:
		return CategoryChart, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
	}
}

// Point is one named value of a chart series.
type Point struct {
	Name  string
	Value decimal.Decimal
}

// PriceSeries returns the prices of the first limit items named P1, P2, ...
func PriceSeries(items []model.Product, limit int) []Point {
	n := min(len(items), limit)
	points := make([]Point, 0, n)
	for i := range n {
		points = append(points, Point{Name: "P" + strconv.Itoa(i+1), Value: items[i].Price})
	}
	return points
}

// CategorySeries counts products per category in first-seen order.
// Names are cut to ten characters.
func CategorySeries(items []model.Product) []Point {
	counts := make(map[string]int64)
	var order []string
	for _, p := range items {
		if _, seen := counts[p.Category]; !seen {
			order = append(order, p.Category)
		}
		counts[p.Category]++
	}
	points := make([]Point, 0, len(order))
	for _, category := range order {
		points = append(points, Point{Name: truncate(category, categoryNameLength), Value: decimal.NewFromInt(counts[category])})
	}
	return points
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ChartMemo caches both series per items version.
type ChartMemo struct {
	price    byVersion[[]Point]
	category byVersion[[]Point]
}

func (m *ChartMemo) Series(kind ChartKind, version uint64, items []model.Product) ([]Point, error) {
	switch kind {
	case PriceChart:
		return m.price.get(version, func() []Point { return PriceSeries(items, priceSeriesLimit) }), nil
	case CategoryChart:
		return m.category.get(version, func() []Point { return CategorySeries(items) }), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
}

package rest

import (
	"encoding/json"

	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/abgdnv/productboard/internal/product/selector"
	"github.com/abgdnv/productboard/internal/product/store"
	"github.com/shopspring/decimal"
)

// ProductDto is the JSON view of a product. Prices are JSON numbers.
type ProductDto struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Price       json.Number `json:"price"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	Rating      *RatingDto  `json:"rating,omitempty"`
}

type RatingDto struct {
	Rate  json.Number `json:"rate"`
	Count int         `json:"count"`
}

// ProductRequestDto is the create and update body. On create every field but
// image is required; on update only the fields present are sent.
type ProductRequestDto struct {
	Title       *string          `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
}

// FiltersDto carries the transient search query and category filter.
type FiltersDto struct {
	Search   *string `json:"search,omitempty"`
	Category *string `json:"category,omitempty"`
}

type StatusDto struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

type StatsDto struct {
	TotalProducts int         `json:"total_products"`
	TotalValue    json.Number `json:"total_value"`
	AveragePrice  json.Number `json:"average_price"`
	InStock       int         `json:"in_stock"`
}

type PointDto struct {
	Name  string      `json:"name"`
	Value json.Number `json:"value"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toProductDto(p model.Product) ProductDto {
	dto := ProductDto{
		ID:          p.ID,
		Title:       p.Title,
		Price:       number(p.Price),
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
	if p.Rating != nil {
		dto.Rating = &RatingDto{Rate: number(p.Rating.Rate), Count: p.Rating.Count}
	}
	return dto
}

func toProductDtos(items []model.Product) []ProductDto {
	out := make([]ProductDto, 0, len(items))
	for _, p := range items {
		out = append(out, toProductDto(p))
	}
	return out
}

// toDraft reports the missing price separately since the zero decimal is a valid price.
func (r ProductRequestDto) toDraft() (model.Draft, bool) {
	d := model.Draft{
		Title:       deref(r.Title),
		Description: deref(r.Description),
		Category:    deref(r.Category),
		Image:       deref(r.Image),
	}
	if r.Price == nil {
		return d, false
	}
	d.Price = *r.Price
	return d, true
}

func (r ProductRequestDto) toPatch() model.Patch {
	return model.Patch{
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toStatusDto(s store.Status) StatusDto {
	return StatusDto{State: s.Kind.String(), Message: s.Message}
}

func toStatsDto(s selector.Stats) StatsDto {
	return StatsDto{
		TotalProducts: s.TotalProducts,
		TotalValue:    json.Number(s.TotalValue.StringFixed(2)),
		AveragePrice:  json.Number(s.AveragePrice.StringFixed(2)),
		InStock:       s.InStock,
	}
}

func toPointDtos(points []selector.Point) []PointDto {
	out := make([]PointDto, 0, len(points))
	for _, p := range points {
		out = append(out, PointDto{Name: p.Name, Value: number(p.Value)})
	}
	return out
}

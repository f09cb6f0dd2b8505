package gateway

import (
	"encoding/json"

	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/shopspring/decimal"
)

// productDto is a product as the remote catalog returns it. decimal.Decimal
// accepts both numeric and quoted prices.
type productDto struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *ratingDto      `json:"rating,omitempty"`
}

type ratingDto struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

func (d productDto) toModel() model.Product {
	p := model.Product{
		ID:          d.ID,
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Image:       d.Image,
	}
	if d.Rating != nil {
		p.Rating = &model.Rating{Rate: d.Rating.Rate, Count: d.Rating.Count}
	}
	return p
}

// draftRequest is the create body. The id is never sent and the price
// goes out as a JSON number.
type draftRequest struct {
	Title       string      `json:"title"`
	Price       json.Number `json:"price"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
}

func newDraftRequest(d model.Draft) draftRequest {
	return draftRequest{
		Title:       d.Title,
		Price:       json.Number(d.Price.String()),
		Description: d.Description,
		Category:    d.Category,
		Image:       d.Image,
	}
}

// patchRequest is the update body; unset fields are omitted.
type patchRequest struct {
	Title       *string      `json:"title,omitempty"`
	Price       *json.Number `json:"price,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    *string      `json:"category,omitempty"`
	Image       *string      `json:"image,omitempty"`
}

func newPatchRequest(p model.Patch) patchRequest {
	req := patchRequest{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
	if p.Price != nil {
		n := json.Number(p.Price.String())
		req.Price = &n
	}
	return req
}

// Package model defines the product entity as seen by the dashboard.
package model

import (
	"errors"
	"reflect"
	"strings"

	producterrors "github.com/abgdnv/productboard/internal/product/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is used when a draft carries no image URL.
const PlaceholderImage = "https://via.placeholder.com/300x300?text=No+Image"

// Product is a catalog record owned by the remote service.
// The ID is always assigned remotely.
type Product struct {
	ID          int
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Rating      *Rating
}

// Rating is the optional customer rating summary of a product.
type Rating struct {
	Rate  decimal.Decimal
	Count int
}

// InStock reports whether the product has any rating count, which the
// dashboard uses as its availability signal.
func (p Product) InStock() bool {
	return p.Rating != nil && p.Rating.Count > 0
}

// Draft is a product that has not been created yet.
type Draft struct {
	Title       string          `validate:"required"`
	Price       decimal.Decimal `validate:"gte=0"`
	Description string          `validate:"required"`
	Category    string          `validate:"required"`
	Image       string
}

// Normalize trims the text fields and falls back to PlaceholderImage.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.Image = strings.TrimSpace(d.Image)
	if d.Image == "" {
		d.Image = PlaceholderImage
	}
	return d
}

// Validate returns a *errors.ValidationError when a rule fails.
func (d Draft) Validate() error {
	return toValidationError(validate.Struct(d))
}

// Patch is a partial product. Nil fields are left out of the update request.
type Patch struct {
	Title       *string          `validate:"omitnil,min=1"`
	Price       *decimal.Decimal `validate:"omitnil,gte=0"`
	Description *string          `validate:"omitnil,min=1"`
	Category    *string          `validate:"omitnil,min=1"`
	Image       *string
}

// PatchFromDraft builds a patch that sets every field of d.
func PatchFromDraft(d Draft) Patch {
	return Patch{
		Title:       &d.Title,
		Price:       &d.Price,
		Description: &d.Description,
		Category:    &d.Category,
		Image:       &d.Image,
	}
}

// Normalize trims the set text fields. A set but empty image becomes PlaceholderImage.
func (p Patch) Normalize() Patch {
	p.Title = trimmed(p.Title)
	p.Description = trimmed(p.Description)
	p.Category = trimmed(p.Category)
	p.Image = trimmed(p.Image)
	if p.Image != nil && *p.Image == "" {
		placeholder := PlaceholderImage
		p.Image = &placeholder
	}
	return p
}

// Validate returns a *errors.ValidationError when a set field breaks a rule.
func (p Patch) Validate() error {
	return toValidationError(validate.Struct(p))
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.Description == nil && p.Category == nil && p.Image == nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

var validate = newValidator()

// newValidator lets numeric rules such as gte run against decimal values.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return &producterrors.ValidationError{Fields: fields}
}

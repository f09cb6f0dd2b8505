// Package rest exposes the product store to dashboard clients over HTTP.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"

	producterrors "github.com/abgdnv/productboard/internal/product/errors"
	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/abgdnv/productboard/internal/product/selector"
	"github.com/abgdnv/productboard/internal/product/store"
	"github.com/abgdnv/productboard/pkg/web"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// ProductStore is the part of *store.Store the handlers use.
type ProductStore interface {
	FetchAll(ctx context.Context) error
	Create(ctx context.Context, draft model.Draft) (*model.Product, error)
	Update(ctx context.Context, id int, patch model.Patch) (*model.Product, error)
	Remove(ctx context.Context, id int) error
	SetSearchQuery(query string)
	SetCategoryFilter(category string)
	State() store.State
	Items() []model.Product
	Status() store.Status
	FilteredProducts() []model.Product
	Stats() selector.Stats
	Chart(kind selector.ChartKind) ([]selector.Point, error)
}

// Catalog is the read-through part of the remote gateway.
type Catalog interface {
	GetByID(ctx context.Context, id int) (*model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Probe reports whether a dependency is ready.
type Probe func(ctx context.Context) error

type Handler struct {
	store   ProductStore
	catalog Catalog
	probes  []Probe
	logger  *slog.Logger
}

// NewHandler creates a Handler. The catalog is always probed by /readyz,
// extra probes are run alongside it.
func NewHandler(store ProductStore, catalog Catalog, logger *slog.Logger, probes ...Probe) *Handler {
	return &Handler{
		store:   store,
		catalog: catalog,
		probes:  probes,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the dashboard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.FindFiltered)
			r.Post("/", h.Create)
			r.Get("/all", h.FindAll)
			r.Post("/refresh", h.Refresh)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindByID)
				r.Put("/", h.Update)
				r.Delete("/", h.DeleteByID)
			})
		})
		r.Get("/categories", h.Categories)
		r.Get("/filters", h.Filters)
		r.Put("/filters", h.SetFilters)
		r.Get("/status", h.Status)
		r.Get("/stats", h.Stats)
		r.Get("/chart", h.Chart)
	})

	r.Get("/livez", h.Live)
	r.Get("/readyz", h.Ready)
}

// FindFiltered returns the products matching the current filters.
func (h *Handler) FindFiltered(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, toProductDtos(h.store.FilteredProducts()))
}

// FindAll returns the whole collection, ignoring the filters.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, toProductDtos(h.store.Items()))
}

// Refresh reloads the collection from the remote catalog.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received request to refresh products")
	if err := h.store.FetchAll(r.Context()); err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, toProductDtos(h.store.Items()))
}

// FindByID reads a single product from the remote catalog.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, toProductDto(*found))
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequestDto
	if !web.DecodeJSON(w, r, h.logger, &req) {
		return
	}
	draft, hasPrice := req.toDraft()
	if !hasPrice {
		fields := map[string]string{}
		var validationErr *producterrors.ValidationError
		if errors.As(draft.Normalize().Validate(), &validationErr) {
			maps.Copy(fields, validationErr.Fields)
		}
		fields["Price"] = "failed on rule: required"
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fields)
		web.RespondValidationErrors(w, h.logger, fields)
		return
	}
	created, err := h.store.Create(r.Context(), draft)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Title", created.Title)
	web.RespondJSON(w, h.logger, http.StatusCreated, toProductDto(*created))
}

// Update sends the fields present in the body to the remote catalog.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req ProductRequestDto
	if !web.DecodeJSON(w, r, h.logger, &req) {
		return
	}
	updated, err := h.store.Update(r.Context(), id, req.toPatch())
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, toProductDto(*updated))
}

// DeleteByID removes a product remotely and from the collection.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.store.Remove(r.Context(), id); err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, categories)
}

func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, currentFilters(h.store.State()))
}

// SetFilters updates whichever of search and category the body carries.
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersDto
	if !web.DecodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Search != nil {
		h.store.SetSearchQuery(*req.Search)
	}
	if req.Category != nil {
		category := *req.Category
		if category == "" {
			category = store.AllCategories
		}
		h.store.SetCategoryFilter(category)
	}
	web.RespondJSON(w, h.logger, http.StatusOK, currentFilters(h.store.State()))
}

func currentFilters(st store.State) FiltersDto {
	return FiltersDto{Search: &st.SearchQuery, Category: &st.CategoryFilter}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, toStatusDto(h.store.Status()))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, toStatsDto(h.store.Stats()))
}

// Chart returns the series selected by the type query parameter, price by default.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	kind, err := selector.ParseChartKind(r.URL.Query().Get("type"))
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	points, err := h.store.Chart(kind)
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, toPointDtos(points))
}

// Live checks if the service is live
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Ready checks that the remote catalog answers and every extra probe passes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		_, err := h.catalog.ListCategories(ctx)
		return err
	})
	for _, probe := range h.probes {
		eg.Go(func() error { return probe(ctx) })
	}
	if err := eg.Wait(); err != nil {
		h.logger.ErrorContext(r.Context(), "Readiness probe failed: upstream service is not ready", "error", err)
		http.Error(w, "Service Unavailable: Upstream service is not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondStoreError maps the product error taxonomy to HTTP statuses.
func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *producterrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondValidationErrors(w, h.logger, validationErr.Fields)
	case errors.Is(err, producterrors.ErrNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "error", err)
		web.RespondError(w, h.logger, http.StatusNotFound, err.Error())
	case errors.Is(err, producterrors.ErrTransport), errors.Is(err, producterrors.ErrParse):
		h.logger.ErrorContext(r.Context(), "Remote catalog call failed", "error", err)
		msg := err.Error()
		if msg == "" {
			msg = "Remote catalog call failed"
		}
		web.RespondError(w, h.logger, http.StatusBadGateway, msg)
	default:
		h.logger.ErrorContext(r.Context(), "Unexpected error", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}

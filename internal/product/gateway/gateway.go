// Package gateway is the typed HTTP client of the remote product catalog.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	producterrors "github.com/abgdnv/productboard/internal/product/errors"
	"github.com/abgdnv/productboard/internal/product/model"
)

// DefaultBaseURL is the reference catalog service.
const DefaultBaseURL = "https://fakestoreapi.com"

const maxBodyBytes = 10 << 20

const (
	opListAll        = "list products"
	opGetByID        = "get product"
	opCreate         = "create product"
	opUpdateByID     = "update product"
	opDeleteByID     = "delete product"
	opListCategories = "list categories"
)

// Gateway performs one remote round trip per call. It neither caches nor retries.
type Gateway interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id int) (*model.Product, error)
	Create(ctx context.Context, draft model.Draft) (*model.Product, error)
	UpdateByID(ctx context.Context, id int, patch model.Patch) (*model.Product, error)
	DeleteByID(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]string, error)
}

// HTTPGateway implements Gateway over JSON/HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New returns an HTTPGateway rooted at baseURL. A nil client means http.DefaultClient.
func New(baseURL string, client *http.Client, logger *slog.Logger) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With("component", "product_gateway"),
	}
}

func (g *HTTPGateway) ListAll(ctx context.Context) ([]model.Product, error) {
	body, err := g.do(ctx, opListAll, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	res := Decode[[]productDto](body)
	switch res.Kind {
	case EmptySuccess:
		return []model.Product{}, nil
	case ParseFailure:
		return nil, &producterrors.ParseError{Op: opListAll, Err: res.Err}
	}
	products := make([]model.Product, 0, len(res.Value))
	for _, dto := range res.Value {
		products = append(products, dto.toModel())
	}
	return products, nil
}

func (g *HTTPGateway) GetByID(ctx context.Context, id int) (*model.Product, error) {
	body, err := g.do(ctx, opGetByID, http.MethodGet, productPath(id), nil)
	if err != nil {
		return nil, notFoundOn404(err, id)
	}
	res := Decode[*productDto](body)
	switch res.Kind {
	case EmptySuccess:
		return nil, &producterrors.NotFoundError{ID: id}
	case ParseFailure:
		return nil, &producterrors.ParseError{Op: opGetByID, Err: res.Err}
	}
	if res.Value == nil {
		return nil, &producterrors.NotFoundError{ID: id}
	}
	p := res.Value.toModel()
	return &p, nil
}

func (g *HTTPGateway) Create(ctx context.Context, draft model.Draft) (*model.Product, error) {
	body, err := g.do(ctx, opCreate, http.MethodPost, "/products", newDraftRequest(draft))
	if err != nil {
		return nil, err
	}
	return requireProduct(opCreate, Decode[*productDto](body))
}

func (g *HTTPGateway) UpdateByID(ctx context.Context, id int, patch model.Patch) (*model.Product, error) {
	body, err := g.do(ctx, opUpdateByID, http.MethodPut, productPath(id), newPatchRequest(patch))
	if err != nil {
		return nil, notFoundOn404(err, id)
	}
	return requireProduct(opUpdateByID, Decode[*productDto](body))
}

func (g *HTTPGateway) DeleteByID(ctx context.Context, id int) error {
	body, err := g.do(ctx, opDeleteByID, http.MethodDelete, productPath(id), nil)
	if err != nil {
		return err
	}
	if res := Decode[json.RawMessage](body).Tolerant(); res.Kind == EmptySuccess {
		g.logger.DebugContext(ctx, "delete returned no JSON body", "id", id)
	}
	return nil
}

func (g *HTTPGateway) ListCategories(ctx context.Context) ([]string, error) {
	body, err := g.do(ctx, opListCategories, http.MethodGet, "/products/categories", nil)
	if err != nil {
		return nil, err
	}
	res := Decode[[]string](body)
	switch res.Kind {
	case EmptySuccess:
		return []string{}, nil
	case ParseFailure:
		return nil, &producterrors.ParseError{Op: opListCategories, Err: res.Err}
	}
	if res.Value == nil {
		return []string{}, nil
	}
	return res.Value, nil
}

// do sends one request and returns the body of a 2xx response.
// Any other outcome is a *errors.TransportError.
func (g *HTTPGateway) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, &producterrors.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	g.logger.DebugContext(ctx, "sending request", "op", op, "method", method, "path", path)
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WarnContext(ctx, "remote call failed", "op", op, "error", err)
		return nil, &producterrors.TransportError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.WarnContext(ctx, "remote call returned non-2xx status", "op", op, "status", resp.StatusCode)
		return nil, &producterrors.TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &producterrors.TransportError{Op: op, Err: err}
	}
	return body, nil
}

func requireProduct(op string, res Result[*productDto]) (*model.Product, error) {
	switch res.Kind {
	case EmptySuccess:
		return nil, &producterrors.ParseError{Op: op}
	case ParseFailure:
		return nil, &producterrors.ParseError{Op: op, Err: res.Err}
	}
	if res.Value == nil {
		return nil, &producterrors.ParseError{Op: op}
	}
	p := res.Value.toModel()
	return &p, nil
}

func notFoundOn404(err error, id int) error {
	if te, ok := err.(*producterrors.TransportError); ok && te.StatusCode == http.StatusNotFound {
		return &producterrors.NotFoundError{ID: id}
	}
	return err
}

func productPath(id int) string {
	return "/products/" + strconv.Itoa(id)
}

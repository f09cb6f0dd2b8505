package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	producterrors "github.com/abgdnv/productboard/internal/product/errors"
	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/abgdnv/productboard/internal/product/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGateway is a scripted remote catalog.
type mockGateway struct {
	products   []model.Product
	product    *model.Product
	categories []string
	err        error
}

func (m *mockGateway) ListAll(context.Context) ([]model.Product, error) {
	return m.products, m.err
}

func (m *mockGateway) GetByID(context.Context, int) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockGateway) Create(context.Context, model.Draft) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockGateway) UpdateByID(context.Context, int, model.Patch) (*model.Product, error) {
	return m.product, m.err
}

func (m *mockGateway) DeleteByID(context.Context, int) error {
	return m.err
}

func (m *mockGateway) ListCategories(context.Context) ([]string, error) {
	return m.categories, m.err
}

var (
	shirt = model.Product{ID: 1, Title: "Blue Shirt", Price: decimal.RequireFromString("10.5"), Category: "men", Image: "a.png",
		Rating: &model.Rating{Rate: decimal.RequireFromString("3.9"), Count: 4}}
	ring = model.Product{ID: 2, Title: "Gold Ring", Price: decimal.NewFromInt(100), Category: "jewelery", Image: "b.png"}
)

const (
	shirtJSON = `{"id":1,"title":"Blue Shirt","price":10.5,"description":"","category":"men","image":"a.png","rating":{"rate":3.9,"count":4}}`
	ringJSON  = `{"id":2,"title":"Gold Ring","price":100,"description":"","category":"jewelery","image":"b.png"}`
)

// setup builds a router over a store already loaded with gw.products.
func setup(t *testing.T, gw *mockGateway, probes ...Probe) (http.Handler, *store.Store) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	s := store.New(gw, logger)
	if gw.products != nil {
		require.NoError(t, s.FetchAll(context.Background()))
	}
	mux := chi.NewRouter()
	NewHandler(s, gw, logger, probes...).RegisterRoutes(mux)
	return mux, s
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func Test_Products_Filtered(t *testing.T) {
	// given
	h, s := setup(t, &mockGateway{products: []model.Product{shirt, ring}})

	// when
	all := serve(h, http.MethodGet, "/api/v1/products", "")
	s.SetSearchQuery("SHIRT")
	filtered := serve(h, http.MethodGet, "/api/v1/products", "")
	unfiltered := serve(h, http.MethodGet, "/api/v1/products/all", "")

	// then
	assert.Equal(t, http.StatusOK, all.Code)
	assert.JSONEq(t, "["+shirtJSON+","+ringJSON+"]", all.Body.String())
	assert.JSONEq(t, "["+shirtJSON+"]", filtered.Body.String())
	assert.JSONEq(t, "["+shirtJSON+","+ringJSON+"]", unfiltered.Body.String())
}

func Test_Refresh(t *testing.T) {
	testCases := []struct {
		name         string
		gw           *mockGateway
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			gw:           &mockGateway{products: []model.Product{ring}},
			expectedCode: http.StatusOK,
			expectedBody: "[" + ringJSON + "]",
		},
		{
			name:         "Error - remote failure",
			gw:           &mockGateway{err: &producterrors.TransportError{StatusCode: 500}},
			expectedCode: http.StatusBadGateway,
			expectedBody: `{"error":"HTTP error! status: 500"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			products := tc.gw.products
			tc.gw.products = nil
			h, _ := setup(t, tc.gw)
			tc.gw.products = products
			// when
			rr := serve(h, http.MethodPost, "/api/v1/products/refresh", "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_FindByID(t *testing.T) {
	testCases := []struct {
		name         string
		gw           *mockGateway
		id           string
		expectedCode int
		expectedBody string
	}{
		{name: "Success", gw: &mockGateway{product: &ring}, id: "2", expectedCode: http.StatusOK, expectedBody: ringJSON},
		{name: "Error - not found", gw: &mockGateway{err: &producterrors.NotFoundError{ID: 9}}, id: "9", expectedCode: http.StatusNotFound, expectedBody: `{"error":"product with ID 9 not found"}`},
		{name: "Error - remote failure", gw: &mockGateway{err: &producterrors.TransportError{StatusCode: 503}}, id: "2", expectedCode: http.StatusBadGateway, expectedBody: `{"error":"HTTP error! status: 503"}`},
		{name: "Error - invalid id", gw: &mockGateway{}, id: "abc", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"Invalid ID: abc"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h, _ := setup(t, tc.gw)
			// when
			rr := serve(h, http.MethodGet, "/api/v1/products/"+tc.id, "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Create(t *testing.T) {
	testCases := []struct {
		name         string
		gw           *mockGateway
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			gw:           &mockGateway{product: &ring},
			body:         `{"title":"Gold Ring","price":100,"description":"d","category":"jewelery","image":"b.png"}`,
			expectedCode: http.StatusCreated,
			expectedBody: ringJSON,
		},
		{
			name:         "Error - missing price",
			gw:           &mockGateway{product: &ring},
			body:         `{"title":"Gold Ring","description":"d","category":"jewelery"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Price":"failed on rule: required"}}`,
		},
		{
			name:         "Error - missing price reported with the other fields",
			gw:           &mockGateway{product: &ring},
			body:         `{"description":"d"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Title":"failed on rule: required","Category":"failed on rule: required","Price":"failed on rule: required"}}`,
		},
		{
			name:         "Error - validation",
			gw:           &mockGateway{product: &ring},
			body:         `{"title":"  ","price":-1,"description":"d","category":"jewelery"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Title":"failed on rule: required","Price":"failed on rule: gte"}}`,
		},
		{
			name:         "Error - malformed body",
			gw:           &mockGateway{},
			body:         `{"title":`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid request body"}`,
		},
		{
			name:         "Error - remote failure",
			gw:           &mockGateway{err: &producterrors.TransportError{StatusCode: 500}},
			body:         `{"title":"Gold Ring","price":"100","description":"d","category":"jewelery"}`,
			expectedCode: http.StatusBadGateway,
			expectedBody: `{"error":"HTTP error! status: 500"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h, _ := setup(t, tc.gw)
			// when
			rr := serve(h, http.MethodPost, "/api/v1/products", tc.body)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Create_PrependsToCollection(t *testing.T) {
	// given
	gw := &mockGateway{products: []model.Product{shirt}}
	h, s := setup(t, gw)
	gw.product = &ring
	// when
	rr := serve(h, http.MethodPost, "/api/v1/products", `{"title":"Gold Ring","price":100,"description":"d","category":"jewelery"}`)
	// then
	require.Equal(t, http.StatusCreated, rr.Code)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID)
}

func Test_Update(t *testing.T) {
	updated := shirt
	updated.Price = decimal.NewFromInt(20)

	testCases := []struct {
		name         string
		gw           *mockGateway
		body         string
		expectedCode int
	}{
		{name: "Success", gw: &mockGateway{product: &updated}, body: `{"price":20}`, expectedCode: http.StatusOK},
		{name: "Error - validation", gw: &mockGateway{product: &updated}, body: `{"price":-5}`, expectedCode: http.StatusBadRequest},
		{name: "Error - not found", gw: &mockGateway{err: &producterrors.NotFoundError{ID: 1}}, body: `{"price":20}`, expectedCode: http.StatusNotFound},
		{name: "Error - unparsable response", gw: &mockGateway{err: &producterrors.ParseError{Op: "update product"}}, body: `{"price":20}`, expectedCode: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h, _ := setup(t, tc.gw)
			// when
			rr := serve(h, http.MethodPut, "/api/v1/products/1", tc.body)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func Test_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedLeft int
	}{
		{name: "Success", expectedCode: http.StatusNoContent, expectedLeft: 1},
		{name: "Error - remote failure", err: &producterrors.TransportError{StatusCode: 500}, expectedCode: http.StatusBadGateway, expectedLeft: 2},
		{name: "Error - not found", err: &producterrors.NotFoundError{ID: 2}, expectedCode: http.StatusNotFound, expectedLeft: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			gw := &mockGateway{products: []model.Product{shirt, ring}}
			h, s := setup(t, gw)
			gw.err = tc.err
			// when
			rr := serve(h, http.MethodDelete, "/api/v1/products/2", "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Len(t, s.Items(), tc.expectedLeft)
		})
	}
}

func Test_Filters(t *testing.T) {
	// given
	h, s := setup(t, &mockGateway{products: []model.Product{shirt, ring}})

	// when
	initial := serve(h, http.MethodGet, "/api/v1/filters", "")
	set := serve(h, http.MethodPut, "/api/v1/filters", `{"search":"ring","category":"jewelery"}`)
	filtered := serve(h, http.MethodGet, "/api/v1/products", "")
	reset := serve(h, http.MethodPut, "/api/v1/filters", `{"category":""}`)

	// then
	assert.JSONEq(t, `{"search":"","category":"all"}`, initial.Body.String())
	assert.JSONEq(t, `{"search":"ring","category":"jewelery"}`, set.Body.String())
	assert.JSONEq(t, "["+ringJSON+"]", filtered.Body.String())
	assert.JSONEq(t, `{"search":"ring","category":"all"}`, reset.Body.String())
	assert.Equal(t, "ring", s.State().SearchQuery)
}

func Test_Status(t *testing.T) {
	// given
	gw := &mockGateway{err: errors.New("connection refused")}
	h, s := setup(t, gw)

	// when
	idle := serve(h, http.MethodGet, "/api/v1/status", "")
	_ = s.FetchAll(context.Background())
	failed := serve(h, http.MethodGet, "/api/v1/status", "")

	// then
	assert.JSONEq(t, `{"state":"idle"}`, idle.Body.String())
	assert.JSONEq(t, `{"state":"error","message":"connection refused"}`, failed.Body.String())
}

func Test_Stats(t *testing.T) {
	// given
	h, _ := setup(t, &mockGateway{products: []model.Product{shirt, ring}})
	// when
	rr := serve(h, http.MethodGet, "/api/v1/stats", "")
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total_products":2,"total_value":110.50,"average_price":55.25,"in_stock":1}`, rr.Body.String())
}

func Test_Chart(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		expectedCode int
		expectedBody string
	}{
		{name: "default is price", query: "", expectedCode: http.StatusOK, expectedBody: `[{"name":"P1","value":10.5},{"name":"P2","value":100}]`},
		{name: "category", query: "?type=category", expectedCode: http.StatusOK, expectedBody: `[{"name":"men","value":1},{"name":"jewelery","value":1}]`},
		{name: "unknown type", query: "?type=pie", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"unknown chart type: \"pie\""}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h, _ := setup(t, &mockGateway{products: []model.Product{shirt, ring}})
			// when
			rr := serve(h, http.MethodGet, "/api/v1/chart"+tc.query, "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Categories(t *testing.T) {
	// given
	h, _ := setup(t, &mockGateway{categories: []string{"men", "jewelery"}})
	// when
	rr := serve(h, http.MethodGet, "/api/v1/categories", "")
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["men","jewelery"]`, rr.Body.String())
}

func Test_Probes(t *testing.T) {
	testCases := []struct {
		name         string
		gwErr        error
		probe        Probe
		expectedCode int
	}{
		{name: "ready", expectedCode: http.StatusOK},
		{name: "catalog down", gwErr: errors.New("dial tcp: refused"), expectedCode: http.StatusServiceUnavailable},
		{name: "extra probe fails", probe: func(context.Context) error { return errors.New("not ready") }, expectedCode: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var probes []Probe
			if tc.probe != nil {
				probes = append(probes, tc.probe)
			}
			h, _ := setup(t, &mockGateway{categories: []string{"men"}, err: tc.gwErr}, probes...)
			// when
			live := serve(h, http.MethodGet, "/livez", "")
			ready := serve(h, http.MethodGet, "/readyz", "")
			// then
			assert.Equal(t, http.StatusOK, live.Code)
			assert.Equal(t, tc.expectedCode, ready.Code)
		})
	}
}

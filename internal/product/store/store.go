// Package store holds the canonical product collection of a dashboard session
// and keeps it in step with the remote catalog.
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/abgdnv/productboard/internal/product/gateway"
	"github.com/abgdnv/productboard/internal/product/model"
	"github.com/abgdnv/productboard/internal/product/selector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AllCategories is the category filter that disables category filtering.
const AllCategories = selector.AllCategories

// StatusKind is the request lifecycle shared by all mutation kinds.
type StatusKind int

const (
	Idle StatusKind = iota
	Loading
	Error
)

func (k StatusKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the lifecycle flag. Message is set only when Kind is Error.
type Status struct {
	Kind    StatusKind
	Message string
}

// State is a snapshot of the store. Items is never modified in place, so a
// snapshot stays valid after later mutations.
type State struct {
	Items          []model.Product
	Status         Status
	SearchQuery    string
	CategoryFilter string
	// Version changes whenever Items does.
	Version uint64
}

type mutationKind string

const (
	kindFetch  mutationKind = "fetch"
	kindCreate mutationKind = "create"
	kindUpdate mutationKind = "update"
	kindDelete mutationKind = "delete"
)

var fallbackMessages = map[mutationKind]string{
	kindFetch:  "Failed to fetch products",
	kindCreate: "Failed to create product",
	kindUpdate: "Failed to update product",
	kindDelete: "Failed to delete product",
}

// Store owns the product collection of one session.
// The lock is never held while a remote call is in flight, so of two
// concurrent mutations the one that settles last decides Status and Items.
type Store struct {
	gateway   gateway.Gateway
	logger    *slog.Logger
	mutations metric.Int64Counter

	// notifyMu is held from a transition until its snapshot is delivered.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State
	subs     map[int]func(State)
	nextSub  int

	filtered selector.Memo
	stats    selector.StatsMemo
	charts   selector.ChartMemo
}

// New creates an empty store in the Idle state with no filters applied.
func New(gw gateway.Gateway, logger *slog.Logger) *Store {
	meter := otel.Meter("product-dashboard")
	mutations, err := meter.Int64Counter("product_store_mutations",
		metric.WithDescription("Store mutations by kind and outcome"))
	if err != nil {
		panic("failed to create product_store_mutations counter: " + err.Error())
	}
	return &Store{
		gateway:   gw,
		logger:    logger.With("component", "product_store"),
		mutations: mutations,
		state: State{
			Items:          []model.Product{},
			Status:         Status{Kind: Idle},
			CategoryFilter: AllCategories,
		},
		subs: make(map[int]func(State)),
	}
}

// FetchAll replaces the collection with the remote one.
func (s *Store) FetchAll(ctx context.Context) error {
	s.begin()
	items, err := s.gateway.ListAll(ctx)
	if err != nil {
		return s.fail(ctx, kindFetch, err)
	}
	items = s.uniqueByID(ctx, items)
	s.settle(ctx, kindFetch, func(st *State) bool {
		st.Items = items
		return true
	})
	return nil
}

// Create validates the draft, creates it remotely and puts the result first.
// An invalid draft is returned as *errors.ValidationError without touching state.
func (s *Store) Create(ctx context.Context, draft model.Draft) (*model.Product, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	s.begin()
	created, err := s.gateway.Create(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, kindCreate, err)
	}
	s.settle(ctx, kindCreate, func(st *State) bool {
		items := make([]model.Product, 0, len(st.Items)+1)
		items = append(items, *created)
		for _, p := range st.Items {
			if p.ID != created.ID {
				items = append(items, p)
			}
		}
		st.Items = items
		return true
	})
	return created, nil
}

// Update sends patch for id and replaces the item matching the returned id.
func (s *Store) Update(ctx context.Context, id int, patch model.Patch) (*model.Product, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	s.begin()
	updated, err := s.gateway.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, kindUpdate, err)
	}
	s.settle(ctx, kindUpdate, func(st *State) bool {
		i := slices.IndexFunc(st.Items, func(p model.Product) bool { return p.ID == updated.ID })
		if i < 0 {
			s.logger.WarnContext(ctx, "updated product is not in the collection", "requested_id", id, "returned_id", updated.ID)
			return false
		}
		items := slices.Clone(st.Items)
		items[i] = *updated
		st.Items = items
		return true
	})
	return updated, nil
}

// Remove deletes id remotely and drops it locally. A missing id is a no-op.
func (s *Store) Remove(ctx context.Context, id int) error {
	s.begin()
	if err := s.gateway.DeleteByID(ctx, id); err != nil {
		return s.fail(ctx, kindDelete, err)
	}
	s.settle(ctx, kindDelete, func(st *State) bool {
		if !slices.ContainsFunc(st.Items, func(p model.Product) bool { return p.ID == id }) {
			return false
		}
		st.Items = slices.DeleteFunc(slices.Clone(st.Items), func(p model.Product) bool { return p.ID == id })
		return true
	})
	return nil
}

func (s *Store) SetSearchQuery(query string) {
	s.update(func(st *State) { st.SearchQuery = query })
}

func (s *Store) SetCategoryFilter(category string) {
	s.update(func(st *State) { st.CategoryFilter = category })
}

// State returns a snapshot of the whole store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Items() []model.Product {
	return s.State().Items
}

func (s *Store) Status() Status {
	return s.State().Status
}

// FilteredProducts applies the current search query and category filter.
func (s *Store) FilteredProducts() []model.Product {
	st := s.State()
	return s.filtered.Filtered(st.Version, st.Items, st.SearchQuery, st.CategoryFilter)
}

// Stats summarizes all items, ignoring the filters.
func (s *Store) Stats() selector.Stats {
	st := s.State()
	return s.stats.Stats(st.Version, st.Items)
}

// Chart returns the series of kind over all items.
func (s *Store) Chart(kind selector.ChartKind) ([]selector.Point, error) {
	st := s.State()
	return s.charts.Series(kind, st.Version, st.Items)
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive one at a time in transition order. fn may read the store
// but must not change it. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// begin moves to Loading and clears any previous error.
func (s *Store) begin() {
	s.update(func(st *State) { st.Status = Status{Kind: Loading} })
}

// fail keeps Items and records the failure message.
func (s *Store) fail(ctx context.Context, kind mutationKind, err error) error {
	msg := err.Error()
	if msg == "" {
		msg = fallbackMessages[kind]
	}
	s.logger.ErrorContext(ctx, "product mutation failed", "kind", string(kind), "error", err)
	s.record(ctx, kind, "error")
	s.update(func(st *State) { st.Status = Status{Kind: Error, Message: msg} })
	return err
}

// settle applies a successful result and returns to Idle. apply reports
// whether it changed Items.
func (s *Store) settle(ctx context.Context, kind mutationKind, apply func(st *State) bool) {
	s.record(ctx, kind, "success")
	s.update(func(st *State) {
		if apply(st) {
			st.Version++
		}
		st.Status = Status{Kind: Idle}
	})
}

func (s *Store) update(fn func(st *State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func (s *Store) record(ctx context.Context, kind mutationKind, outcome string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("outcome", outcome),
	))
}

// uniqueByID keeps the first occurrence of every id.
func (s *Store) uniqueByID(ctx context.Context, items []model.Product) []model.Product {
	seen := make(map[int]struct{}, len(items))
	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		if _, dup := seen[p.ID]; dup {
			s.logger.WarnContext(ctx, "remote collection repeats a product id, keeping the first", "id", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

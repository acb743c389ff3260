// Package catalog manages the item list: CRUD, search, display-name rotation,
// weight presets and the recent items and searches.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
)

// RecentLimit caps the recent searches and recent items lists.
const RecentLimit = 10

var (
	// ErrNotFound is returned when no item has the requested ID.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidItem wraps validation failures of item input.
	ErrInvalidItem = errors.New("invalid item")
)

// ItemInput holds the editable fields of an item.
type ItemInput struct {
	Name1     string    `json:"name1" validate:"required,max=80"`
	Name2     string    `json:"name2" validate:"required,max=80"`
	Name3     string    `json:"name3" validate:"required,max=80"`
	SellPrice float64   `json:"sprice" validate:"gte=0,lte=10000000"`
	BuyPrice  float64   `json:"bprice" validate:"gte=0,lte=10000000"`
	Weights   []float64 `json:"weights" validate:"max=12,dive,gt=0,lte=100000"`
}

// Catalog stores items under storage.KeyItems, newest first.
type Catalog struct {
	store    storage.KV
	validate *validator.Validate
	newID    func() string

	mu sync.Mutex
}

// New creates a Catalog backed by store.
func New(store storage.KV, validate *validator.Validate) *Catalog {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Catalog{store: store, validate: validate, newID: uuid.NewString}
}

// List returns all items, newest first.
func (c *Catalog) List(ctx context.Context) ([]models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadItems(ctx)
}

// Get returns the item with the given ID.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &items[idx], nil
}

// Search returns items where any of the three names contains query, ignoring
// case. A non-blank query is recorded in the recent searches.
func (c *Catalog) Search(ctx context.Context, query string) ([]models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items, nil
	}

	matches := make([]models.Item, 0, len(items))
	for _, it := range items {
		for _, name := range it.Names() {
			if strings.Contains(strings.ToLower(name), q) {
				matches = append(matches, it)
				break
			}
		}
	}

	if err := c.pushRecent(ctx, storage.KeyRecentSearches, strings.TrimSpace(query), strings.EqualFold); err != nil {
		return nil, err
	}
	return matches, nil
}

// Create validates input and adds a new item at the front of the list.
func (c *Catalog) Create(ctx context.Context, in ItemInput) (*models.Item, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}

	item := models.Item{ID: c.newID()}
	apply(&item, in)
	items = append([]models.Item{item}, items...)
	if err := c.saveItems(ctx, items); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the editable fields of an existing item.
func (c *Catalog) Update(ctx context.Context, id string, in ItemInput) (*models.Item, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	apply(&items[idx], in)
	if err := c.saveItems(ctx, items); err != nil {
		return nil, err
	}
	item := items[idx]
	return &item, nil
}

// Delete removes an item and drops it from the recent items.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return ErrNotFound
	}

	items = append(items[:idx:idx], items[idx+1:]...)
	if err := c.saveItems(ctx, items); err != nil {
		return err
	}

	recent, err := c.loadStrings(ctx, storage.KeyRecentItems)
	if err != nil {
		return err
	}
	kept := recent[:0]
	for _, rid := range recent {
		if rid != id {
			kept = append(kept, rid)
		}
	}
	return c.saveStrings(ctx, storage.KeyRecentItems, kept)
}

// CycleName advances the displayed name of an item to the next of its three
// names and returns the updated item.
func (c *Catalog) CycleName(ctx context.Context, id string) (*models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	cur := items[idx].ShowNameIdx % models.NameCount
	if cur < 0 {
		cur += models.NameCount
	}
	items[idx].ShowNameIdx = (cur + 1) % models.NameCount
	if err := c.saveItems(ctx, items); err != nil {
		return nil, err
	}
	item := items[idx]
	return &item, nil
}

// Presets returns the weight chips of an item priced at its selling price.
// Items without their own weights use defaultWeights. Selecting an item this
// way records it as recently used.
func (c *Catalog) Presets(ctx context.Context, id string, defaultWeights []float64) (*models.Item, []calculator.Preset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, nil, ErrNotFound
	}
	item := items[idx]

	weights := item.Presets.Weight
	if len(weights) == 0 {
		weights = defaultWeights
	}
	if err := c.pushRecent(ctx, storage.KeyRecentItems, id, func(a, b string) bool { return a == b }); err != nil {
		return nil, nil, err
	}
	return &item, calculator.PresetsFor(item.SellPrice, weights), nil
}

// Recent returns the recent searches and the recently used items that still
// exist, both most recent first.
func (c *Catalog) Recent(ctx context.Context) ([]string, []models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	searches, err := c.loadStrings(ctx, storage.KeyRecentSearches)
	if err != nil {
		return nil, nil, err
	}
	ids, err := c.loadStrings(ctx, storage.KeyRecentItems)
	if err != nil {
		return nil, nil, err
	}
	items, err := c.loadItems(ctx)
	if err != nil {
		return nil, nil, err
	}

	recent := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if idx := indexOf(items, id); idx >= 0 {
			recent = append(recent, items[idx])
		}
	}
	return searches, recent, nil
}

func (c *Catalog) check(in ItemInput) error {
	if err := c.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if math.IsInf(in.SellPrice, 0) || math.IsInf(in.BuyPrice, 0) {
		return fmt.Errorf("%w: price must be finite", ErrInvalidItem)
	}
	return nil
}

// apply copies validated input onto item. Names are trimmed and prices are
// kept to two decimals.
func apply(item *models.Item, in ItemInput) {
	item.Name1 = strings.TrimSpace(in.Name1)
	item.Name2 = strings.TrimSpace(in.Name2)
	item.Name3 = strings.TrimSpace(in.Name3)
	item.SellPrice = roundPrice(in.SellPrice)
	item.BuyPrice = roundPrice(in.BuyPrice)
	item.Presets.Weight = append([]float64(nil), in.Weights...)
}

func roundPrice(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func (c *Catalog) loadItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	ok, err := storage.GetJSON(ctx, c.store, storage.KeyItems, &items)
	if err != nil && !ok {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if err != nil || items == nil {
		// A corrupt list is treated as empty.
		return []models.Item{}, nil
	}
	return items, nil
}

func (c *Catalog) saveItems(ctx context.Context, items []models.Item) error {
	if err := storage.SetJSON(ctx, c.store, storage.KeyItems, items); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	return nil
}

func (c *Catalog) loadStrings(ctx context.Context, key string) ([]string, error) {
	var values []string
	ok, err := storage.GetJSON(ctx, c.store, key, &values)
	if err != nil && !ok {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err != nil || values == nil {
		return []string{}, nil
	}
	return values, nil
}

func (c *Catalog) saveStrings(ctx context.Context, key string, values []string) error {
	if err := storage.SetJSON(ctx, c.store, key, values); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// pushRecent moves value to the front of the list under key, removing earlier
// entries equal to it and keeping at most RecentLimit entries.
func (c *Catalog) pushRecent(ctx context.Context, key, value string, equal func(a, b string) bool) error {
	values, err := c.loadStrings(ctx, key)
	if err != nil {
		return err
	}
	out := make([]string, 0, RecentLimit)
	out = append(out, value)
	for _, v := range values {
		if len(out) == RecentLimit {
			break
		}
		if !equal(v, value) {
			out = append(out, v)
		}
	}
	return c.saveStrings(ctx, key, out)
}

func indexOf(items []models.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

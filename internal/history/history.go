// Package history manages saved receipts: listing, renaming, deleting and
// exporting them.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/weighbill/internal/models"
)

// ErrNotFound is returned when no receipt has the requested ID.
var ErrNotFound = errors.New("bill not found")

// Store is the owner of the persisted receipt list.
// *calculator.Accumulator implements it.
type Store interface {
	History(ctx context.Context) ([]models.Receipt, error)
	UpdateHistory(ctx context.Context, fn func([]models.Receipt) ([]models.Receipt, error)) error
}

// Book provides the operations of the bill history sheet.
type Book struct {
	store Store
}

// NewBook creates a Book backed by store.
func NewBook(store Store) *Book {
	return &Book{store: store}
}

// Entry is a receipt with its display label.
type Entry struct {
	Receipt models.Receipt `json:"receipt"`
	Label   string         `json:"label"`
}

// Label returns the receipt name, or "Bill N" for the receipt at position idx.
func Label(r models.Receipt, idx int) string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Bill %d", idx+1)
}

// List returns all receipts, most recent first.
func (b *Book) List(ctx context.Context) ([]Entry, error) {
	receipts, err := b.store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	entries := make([]Entry, len(receipts))
	for i, r := range receipts {
		entries[i] = Entry{Receipt: r.Clone(), Label: Label(r, i)}
	}
	return entries, nil
}

// Get returns the receipt with the given ID.
func (b *Book) Get(ctx context.Context, id string) (*Entry, error) {
	receipts, err := b.store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	idx := indexOf(receipts, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &Entry{Receipt: receipts[idx].Clone(), Label: Label(receipts[idx], idx)}, nil
}

// Rename sets the receipt name. The name is trimmed; an empty name restores
// the default label.
func (b *Book) Rename(ctx context.Context, id, name string) (*Entry, error) {
	var renamed *Entry
	err := b.store.UpdateHistory(ctx, func(receipts []models.Receipt) ([]models.Receipt, error) {
		idx := indexOf(receipts, id)
		if idx < 0 {
			return nil, ErrNotFound
		}
		receipts[idx].Name = strings.TrimSpace(name)
		renamed = &Entry{Receipt: receipts[idx].Clone(), Label: Label(receipts[idx], idx)}
		return receipts, nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Delete removes the receipt with the given ID.
func (b *Book) Delete(ctx context.Context, id string) error {
	return b.store.UpdateHistory(ctx, func(receipts []models.Receipt) ([]models.Receipt, error) {
		idx := indexOf(receipts, id)
		if idx < 0 {
			return nil, ErrNotFound
		}
		return append(receipts[:idx:idx], receipts[idx+1:]...), nil
	})
}

func indexOf(receipts []models.Receipt, id string) int {
	for i, r := range receipts {
		if r.ID == id {
			return i
		}
	}
	return -1
}

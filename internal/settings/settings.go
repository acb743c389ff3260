// Package settings stores user preferences and the theme.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
)

// ErrInvalidSettings wraps validation failures.
var ErrInvalidSettings = errors.New("invalid settings")

// Service reads and writes settings and the theme.
type Service struct {
	store    storage.KV
	validate *validator.Validate

	mu sync.Mutex
}

// New creates a Service backed by store.
func New(store storage.KV, validate *validator.Validate) *Service {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Service{store: store, validate: validate}
}

// Get returns the stored settings. Missing or corrupt settings yield the
// defaults; fields absent from an older document keep their default values.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	out := models.DefaultSettings()
	ok, err := storage.GetJSON(ctx, s.store, storage.KeySettings, &out)
	if err != nil && !ok {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if err != nil {
		return models.DefaultSettings(), nil
	}
	return out, nil
}

// Update validates and stores settings.
func (s *Service) Update(ctx context.Context, in models.Settings) (models.Settings, error) {
	in.CurrencySymbol = strings.TrimSpace(in.CurrencySymbol)
	if err := s.validate.Struct(in); err != nil {
		return models.Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if in.DefaultWeights == nil {
		in.DefaultWeights = []float64{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(ctx, s.store, storage.KeySettings, in); err != nil {
		return models.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return in, nil
}

// Theme returns the stored theme, dark by default.
func (s *Service) Theme(ctx context.Context) (models.Theme, error) {
	var theme models.Theme
	ok, err := storage.GetJSON(ctx, s.store, storage.KeyTheme, &theme)
	if err != nil && !ok {
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	return theme.Normalize(), nil
}

// ToggleTheme switches between dark and light and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := cur.Toggle()
	if err := storage.SetJSON(ctx, s.store, storage.KeyTheme, next); err != nil {
		return "", fmt.Errorf("failed to save theme: %w", err)
	}
	return next, nil
}

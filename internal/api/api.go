// Package api defines the RPC messages of the weighbill.v1 services.
// Messages are plain structs carried by the JSON codec.
package api

import (
	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/history"
	"github.com/mmynk/weighbill/internal/models"
)

// BillView is the working bill as shown by the calculator surfaces.
type BillView struct {
	Lines          []models.LineItem `json:"lines"`
	Total          int64             `json:"total"`
	FormattedTotal string            `json:"formattedTotal"`
	Mini           int64             `json:"mini"`
}

// Amounts are raw user input parsed with calculator.ParseAmount.

type GetBillRequest struct{}

type BillResponse struct {
	Bill BillView `json:"bill"`
}

type SetMiniRequest struct {
	Amount string `json:"amount"`
}

type AddToMiniRequest struct {
	Delta string `json:"delta"`
}

type MultiplyMiniRequest struct {
	Base       string `json:"base"`
	Multiplier string `json:"multiplier"`
}

type ClearMiniRequest struct{}

// AddPresetRequest adds a weight chip to the mini. When ItemID is set the
// item's selling price is used, otherwise PricePerKg.
type AddPresetRequest struct {
	ItemID     string  `json:"itemId,omitempty"`
	PricePerKg string  `json:"pricePerKg,omitempty"`
	Grams      float64 `json:"grams"`
}

type MiniResponse struct {
	Mini      int64  `json:"mini"`
	Formatted string `json:"formatted"`
}

// CommitLineRequest appends a line. An empty Price commits a zero line.
type CommitLineRequest struct {
	ItemName string   `json:"itemName"`
	Grams    *float64 `json:"grams,omitempty"`
	Price    string   `json:"price,omitempty"`
}

type CommitMiniRequest struct {
	ItemName string   `json:"itemName"`
	Grams    *float64 `json:"grams,omitempty"`
}

type CommitLineResponse struct {
	Line models.LineItem `json:"line"`
	Bill BillView        `json:"bill"`
}

type RemoveLineRequest struct {
	Index int `json:"index"`
}

type RemoveLineResponse struct {
	Removed bool     `json:"removed"`
	Bill    BillView `json:"bill"`
}

type ClearAllRequest struct{}

type SaveBillRequest struct{}

type SaveBillResponse struct {
	Receipt models.Receipt `json:"receipt"`
}

type WatchMiniRequest struct{}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []history.Entry `json:"bills"`
}

type GetSavedBillRequest struct {
	ID string `json:"id"`
}

type SavedBillResponse struct {
	Bill history.Entry `json:"bill"`
}

type RenameBillRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DeleteBillRequest struct {
	ID string `json:"id"`
}

type DeleteBillResponse struct{}

type ExportBillRequest struct {
	ID string `json:"id"`
}

type ExportBillResponse struct {
	FileName string `json:"fileName"`
	Document string `json:"document"`
}

type ListItemsRequest struct{}

type ItemsResponse struct {
	Items []models.Item `json:"items"`
}

type SearchItemsRequest struct {
	Query string `json:"query"`
}

type CreateItemRequest struct {
	Item catalog.ItemInput `json:"item"`
}

type UpdateItemRequest struct {
	ID   string            `json:"id"`
	Item catalog.ItemInput `json:"item"`
}

type ItemResponse struct {
	Item        models.Item `json:"item"`
	DisplayName string      `json:"displayName"`
}

type DeleteItemRequest struct {
	ID string `json:"id"`
}

type DeleteItemResponse struct{}

type CycleNameRequest struct {
	ID string `json:"id"`
}

type GetPresetsRequest struct {
	ID string `json:"id"`
}

type GetPresetsResponse struct {
	Item    models.Item         `json:"item"`
	Presets []calculator.Preset `json:"presets"`
}

type ListRecentRequest struct{}

type ListRecentResponse struct {
	Searches []string      `json:"searches"`
	Items    []models.Item `json:"items"`
}

type GetSettingsRequest struct{}

type UpdateSettingsRequest struct {
	Settings models.Settings `json:"settings"`
}

type SettingsResponse struct {
	Settings models.Settings `json:"settings"`
}

type GetThemeRequest struct{}

type ToggleThemeRequest struct{}

type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

type UnlockRequest struct {
	Passcode string `json:"passcode"`
}

type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SetPasscodeRequest changes the passcode. An empty Next removes the lock.
type SetPasscodeRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

type SetPasscodeResponse struct {
	Enabled   bool   `json:"enabled"`
	Token     string `json:"token,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

type LockStatusRequest struct{}

type LockStatusResponse struct {
	Enabled  bool `json:"enabled"`
	Unlocked bool `json:"unlocked"`
}

package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/settings"
)

// Ensure CatalogService implements the handler interface
var _ apiconnect.CatalogServiceHandler = (*CatalogService)(nil)

// CatalogService implements the Connect CatalogService.
type CatalogService struct {
	catalog  *catalog.Catalog
	settings *settings.Service
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(cat *catalog.Catalog, prefs *settings.Service) *CatalogService {
	return &CatalogService{catalog: cat, settings: prefs}
}

func itemResponse(item *models.Item) *connect.Response[api.ItemResponse] {
	return connect.NewResponse(&api.ItemResponse{Item: *item, DisplayName: item.DisplayName()})
}

// ListItems returns the catalog, newest first.
func (s *CatalogService) ListItems(ctx context.Context, _ *connect.Request[api.ListItemsRequest]) (*connect.Response[api.ItemsResponse], error) {
	items, err := s.catalog.List(ctx)
	if err != nil {
		return nil, toConnectError("ListItems", err)
	}
	return connect.NewResponse(&api.ItemsResponse{Items: items}), nil
}

// SearchItems filters the catalog by name.
func (s *CatalogService) SearchItems(ctx context.Context, req *connect.Request[api.SearchItemsRequest]) (*connect.Response[api.ItemsResponse], error) {
	items, err := s.catalog.Search(ctx, req.Msg.Query)
	if err != nil {
		return nil, toConnectError("SearchItems", err)
	}
	return connect.NewResponse(&api.ItemsResponse{Items: items}), nil
}

// CreateItem adds an item.
func (s *CatalogService) CreateItem(ctx context.Context, req *connect.Request[api.CreateItemRequest]) (*connect.Response[api.ItemResponse], error) {
	item, err := s.catalog.Create(ctx, req.Msg.Item)
	if err != nil {
		return nil, toConnectError("CreateItem", err)
	}
	slog.Info("Created item", "item_id", item.ID, "name", item.DisplayName())
	return itemResponse(item), nil
}

// UpdateItem replaces the editable fields of an item.
func (s *CatalogService) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.ItemResponse], error) {
	item, err := s.catalog.Update(ctx, req.Msg.ID, req.Msg.Item)
	if err != nil {
		return nil, toConnectError("UpdateItem", err)
	}
	return itemResponse(item), nil
}

// DeleteItem removes an item.
func (s *CatalogService) DeleteItem(ctx context.Context, req *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error) {
	if err := s.catalog.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteItem", err)
	}
	slog.Info("Deleted item", "item_id", req.Msg.ID)
	return connect.NewResponse(&api.DeleteItemResponse{}), nil
}

// CycleName shows the item's next display name.
func (s *CatalogService) CycleName(ctx context.Context, req *connect.Request[api.CycleNameRequest]) (*connect.Response[api.ItemResponse], error) {
	item, err := s.catalog.CycleName(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("CycleName", err)
	}
	return itemResponse(item), nil
}

// GetPresets returns the item's weight chips, falling back to the default
// weights from settings.
func (s *CatalogService) GetPresets(ctx context.Context, req *connect.Request[api.GetPresetsRequest]) (*connect.Response[api.GetPresetsResponse], error) {
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		return nil, toConnectError("GetPresets", err)
	}
	item, presets, err := s.catalog.Presets(ctx, req.Msg.ID, prefs.DefaultWeights)
	if err != nil {
		return nil, toConnectError("GetPresets", err)
	}
	return connect.NewResponse(&api.GetPresetsResponse{Item: *item, Presets: presets}), nil
}

// ListRecent returns recent searches and items.
func (s *CatalogService) ListRecent(ctx context.Context, _ *connect.Request[api.ListRecentRequest]) (*connect.Response[api.ListRecentResponse], error) {
	searches, items, err := s.catalog.Recent(ctx)
	if err != nil {
		return nil, toConnectError("ListRecent", err)
	}
	return connect.NewResponse(&api.ListRecentResponse{Searches: searches, Items: items}), nil
}

package apiconnect

import (
	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
)

// BillServiceClient calls BillService.
type BillServiceClient struct {
	GetBill      *connect.Client[api.GetBillRequest, api.BillResponse]
	SetMini      *connect.Client[api.SetMiniRequest, api.MiniResponse]
	AddToMini    *connect.Client[api.AddToMiniRequest, api.MiniResponse]
	MultiplyMini *connect.Client[api.MultiplyMiniRequest, api.MiniResponse]
	ClearMini    *connect.Client[api.ClearMiniRequest, api.MiniResponse]
	AddPreset    *connect.Client[api.AddPresetRequest, api.MiniResponse]
	CommitLine   *connect.Client[api.CommitLineRequest, api.CommitLineResponse]
	CommitMini   *connect.Client[api.CommitMiniRequest, api.CommitLineResponse]
	RemoveLine   *connect.Client[api.RemoveLineRequest, api.RemoveLineResponse]
	ClearAll     *connect.Client[api.ClearAllRequest, api.BillResponse]
	SaveBill     *connect.Client[api.SaveBillRequest, api.SaveBillResponse]
	WatchMini    *connect.Client[api.WatchMiniRequest, api.MiniResponse]
}

// NewBillServiceClient builds a BillService client for the server at baseURL.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	opts = clientOptions(opts)
	return &BillServiceClient{
		GetBill:      connect.NewClient[api.GetBillRequest, api.BillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		SetMini:      connect.NewClient[api.SetMiniRequest, api.MiniResponse](httpClient, baseURL+BillServiceSetMiniProcedure, opts...),
		AddToMini:    connect.NewClient[api.AddToMiniRequest, api.MiniResponse](httpClient, baseURL+BillServiceAddToMiniProcedure, opts...),
		MultiplyMini: connect.NewClient[api.MultiplyMiniRequest, api.MiniResponse](httpClient, baseURL+BillServiceMultiplyMiniProcedure, opts...),
		ClearMini:    connect.NewClient[api.ClearMiniRequest, api.MiniResponse](httpClient, baseURL+BillServiceClearMiniProcedure, opts...),
		AddPreset:    connect.NewClient[api.AddPresetRequest, api.MiniResponse](httpClient, baseURL+BillServiceAddPresetProcedure, opts...),
		CommitLine:   connect.NewClient[api.CommitLineRequest, api.CommitLineResponse](httpClient, baseURL+BillServiceCommitLineProcedure, opts...),
		CommitMini:   connect.NewClient[api.CommitMiniRequest, api.CommitLineResponse](httpClient, baseURL+BillServiceCommitMiniProcedure, opts...),
		RemoveLine:   connect.NewClient[api.RemoveLineRequest, api.RemoveLineResponse](httpClient, baseURL+BillServiceRemoveLineProcedure, opts...),
		ClearAll:     connect.NewClient[api.ClearAllRequest, api.BillResponse](httpClient, baseURL+BillServiceClearAllProcedure, opts...),
		SaveBill:     connect.NewClient[api.SaveBillRequest, api.SaveBillResponse](httpClient, baseURL+BillServiceSaveBillProcedure, opts...),
		WatchMini:    connect.NewClient[api.WatchMiniRequest, api.MiniResponse](httpClient, baseURL+BillServiceWatchMiniProcedure, opts...),
	}
}

// HistoryServiceClient calls HistoryService.
type HistoryServiceClient struct {
	ListBills  *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	GetBill    *connect.Client[api.GetSavedBillRequest, api.SavedBillResponse]
	RenameBill *connect.Client[api.RenameBillRequest, api.SavedBillResponse]
	DeleteBill *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
	ExportBill *connect.Client[api.ExportBillRequest, api.ExportBillResponse]
}

// NewHistoryServiceClient builds a HistoryService client.
func NewHistoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *HistoryServiceClient {
	opts = clientOptions(opts)
	return &HistoryServiceClient{
		ListBills:  connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+HistoryServiceListBillsProcedure, opts...),
		GetBill:    connect.NewClient[api.GetSavedBillRequest, api.SavedBillResponse](httpClient, baseURL+HistoryServiceGetBillProcedure, opts...),
		RenameBill: connect.NewClient[api.RenameBillRequest, api.SavedBillResponse](httpClient, baseURL+HistoryServiceRenameBillProcedure, opts...),
		DeleteBill: connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](httpClient, baseURL+HistoryServiceDeleteBillProcedure, opts...),
		ExportBill: connect.NewClient[api.ExportBillRequest, api.ExportBillResponse](httpClient, baseURL+HistoryServiceExportBillProcedure, opts...),
	}
}

// CatalogServiceClient calls CatalogService.
type CatalogServiceClient struct {
	ListItems   *connect.Client[api.ListItemsRequest, api.ItemsResponse]
	SearchItems *connect.Client[api.SearchItemsRequest, api.ItemsResponse]
	CreateItem  *connect.Client[api.CreateItemRequest, api.ItemResponse]
	UpdateItem  *connect.Client[api.UpdateItemRequest, api.ItemResponse]
	DeleteItem  *connect.Client[api.DeleteItemRequest, api.DeleteItemResponse]
	CycleName   *connect.Client[api.CycleNameRequest, api.ItemResponse]
	GetPresets  *connect.Client[api.GetPresetsRequest, api.GetPresetsResponse]
	ListRecent  *connect.Client[api.ListRecentRequest, api.ListRecentResponse]
}

// NewCatalogServiceClient builds a CatalogService client.
func NewCatalogServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CatalogServiceClient {
	opts = clientOptions(opts)
	return &CatalogServiceClient{
		ListItems:   connect.NewClient[api.ListItemsRequest, api.ItemsResponse](httpClient, baseURL+CatalogServiceListItemsProcedure, opts...),
		SearchItems: connect.NewClient[api.SearchItemsRequest, api.ItemsResponse](httpClient, baseURL+CatalogServiceSearchItemsProcedure, opts...),
		CreateItem:  connect.NewClient[api.CreateItemRequest, api.ItemResponse](httpClient, baseURL+CatalogServiceCreateItemProcedure, opts...),
		UpdateItem:  connect.NewClient[api.UpdateItemRequest, api.ItemResponse](httpClient, baseURL+CatalogServiceUpdateItemProcedure, opts...),
		DeleteItem:  connect.NewClient[api.DeleteItemRequest, api.DeleteItemResponse](httpClient, baseURL+CatalogServiceDeleteItemProcedure, opts...),
		CycleName:   connect.NewClient[api.CycleNameRequest, api.ItemResponse](httpClient, baseURL+CatalogServiceCycleNameProcedure, opts...),
		GetPresets:  connect.NewClient[api.GetPresetsRequest, api.GetPresetsResponse](httpClient, baseURL+CatalogServiceGetPresetsProcedure, opts...),
		ListRecent:  connect.NewClient[api.ListRecentRequest, api.ListRecentResponse](httpClient, baseURL+CatalogServiceListRecentProcedure, opts...),
	}
}

// SettingsServiceClient calls SettingsService.
type SettingsServiceClient struct {
	GetSettings    *connect.Client[api.GetSettingsRequest, api.SettingsResponse]
	UpdateSettings *connect.Client[api.UpdateSettingsRequest, api.SettingsResponse]
	GetTheme       *connect.Client[api.GetThemeRequest, api.ThemeResponse]
	ToggleTheme    *connect.Client[api.ToggleThemeRequest, api.ThemeResponse]
}

// NewSettingsServiceClient builds a SettingsService client.
func NewSettingsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettingsServiceClient {
	opts = clientOptions(opts)
	return &SettingsServiceClient{
		GetSettings:    connect.NewClient[api.GetSettingsRequest, api.SettingsResponse](httpClient, baseURL+SettingsServiceGetSettingsProcedure, opts...),
		UpdateSettings: connect.NewClient[api.UpdateSettingsRequest, api.SettingsResponse](httpClient, baseURL+SettingsServiceUpdateSettingsProcedure, opts...),
		GetTheme:       connect.NewClient[api.GetThemeRequest, api.ThemeResponse](httpClient, baseURL+SettingsServiceGetThemeProcedure, opts...),
		ToggleTheme:    connect.NewClient[api.ToggleThemeRequest, api.ThemeResponse](httpClient, baseURL+SettingsServiceToggleThemeProcedure, opts...),
	}
}

// LockServiceClient calls LockService.
type LockServiceClient struct {
	Unlock      *connect.Client[api.UnlockRequest, api.SessionResponse]
	SetPasscode *connect.Client[api.SetPasscodeRequest, api.SetPasscodeResponse]
	Status      *connect.Client[api.LockStatusRequest, api.LockStatusResponse]
}

// NewLockServiceClient builds a LockService client.
func NewLockServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LockServiceClient {
	opts = clientOptions(opts)
	return &LockServiceClient{
		Unlock:      connect.NewClient[api.UnlockRequest, api.SessionResponse](httpClient, baseURL+LockServiceUnlockProcedure, opts...),
		SetPasscode: connect.NewClient[api.SetPasscodeRequest, api.SetPasscodeResponse](httpClient, baseURL+LockServiceSetPasscodeProcedure, opts...),
		Status:      connect.NewClient[api.LockStatusRequest, api.LockStatusResponse](httpClient, baseURL+LockServiceStatusProcedure, opts...),
	}
}

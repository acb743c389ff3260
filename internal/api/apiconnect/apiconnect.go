// Package apiconnect wires the weighbill.v1 services to Connect handlers and
// clients using the JSON codec.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
)

const (
	BillServiceName     = "weighbill.v1.BillService"
	HistoryServiceName  = "weighbill.v1.HistoryService"
	CatalogServiceName  = "weighbill.v1.CatalogService"
	SettingsServiceName = "weighbill.v1.SettingsService"
	LockServiceName     = "weighbill.v1.LockService"
)

const (
	BillServiceGetBillProcedure      = "/weighbill.v1.BillService/GetBill"
	BillServiceSetMiniProcedure      = "/weighbill.v1.BillService/SetMini"
	BillServiceAddToMiniProcedure    = "/weighbill.v1.BillService/AddToMini"
	BillServiceMultiplyMiniProcedure = "/weighbill.v1.BillService/MultiplyMini"
	BillServiceClearMiniProcedure    = "/weighbill.v1.BillService/ClearMini"
	BillServiceAddPresetProcedure    = "/weighbill.v1.BillService/AddPreset"
	BillServiceCommitLineProcedure   = "/weighbill.v1.BillService/CommitLine"
	BillServiceCommitMiniProcedure   = "/weighbill.v1.BillService/CommitMini"
	BillServiceRemoveLineProcedure   = "/weighbill.v1.BillService/RemoveLine"
	BillServiceClearAllProcedure     = "/weighbill.v1.BillService/ClearAll"
	BillServiceSaveBillProcedure     = "/weighbill.v1.BillService/SaveBill"
	BillServiceWatchMiniProcedure    = "/weighbill.v1.BillService/WatchMini"

	HistoryServiceListBillsProcedure  = "/weighbill.v1.HistoryService/ListBills"
	HistoryServiceGetBillProcedure    = "/weighbill.v1.HistoryService/GetBill"
	HistoryServiceRenameBillProcedure = "/weighbill.v1.HistoryService/RenameBill"
	HistoryServiceDeleteBillProcedure = "/weighbill.v1.HistoryService/DeleteBill"
	HistoryServiceExportBillProcedure = "/weighbill.v1.HistoryService/ExportBill"

	CatalogServiceListItemsProcedure   = "/weighbill.v1.CatalogService/ListItems"
	CatalogServiceSearchItemsProcedure = "/weighbill.v1.CatalogService/SearchItems"
	CatalogServiceCreateItemProcedure  = "/weighbill.v1.CatalogService/CreateItem"
	CatalogServiceUpdateItemProcedure  = "/weighbill.v1.CatalogService/UpdateItem"
	CatalogServiceDeleteItemProcedure  = "/weighbill.v1.CatalogService/DeleteItem"
	CatalogServiceCycleNameProcedure   = "/weighbill.v1.CatalogService/CycleName"
	CatalogServiceGetPresetsProcedure  = "/weighbill.v1.CatalogService/GetPresets"
	CatalogServiceListRecentProcedure  = "/weighbill.v1.CatalogService/ListRecent"

	SettingsServiceGetSettingsProcedure    = "/weighbill.v1.SettingsService/GetSettings"
	SettingsServiceUpdateSettingsProcedure = "/weighbill.v1.SettingsService/UpdateSettings"
	SettingsServiceGetThemeProcedure       = "/weighbill.v1.SettingsService/GetTheme"
	SettingsServiceToggleThemeProcedure    = "/weighbill.v1.SettingsService/ToggleTheme"

	LockServiceUnlockProcedure      = "/weighbill.v1.LockService/Unlock"
	LockServiceSetPasscodeProcedure = "/weighbill.v1.LockService/SetPasscode"
	LockServiceStatusProcedure      = "/weighbill.v1.LockService/Status"
)

// BillServiceHandler serves the running bill and the mini calculator.
type BillServiceHandler interface {
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error)
	SetMini(context.Context, *connect.Request[api.SetMiniRequest]) (*connect.Response[api.MiniResponse], error)
	AddToMini(context.Context, *connect.Request[api.AddToMiniRequest]) (*connect.Response[api.MiniResponse], error)
	MultiplyMini(context.Context, *connect.Request[api.MultiplyMiniRequest]) (*connect.Response[api.MiniResponse], error)
	ClearMini(context.Context, *connect.Request[api.ClearMiniRequest]) (*connect.Response[api.MiniResponse], error)
	AddPreset(context.Context, *connect.Request[api.AddPresetRequest]) (*connect.Response[api.MiniResponse], error)
	CommitLine(context.Context, *connect.Request[api.CommitLineRequest]) (*connect.Response[api.CommitLineResponse], error)
	CommitMini(context.Context, *connect.Request[api.CommitMiniRequest]) (*connect.Response[api.CommitLineResponse], error)
	RemoveLine(context.Context, *connect.Request[api.RemoveLineRequest]) (*connect.Response[api.RemoveLineResponse], error)
	ClearAll(context.Context, *connect.Request[api.ClearAllRequest]) (*connect.Response[api.BillResponse], error)
	SaveBill(context.Context, *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error)
	WatchMini(context.Context, *connect.Request[api.WatchMiniRequest], *connect.ServerStream[api.MiniResponse]) error
}

// HistoryServiceHandler serves saved receipts.
type HistoryServiceHandler interface {
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	GetBill(context.Context, *connect.Request[api.GetSavedBillRequest]) (*connect.Response[api.SavedBillResponse], error)
	RenameBill(context.Context, *connect.Request[api.RenameBillRequest]) (*connect.Response[api.SavedBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	ExportBill(context.Context, *connect.Request[api.ExportBillRequest]) (*connect.Response[api.ExportBillResponse], error)
}

// CatalogServiceHandler serves the item catalog.
type CatalogServiceHandler interface {
	ListItems(context.Context, *connect.Request[api.ListItemsRequest]) (*connect.Response[api.ItemsResponse], error)
	SearchItems(context.Context, *connect.Request[api.SearchItemsRequest]) (*connect.Response[api.ItemsResponse], error)
	CreateItem(context.Context, *connect.Request[api.CreateItemRequest]) (*connect.Response[api.ItemResponse], error)
	UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.ItemResponse], error)
	DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error)
	CycleName(context.Context, *connect.Request[api.CycleNameRequest]) (*connect.Response[api.ItemResponse], error)
	GetPresets(context.Context, *connect.Request[api.GetPresetsRequest]) (*connect.Response[api.GetPresetsResponse], error)
	ListRecent(context.Context, *connect.Request[api.ListRecentRequest]) (*connect.Response[api.ListRecentResponse], error)
}

// SettingsServiceHandler serves user settings and the theme.
type SettingsServiceHandler interface {
	GetSettings(context.Context, *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.SettingsResponse], error)
	UpdateSettings(context.Context, *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.SettingsResponse], error)
	GetTheme(context.Context, *connect.Request[api.GetThemeRequest]) (*connect.Response[api.ThemeResponse], error)
	ToggleTheme(context.Context, *connect.Request[api.ToggleThemeRequest]) (*connect.Response[api.ThemeResponse], error)
}

// LockServiceHandler serves the till lock.
type LockServiceHandler interface {
	Unlock(context.Context, *connect.Request[api.UnlockRequest]) (*connect.Response[api.SessionResponse], error)
	SetPasscode(context.Context, *connect.Request[api.SetPasscodeRequest]) (*connect.Response[api.SetPasscodeResponse], error)
	Status(context.Context, *connect.Request[api.LockStatusRequest]) (*connect.Response[api.LockStatusResponse], error)
}

// The JSON codec goes ahead of caller options.

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.JSONCodec{})}, opts...)
}

// serviceMux routes requests under a service path to its procedures.
type serviceMux map[string]http.Handler

func (m serviceMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func servicePath(name string) string {
	return "/" + strings.TrimPrefix(name, "/") + "/"
}

// NewBillServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(BillServiceName), serviceMux{
		BillServiceGetBillProcedure:      connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...),
		BillServiceSetMiniProcedure:      connect.NewUnaryHandler(BillServiceSetMiniProcedure, svc.SetMini, opts...),
		BillServiceAddToMiniProcedure:    connect.NewUnaryHandler(BillServiceAddToMiniProcedure, svc.AddToMini, opts...),
		BillServiceMultiplyMiniProcedure: connect.NewUnaryHandler(BillServiceMultiplyMiniProcedure, svc.MultiplyMini, opts...),
		BillServiceClearMiniProcedure:    connect.NewUnaryHandler(BillServiceClearMiniProcedure, svc.ClearMini, opts...),
		BillServiceAddPresetProcedure:    connect.NewUnaryHandler(BillServiceAddPresetProcedure, svc.AddPreset, opts...),
		BillServiceCommitLineProcedure:   connect.NewUnaryHandler(BillServiceCommitLineProcedure, svc.CommitLine, opts...),
		BillServiceCommitMiniProcedure:   connect.NewUnaryHandler(BillServiceCommitMiniProcedure, svc.CommitMini, opts...),
		BillServiceRemoveLineProcedure:   connect.NewUnaryHandler(BillServiceRemoveLineProcedure, svc.RemoveLine, opts...),
		BillServiceClearAllProcedure:     connect.NewUnaryHandler(BillServiceClearAllProcedure, svc.ClearAll, opts...),
		BillServiceSaveBillProcedure:     connect.NewUnaryHandler(BillServiceSaveBillProcedure, svc.SaveBill, opts...),
		BillServiceWatchMiniProcedure:    connect.NewServerStreamHandler(BillServiceWatchMiniProcedure, svc.WatchMini, opts...),
	}
}

// NewHistoryServiceHandler builds an HTTP handler for svc.
func NewHistoryServiceHandler(svc HistoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(HistoryServiceName), serviceMux{
		HistoryServiceListBillsProcedure:  connect.NewUnaryHandler(HistoryServiceListBillsProcedure, svc.ListBills, opts...),
		HistoryServiceGetBillProcedure:    connect.NewUnaryHandler(HistoryServiceGetBillProcedure, svc.GetBill, opts...),
		HistoryServiceRenameBillProcedure: connect.NewUnaryHandler(HistoryServiceRenameBillProcedure, svc.RenameBill, opts...),
		HistoryServiceDeleteBillProcedure: connect.NewUnaryHandler(HistoryServiceDeleteBillProcedure, svc.DeleteBill, opts...),
		HistoryServiceExportBillProcedure: connect.NewUnaryHandler(HistoryServiceExportBillProcedure, svc.ExportBill, opts...),
	}
}

// NewCatalogServiceHandler builds an HTTP handler for svc.
func NewCatalogServiceHandler(svc CatalogServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(CatalogServiceName), serviceMux{
		CatalogServiceListItemsProcedure:   connect.NewUnaryHandler(CatalogServiceListItemsProcedure, svc.ListItems, opts...),
		CatalogServiceSearchItemsProcedure: connect.NewUnaryHandler(CatalogServiceSearchItemsProcedure, svc.SearchItems, opts...),
		CatalogServiceCreateItemProcedure:  connect.NewUnaryHandler(CatalogServiceCreateItemProcedure, svc.CreateItem, opts...),
		CatalogServiceUpdateItemProcedure:  connect.NewUnaryHandler(CatalogServiceUpdateItemProcedure, svc.UpdateItem, opts...),
		CatalogServiceDeleteItemProcedure:  connect.NewUnaryHandler(CatalogServiceDeleteItemProcedure, svc.DeleteItem, opts...),
		CatalogServiceCycleNameProcedure:   connect.NewUnaryHandler(CatalogServiceCycleNameProcedure, svc.CycleName, opts...),
		CatalogServiceGetPresetsProcedure:  connect.NewUnaryHandler(CatalogServiceGetPresetsProcedure, svc.GetPresets, opts...),
		CatalogServiceListRecentProcedure:  connect.NewUnaryHandler(CatalogServiceListRecentProcedure, svc.ListRecent, opts...),
	}
}

// NewSettingsServiceHandler builds an HTTP handler for svc.
func NewSettingsServiceHandler(svc SettingsServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(SettingsServiceName), serviceMux{
		SettingsServiceGetSettingsProcedure:    connect.NewUnaryHandler(SettingsServiceGetSettingsProcedure, svc.GetSettings, opts...),
		SettingsServiceUpdateSettingsProcedure: connect.NewUnaryHandler(SettingsServiceUpdateSettingsProcedure, svc.UpdateSettings, opts...),
		SettingsServiceGetThemeProcedure:       connect.NewUnaryHandler(SettingsServiceGetThemeProcedure, svc.GetTheme, opts...),
		SettingsServiceToggleThemeProcedure:    connect.NewUnaryHandler(SettingsServiceToggleThemeProcedure, svc.ToggleTheme, opts...),
	}
}

// NewLockServiceHandler builds an HTTP handler for svc.
func NewLockServiceHandler(svc LockServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(LockServiceName), serviceMux{
		LockServiceUnlockProcedure:      connect.NewUnaryHandler(LockServiceUnlockProcedure, svc.Unlock, opts...),
		LockServiceSetPasscodeProcedure: connect.NewUnaryHandler(LockServiceSetPasscodeProcedure, svc.SetPasscode, opts...),
		LockServiceStatusProcedure:      connect.NewUnaryHandler(LockServiceStatusProcedure, svc.Status, opts...),
	}
}

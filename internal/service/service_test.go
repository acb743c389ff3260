package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/auth"
	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/history"
	"github.com/mmynk/weighbill/internal/metrics"
	"github.com/mmynk/weighbill/internal/middleware"
	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/settings"
	"github.com/mmynk/weighbill/internal/storage/sqlite"
)

type testServer struct {
	URL      string
	Bill     *apiconnect.BillServiceClient
	History  *apiconnect.HistoryServiceClient
	Catalog  *apiconnect.CatalogServiceClient
	Settings *apiconnect.SettingsServiceClient
	Lock     *apiconnect.LockServiceClient
}

// setupTestServer serves every service from a SQLite database in a temp dir.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	acc := calculator.NewAccumulator(store)
	cat := catalog.New(store, nil)
	prefs := settings.New(store, nil)
	book := history.NewBook(acc)
	gate := auth.NewGate(
		auth.NewPasscodeAuthenticator(store),
		auth.NewJWTManager("test-secret", time.Hour),
		auth.NewAttemptLimiter(nil, 3),
	)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(metrics.New(prometheus.NewRegistry())),
		middleware.RequireUnlock(gate, LockExemptProcedures...),
		middleware.LoggingInterceptor(),
	)

	r := chi.NewRouter()
	r.Route("/export", func(r chi.Router) {
		r.Use(middleware.RequireUnlockHTTP(gate))
		NewExportHandler(book, time.UTC).Routes(r)
	})
	for _, mount := range []func() (string, http.Handler){
		func() (string, http.Handler) {
			return apiconnect.NewBillServiceHandler(NewBillService(acc, cat, prefs), interceptors)
		},
		func() (string, http.Handler) {
			return apiconnect.NewHistoryServiceHandler(NewHistoryService(book), interceptors)
		},
		func() (string, http.Handler) {
			return apiconnect.NewCatalogServiceHandler(NewCatalogService(cat, prefs), interceptors)
		},
		func() (string, http.Handler) {
			return apiconnect.NewSettingsServiceHandler(NewSettingsService(prefs), interceptors)
		},
		func() (string, http.Handler) {
			return apiconnect.NewLockServiceHandler(NewLockService(gate), interceptors)
		},
	} {
		path, handler := mount()
		r.Mount(path, handler)
	}

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		URL:      server.URL,
		Bill:     apiconnect.NewBillServiceClient(http.DefaultClient, server.URL),
		History:  apiconnect.NewHistoryServiceClient(http.DefaultClient, server.URL),
		Catalog:  apiconnect.NewCatalogServiceClient(http.DefaultClient, server.URL),
		Settings: apiconnect.NewSettingsServiceClient(http.DefaultClient, server.URL),
		Lock:     apiconnect.NewLockServiceClient(http.DefaultClient, server.URL),
	}
}

func grams(v float64) *float64 { return &v }

func TestBillService_CalculatorFlow(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	mini, err := ts.Bill.SetMini.CallUnary(ctx, connect.NewRequest(&api.SetMiniRequest{Amount: "12.95"}))
	require.NoError(t, err)
	assert.Equal(t, int64(13), mini.Msg.Mini)
	assert.Equal(t, "₹13.00", mini.Msg.Formatted)

	mini, err = ts.Bill.AddToMini.CallUnary(ctx, connect.NewRequest(&api.AddToMiniRequest{Delta: "0,5"}))
	require.NoError(t, err)
	assert.Equal(t, int64(13), mini.Msg.Mini, "13.5 rounds down")

	committed, err := ts.Bill.CommitMini.CallUnary(ctx, connect.NewRequest(&api.CommitMiniRequest{
		ItemName: "Tomato",
		Grams:    grams(500),
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(13), committed.Msg.Line.LineTotal)
	assert.Equal(t, int64(0), committed.Msg.Bill.Mini)

	committed, err = ts.Bill.CommitLine.CallUnary(ctx, connect.NewRequest(&api.CommitLineRequest{Price: "45.90"}))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultItemName, committed.Msg.Line.ItemName)
	assert.Equal(t, int64(46), committed.Msg.Line.LineTotal)
	assert.Equal(t, int64(59), committed.Msg.Bill.Total)
	assert.Equal(t, "₹59.00", committed.Msg.Bill.FormattedTotal)

	removed, err := ts.Bill.RemoveLine.CallUnary(ctx, connect.NewRequest(&api.RemoveLineRequest{Index: 5}))
	require.NoError(t, err)
	assert.False(t, removed.Msg.Removed)
	assert.Len(t, removed.Msg.Bill.Lines, 2)

	saved, err := ts.Bill.SaveBill.CallUnary(ctx, connect.NewRequest(&api.SaveBillRequest{}))
	require.NoError(t, err)
	assert.Equal(t, int64(59), saved.Msg.Receipt.Total)
	assert.NotEmpty(t, saved.Msg.Receipt.ID)

	bill, err := ts.Bill.GetBill.CallUnary(ctx, connect.NewRequest(&api.GetBillRequest{}))
	require.NoError(t, err)
	assert.Empty(t, bill.Msg.Bill.Lines)
	assert.Equal(t, int64(0), bill.Msg.Bill.Total)
}

func TestBillService_EmptyOperationsFail(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	_, err := ts.Bill.SaveBill.CallUnary(ctx, connect.NewRequest(&api.SaveBillRequest{}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = ts.Bill.CommitMini.CallUnary(ctx, connect.NewRequest(&api.CommitMiniRequest{}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestBillService_MiniOperations(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	mini, err := ts.Bill.MultiplyMini.CallUnary(ctx, connect.NewRequest(&api.MultiplyMiniRequest{Base: "12.5", Multiplier: "3"}))
	require.NoError(t, err)
	assert.Equal(t, int64(37), mini.Msg.Mini)

	mini, err = ts.Bill.SetMini.CallUnary(ctx, connect.NewRequest(&api.SetMiniRequest{Amount: "-5"}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), mini.Msg.Mini)

	mini, err = ts.Bill.AddPreset.CallUnary(ctx, connect.NewRequest(&api.AddPresetRequest{PricePerKg: "120", Grams: 250}))
	require.NoError(t, err)
	assert.Equal(t, int64(30), mini.Msg.Mini)

	item, err := ts.Catalog.CreateItem.CallUnary(ctx, connect.NewRequest(&api.CreateItemRequest{Item: catalog.ItemInput{
		Name1: "Onion", Name2: "Pyaz", Name3: "ONI", SellPrice: 40,
	}}))
	require.NoError(t, err)

	mini, err = ts.Bill.AddPreset.CallUnary(ctx, connect.NewRequest(&api.AddPresetRequest{ItemID: item.Msg.Item.ID, Grams: 500}))
	require.NoError(t, err)
	assert.Equal(t, int64(50), mini.Msg.Mini)

	_, err = ts.Bill.AddPreset.CallUnary(ctx, connect.NewRequest(&api.AddPresetRequest{ItemID: "missing", Grams: 500}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	mini, err = ts.Bill.ClearMini.CallUnary(ctx, connect.NewRequest(&api.ClearMiniRequest{}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), mini.Msg.Mini)
}

func TestBillService_WatchMini(t *testing.T) {
	ts := setupTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := ts.Bill.WatchMini.CallServerStream(ctx, connect.NewRequest(&api.WatchMiniRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial value: %v", stream.Err())
	assert.Equal(t, int64(0), stream.Msg().Mini)

	_, err = ts.Bill.SetMini.CallUnary(ctx, connect.NewRequest(&api.SetMiniRequest{Amount: "25"}))
	require.NoError(t, err)

	require.True(t, stream.Receive(), "update: %v", stream.Err())
	assert.Equal(t, int64(25), stream.Msg().Mini)
	assert.Equal(t, "₹25.00", stream.Msg().Formatted)
}

func TestHistoryService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	var ids []string
	for _, price := range []string{"10", "20"} {
		_, err := ts.Bill.CommitLine.CallUnary(ctx, connect.NewRequest(&api.CommitLineRequest{ItemName: "Rice", Price: price}))
		require.NoError(t, err)
		saved, err := ts.Bill.SaveBill.CallUnary(ctx, connect.NewRequest(&api.SaveBillRequest{}))
		require.NoError(t, err)
		ids = append(ids, saved.Msg.Receipt.ID)
	}

	t.Run("ListBills returns most recent first", func(t *testing.T) {
		list, err := ts.History.ListBills.CallUnary(ctx, connect.NewRequest(&api.ListBillsRequest{}))
		require.NoError(t, err)
		require.Len(t, list.Msg.Bills, 2)
		assert.Equal(t, ids[1], list.Msg.Bills[0].Receipt.ID)
		assert.Equal(t, "Bill 1", list.Msg.Bills[0].Label)
	})

	t.Run("RenameBill trims the name", func(t *testing.T) {
		renamed, err := ts.History.RenameBill.CallUnary(ctx, connect.NewRequest(&api.RenameBillRequest{ID: ids[0], Name: "  Table 4 "}))
		require.NoError(t, err)
		assert.Equal(t, "Table 4", renamed.Msg.Bill.Label)

		got, err := ts.History.GetBill.CallUnary(ctx, connect.NewRequest(&api.GetSavedBillRequest{ID: ids[0]}))
		require.NoError(t, err)
		assert.Equal(t, "Table 4", got.Msg.Bill.Receipt.Name)
	})

	t.Run("ExportBill names the document after the bill", func(t *testing.T) {
		exported, err := ts.History.ExportBill.CallUnary(ctx, connect.NewRequest(&api.ExportBillRequest{ID: ids[0]}))
		require.NoError(t, err)
		assert.Equal(t, "Table_4.json", exported.Msg.FileName)

		var receipt models.Receipt
		require.NoError(t, json.Unmarshal([]byte(exported.Msg.Document), &receipt))
		assert.Equal(t, int64(10), receipt.Total)
	})

	t.Run("DeleteBill removes it", func(t *testing.T) {
		_, err := ts.History.DeleteBill.CallUnary(ctx, connect.NewRequest(&api.DeleteBillRequest{ID: ids[0]}))
		require.NoError(t, err)

		_, err = ts.History.GetBill.CallUnary(ctx, connect.NewRequest(&api.GetSavedBillRequest{ID: ids[0]}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

		_, err = ts.History.DeleteBill.CallUnary(ctx, connect.NewRequest(&api.DeleteBillRequest{ID: ids[0]}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestCatalogService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	_, err := ts.Catalog.CreateItem.CallUnary(ctx, connect.NewRequest(&api.CreateItemRequest{Item: catalog.ItemInput{Name1: "Potato"}}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	created, err := ts.Catalog.CreateItem.CallUnary(ctx, connect.NewRequest(&api.CreateItemRequest{Item: catalog.ItemInput{
		Name1: "Potato", Name2: "Aloo", Name3: "POT", SellPrice: 30.456,
	}}))
	require.NoError(t, err)
	id := created.Msg.Item.ID
	assert.Equal(t, "Potato", created.Msg.DisplayName)
	assert.Equal(t, 30.46, created.Msg.Item.SellPrice)

	cycled, err := ts.Catalog.CycleName.CallUnary(ctx, connect.NewRequest(&api.CycleNameRequest{ID: id}))
	require.NoError(t, err)
	assert.Equal(t, "Aloo", cycled.Msg.DisplayName)

	found, err := ts.Catalog.SearchItems.CallUnary(ctx, connect.NewRequest(&api.SearchItemsRequest{Query: "aloo"}))
	require.NoError(t, err)
	require.Len(t, found.Msg.Items, 1)

	presets, err := ts.Catalog.GetPresets.CallUnary(ctx, connect.NewRequest(&api.GetPresetsRequest{ID: id}))
	require.NoError(t, err)
	require.Len(t, presets.Msg.Presets, len(models.DefaultSettings().DefaultWeights))
	last := presets.Msg.Presets[len(presets.Msg.Presets)-1]
	assert.Equal(t, "1kg", last.Label)
	assert.Equal(t, int64(30), last.Amount)

	recent, err := ts.Catalog.ListRecent.CallUnary(ctx, connect.NewRequest(&api.ListRecentRequest{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"aloo"}, recent.Msg.Searches)
	require.Len(t, recent.Msg.Items, 1)
	assert.Equal(t, id, recent.Msg.Items[0].ID)

	updated, err := ts.Catalog.UpdateItem.CallUnary(ctx, connect.NewRequest(&api.UpdateItemRequest{ID: id, Item: catalog.ItemInput{
		Name1: "Potato", Name2: "Aloo", Name3: "POT", SellPrice: 32, Weights: []float64{250},
	}}))
	require.NoError(t, err)
	assert.Equal(t, []float64{250}, updated.Msg.Item.Presets.Weight)

	_, err = ts.Catalog.DeleteItem.CallUnary(ctx, connect.NewRequest(&api.DeleteItemRequest{ID: id}))
	require.NoError(t, err)

	list, err := ts.Catalog.ListItems.CallUnary(ctx, connect.NewRequest(&api.ListItemsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Items)
}

func TestSettingsService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	got, err := ts.Settings.GetSettings.CallUnary(ctx, connect.NewRequest(&api.GetSettingsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got.Msg.Settings)

	_, err = ts.Settings.UpdateSettings.CallUnary(ctx, connect.NewRequest(&api.UpdateSettingsRequest{Settings: models.Settings{}}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = ts.Settings.UpdateSettings.CallUnary(ctx, connect.NewRequest(&api.UpdateSettingsRequest{Settings: models.Settings{
		CurrencySymbol: "$",
		DefaultWeights: []float64{100},
	}}))
	require.NoError(t, err)

	mini, err := ts.Bill.SetMini.CallUnary(ctx, connect.NewRequest(&api.SetMiniRequest{Amount: "7"}))
	require.NoError(t, err)
	assert.Equal(t, "$7.00", mini.Msg.Formatted)

	theme, err := ts.Settings.GetTheme.CallUnary(ctx, connect.NewRequest(&api.GetThemeRequest{}))
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme.Msg.Theme)

	theme, err = ts.Settings.ToggleTheme.CallUnary(ctx, connect.NewRequest(&api.ToggleThemeRequest{}))
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, theme.Msg.Theme)
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestLockService(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	status, err := ts.Lock.Status.CallUnary(ctx, connect.NewRequest(&api.LockStatusRequest{}))
	require.NoError(t, err)
	assert.False(t, status.Msg.Enabled)
	assert.True(t, status.Msg.Unlocked)

	_, err = ts.Lock.SetPasscode.CallUnary(ctx, connect.NewRequest(&api.SetPasscodeRequest{Next: "12"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	set, err := ts.Lock.SetPasscode.CallUnary(ctx, connect.NewRequest(&api.SetPasscodeRequest{Next: "2468"}))
	require.NoError(t, err)
	require.True(t, set.Msg.Enabled)
	token := set.Msg.Token

	t.Run("locked till rejects calls without a token", func(t *testing.T) {
		_, err := ts.Bill.GetBill.CallUnary(ctx, connect.NewRequest(&api.GetBillRequest{}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

		_, err = ts.Bill.GetBill.CallUnary(ctx, withToken(&api.GetBillRequest{}, token))
		assert.NoError(t, err)
	})

	t.Run("Unlock checks the passcode", func(t *testing.T) {
		_, err := ts.Lock.Unlock.CallUnary(ctx, connect.NewRequest(&api.UnlockRequest{Passcode: "0000"}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

		session, err := ts.Lock.Unlock.CallUnary(ctx, connect.NewRequest(&api.UnlockRequest{Passcode: "2468"}))
		require.NoError(t, err)
		assert.Greater(t, session.Msg.ExpiresAt, time.Now().UnixMilli())

		status, err := ts.Lock.Status.CallUnary(ctx, withToken(&api.LockStatusRequest{}, session.Msg.Token))
		require.NoError(t, err)
		assert.True(t, status.Msg.Enabled)
		assert.True(t, status.Msg.Unlocked)
	})

	t.Run("downloads honour the lock", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/export/history.xlsx")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, err = http.Get(ts.URL + "/export/history.xlsx?token=" + token)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("removing the passcode reopens the till", func(t *testing.T) {
		removed, err := ts.Lock.SetPasscode.CallUnary(ctx, withToken(&api.SetPasscodeRequest{Current: "2468"}, token))
		require.NoError(t, err)
		assert.False(t, removed.Msg.Enabled)

		_, err = ts.Bill.GetBill.CallUnary(ctx, connect.NewRequest(&api.GetBillRequest{}))
		assert.NoError(t, err)
	})
}

func TestExportHandler(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	_, err := ts.Bill.CommitLine.CallUnary(ctx, connect.NewRequest(&api.CommitLineRequest{ItemName: "Garlic", Grams: grams(100), Price: "18.9"}))
	require.NoError(t, err)
	saved, err := ts.Bill.SaveBill.CallUnary(ctx, connect.NewRequest(&api.SaveBillRequest{}))
	require.NoError(t, err)
	id := saved.Msg.Receipt.ID

	t.Run("JSON download", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/export/bills/" + id + ".json")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="bill.json"`, resp.Header.Get("Content-Disposition"))

		var receipt models.Receipt
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
		assert.Equal(t, int64(19), receipt.Total)
	})

	t.Run("XLSX download", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/export/bills/" + id + ".xlsx")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		f, err := excelize.OpenReader(bytes.NewReader(body))
		require.NoError(t, err)
		defer f.Close()

		item, err := f.GetCellValue("Bill", "A5")
		require.NoError(t, err)
		assert.Equal(t, "Garlic", item)
	})

	t.Run("unknown bill", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/export/bills/nope.json")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

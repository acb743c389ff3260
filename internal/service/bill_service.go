package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/catalog"
	"github.com/mmynk/weighbill/internal/middleware"
	"github.com/mmynk/weighbill/internal/settings"
)

// Ensure BillService implements the handler interface
var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// BillService implements the Connect BillService on top of the accumulator.
type BillService struct {
	acc      *calculator.Accumulator
	catalog  *catalog.Catalog
	settings *settings.Service
}

// NewBillService creates a new BillService.
func NewBillService(acc *calculator.Accumulator, cat *catalog.Catalog, prefs *settings.Service) *BillService {
	return &BillService{acc: acc, catalog: cat, settings: prefs}
}

func (s *BillService) symbol(ctx context.Context) string {
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		slog.Warn("Falling back to default currency symbol", "error", err)
		return calculator.DefaultCurrencySymbol
	}
	return prefs.CurrencySymbol
}

func (s *BillService) view(ctx context.Context) api.BillView {
	bill := s.acc.Snapshot()
	return api.BillView{
		Lines:          bill.Lines,
		Total:          bill.Total,
		FormattedTotal: calculator.FormatAmountWith(s.symbol(ctx), float64(bill.Total)),
		Mini:           s.acc.Mini(),
	}
}

func (s *BillService) mini(ctx context.Context, v int64) *connect.Response[api.MiniResponse] {
	return connect.NewResponse(&api.MiniResponse{
		Mini:      v,
		Formatted: calculator.FormatAmountWith(s.symbol(ctx), float64(v)),
	})
}

// GetBill returns the working bill and the mini value.
func (s *BillService) GetBill(ctx context.Context, _ *connect.Request[api.GetBillRequest]) (*connect.Response[api.BillResponse], error) {
	return connect.NewResponse(&api.BillResponse{Bill: s.view(ctx)}), nil
}

// SetMini replaces the mini value.
func (s *BillService) SetMini(ctx context.Context, req *connect.Request[api.SetMiniRequest]) (*connect.Response[api.MiniResponse], error) {
	return s.mini(ctx, s.acc.SetMini(calculator.ParseAmount(req.Msg.Amount))), nil
}

// AddToMini adds a delta to the mini value.
func (s *BillService) AddToMini(ctx context.Context, req *connect.Request[api.AddToMiniRequest]) (*connect.Response[api.MiniResponse], error) {
	return s.mini(ctx, s.acc.AddToMini(calculator.ParseAmount(req.Msg.Delta))), nil
}

// MultiplyMini sets the mini value to base times multiplier.
func (s *BillService) MultiplyMini(ctx context.Context, req *connect.Request[api.MultiplyMiniRequest]) (*connect.Response[api.MiniResponse], error) {
	base := calculator.ParseAmount(req.Msg.Base)
	multiplier := calculator.ParseAmount(req.Msg.Multiplier)
	return s.mini(ctx, s.acc.MultiplyMini(base, multiplier)), nil
}

// ClearMini resets the mini value.
func (s *BillService) ClearMini(ctx context.Context, _ *connect.Request[api.ClearMiniRequest]) (*connect.Response[api.MiniResponse], error) {
	return s.mini(ctx, s.acc.ClearMini()), nil
}

// AddPreset adds the price of a weight chip to the mini value.
func (s *BillService) AddPreset(ctx context.Context, req *connect.Request[api.AddPresetRequest]) (*connect.Response[api.MiniResponse], error) {
	pricePerKg := calculator.ParseAmount(req.Msg.PricePerKg)
	if req.Msg.ItemID != "" {
		item, err := s.catalog.Get(ctx, req.Msg.ItemID)
		if err != nil {
			return nil, toConnectError("AddPreset", err)
		}
		pricePerKg = item.SellPrice
	}
	return s.mini(ctx, s.acc.AddPreset(pricePerKg, req.Msg.Grams)), nil
}

// CommitLine appends a line to the working bill.
func (s *BillService) CommitLine(ctx context.Context, req *connect.Request[api.CommitLineRequest]) (*connect.Response[api.CommitLineResponse], error) {
	in := calculator.LineInput{ItemName: req.Msg.ItemName, Grams: req.Msg.Grams}
	if req.Msg.Price != "" {
		price := calculator.ParseAmount(req.Msg.Price)
		in.Price = &price
	}
	line := s.acc.CommitLine(ctx, in)
	slog.Info("Committed line",
		"session_id", middleware.GetSessionID(ctx),
		"item", line.ItemName,
		"line_total", line.LineTotal,
	)
	return connect.NewResponse(&api.CommitLineResponse{Line: line, Bill: s.view(ctx)}), nil
}

// CommitMini appends the mini value as a line and clears it.
func (s *BillService) CommitMini(ctx context.Context, req *connect.Request[api.CommitMiniRequest]) (*connect.Response[api.CommitLineResponse], error) {
	line, err := s.acc.CommitMini(ctx, req.Msg.ItemName, req.Msg.Grams)
	if err != nil {
		return nil, toConnectError("CommitMini", err)
	}
	return connect.NewResponse(&api.CommitLineResponse{Line: line, Bill: s.view(ctx)}), nil
}

// RemoveLine deletes the line at the given index. Out-of-range indices are
// reported through Removed, not as an error.
func (s *BillService) RemoveLine(ctx context.Context, req *connect.Request[api.RemoveLineRequest]) (*connect.Response[api.RemoveLineResponse], error) {
	removed := s.acc.RemoveLine(ctx, req.Msg.Index)
	return connect.NewResponse(&api.RemoveLineResponse{Removed: removed, Bill: s.view(ctx)}), nil
}

// ClearAll empties the working bill.
func (s *BillService) ClearAll(ctx context.Context, _ *connect.Request[api.ClearAllRequest]) (*connect.Response[api.BillResponse], error) {
	s.acc.ClearAll(ctx)
	return connect.NewResponse(&api.BillResponse{Bill: s.view(ctx)}), nil
}

// SaveBill snapshots the working bill into the history and clears it.
func (s *BillService) SaveBill(ctx context.Context, _ *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	receipt, err := s.acc.SaveBill(ctx)
	if err != nil {
		return nil, toConnectError("SaveBill", err)
	}
	slog.Info("Saved bill", "bill_id", receipt.ID, "total", receipt.Total, "lines", len(receipt.Lines))
	return connect.NewResponse(&api.SaveBillResponse{Receipt: *receipt}), nil
}

// WatchMini streams the mini value: the current value first, then every
// change until the client goes away.
func (s *BillService) WatchMini(ctx context.Context, _ *connect.Request[api.WatchMiniRequest], stream *connect.ServerStream[api.MiniResponse]) error {
	updates := make(chan int64, 16)
	unsubscribe := s.acc.SubscribeMini(func(mini int64) {
		// A slow client loses the oldest buffered value, never the newest.
		for {
			select {
			case updates <- mini:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	symbol := s.symbol(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case mini := <-updates:
			err := stream.Send(&api.MiniResponse{
				Mini:      mini,
				Formatted: calculator.FormatAmountWith(symbol, float64(mini)),
			})
			if err != nil {
				return err
			}
		}
	}
}

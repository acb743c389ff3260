package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/history"
)

// Ensure HistoryService implements the handler interface
var _ apiconnect.HistoryServiceHandler = (*HistoryService)(nil)

// HistoryService implements the Connect HistoryService.
type HistoryService struct {
	book *history.Book
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(book *history.Book) *HistoryService {
	return &HistoryService{book: book}
}

// ListBills returns saved receipts, most recent first.
func (s *HistoryService) ListBills(ctx context.Context, _ *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	entries, err := s.book.List(ctx)
	if err != nil {
		return nil, toConnectError("ListBills", err)
	}
	return connect.NewResponse(&api.ListBillsResponse{Bills: entries}), nil
}

// GetBill returns one saved receipt.
func (s *HistoryService) GetBill(ctx context.Context, req *connect.Request[api.GetSavedBillRequest]) (*connect.Response[api.SavedBillResponse], error) {
	entry, err := s.book.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetBill", err)
	}
	return connect.NewResponse(&api.SavedBillResponse{Bill: *entry}), nil
}

// RenameBill sets or clears the name of a saved receipt.
func (s *HistoryService) RenameBill(ctx context.Context, req *connect.Request[api.RenameBillRequest]) (*connect.Response[api.SavedBillResponse], error) {
	entry, err := s.book.Rename(ctx, req.Msg.ID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError("RenameBill", err)
	}
	slog.Info("Renamed bill", "bill_id", req.Msg.ID, "label", entry.Label)
	return connect.NewResponse(&api.SavedBillResponse{Bill: *entry}), nil
}

// DeleteBill removes a saved receipt.
func (s *HistoryService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	if err := s.book.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteBill", err)
	}
	slog.Info("Deleted bill", "bill_id", req.Msg.ID)
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// ExportBill returns the receipt as an indented JSON document.
func (s *HistoryService) ExportBill(ctx context.Context, req *connect.Request[api.ExportBillRequest]) (*connect.Response[api.ExportBillResponse], error) {
	entry, err := s.book.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("ExportBill", err)
	}
	doc, err := history.ExportJSON(entry.Receipt)
	if err != nil {
		return nil, toConnectError("ExportBill", err)
	}
	return connect.NewResponse(&api.ExportBillResponse{
		FileName: history.FileName(entry.Receipt, ".json"),
		Document: string(doc),
	}), nil
}

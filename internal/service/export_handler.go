package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/weighbill/internal/history"
	"github.com/mmynk/weighbill/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves bill downloads over plain HTTP.
type ExportHandler struct {
	book *history.Book
	loc  *time.Location
}

// NewExportHandler creates an ExportHandler. Dates in workbooks are rendered
// in loc.
func NewExportHandler(book *history.Book, loc *time.Location) *ExportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExportHandler{book: book, loc: loc}
}

// Routes mounts the download endpoints on r.
func (h *ExportHandler) Routes(r chi.Router) {
	r.Get("/bills/{id}.json", h.billJSON)
	r.Get("/bills/{id}.xlsx", h.billXLSX)
	r.Get("/history.xlsx", h.historyXLSX)
}

func (h *ExportHandler) billJSON(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.receipt(w, r)
	if !ok {
		return
	}
	data, err := history.ExportJSON(receipt)
	if err != nil {
		h.fail(w, "export bill", err)
		return
	}
	writeDownload(w, "application/json", history.FileName(receipt, ".json"), data)
}

func (h *ExportHandler) billXLSX(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.receipt(w, r)
	if !ok {
		return
	}
	data, err := history.ReceiptXLSX(receipt, h.loc)
	if err != nil {
		h.fail(w, "export bill", err)
		return
	}
	writeDownload(w, xlsxContentType, history.FileName(receipt, ".xlsx"), data)
}

func (h *ExportHandler) historyXLSX(w http.ResponseWriter, r *http.Request) {
	entries, err := h.book.List(r.Context())
	if err != nil {
		h.fail(w, "export history", err)
		return
	}
	receipts := make([]models.Receipt, len(entries))
	for i, e := range entries {
		receipts[i] = e.Receipt
	}
	data, err := history.HistoryXLSX(receipts, h.loc)
	if err != nil {
		h.fail(w, "export history", err)
		return
	}
	writeDownload(w, xlsxContentType, "history.xlsx", data)
}

func (h *ExportHandler) receipt(w http.ResponseWriter, r *http.Request) (models.Receipt, bool) {
	entry, err := h.book.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, "bill not found", http.StatusNotFound)
		return models.Receipt{}, false
	}
	if err != nil {
		h.fail(w, "load bill", err)
		return models.Receipt{}, false
	}
	return entry.Receipt, true
}

func (h *ExportHandler) fail(w http.ResponseWriter, op string, err error) {
	slog.Error("Failed to "+op, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeDownload(w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Warn("Failed to write download", "file", fileName, "error", err)
	}
}

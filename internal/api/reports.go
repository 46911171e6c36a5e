package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pharmamind/m/internal/report"
	"pharmamind/m/internal/store"
)

// maxBackupSize bounds a restore upload.
const maxBackupSize = 64 << 20

func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.opts.ReportLocation)
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondError(w, http.StatusBadRequest, "year must be a positive integer")
			return
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			respondError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		month = time.Month(v)
	}

	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list invoices")
		return
	}
	respondJSON(w, http.StatusOK, report.Monthly(invoices, year, month, h.opts.ReportLocation))
}

func (h *Handler) extraDiscountReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := report.ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list invoices")
		return
	}
	respondJSON(w, http.StatusOK, report.ExtraDiscounts(invoices, rng, q.Get("supplier_id"), h.opts.ReportLocation))
}

func (h *Handler) backup(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.Backup(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to create backup")
		return
	}
	name := fmt.Sprintf("pharmamind-backup-%s.json", time.Now().In(h.opts.ReportLocation).Format(report.DayLayout))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupSize))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"restored": false, "error": err.Error()})
		return
	}

	h.invoiceMu.Lock()
	defer h.invoiceMu.Unlock()

	if err := h.store.Restore(r.Context(), data); err != nil {
		if errors.Is(err, store.ErrInvalidBackup) {
			respondJSON(w, http.StatusBadRequest, map[string]any{"restored": false, "error": err.Error()})
			return
		}
		slog.Error("unable to restore backup", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"restored": false, "error": "unable to restore backup"})
		return
	}
	if err := h.reindex(r); err != nil {
		respondStoreError(w, err, "unable to rebuild purchase history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"restored": true})
}

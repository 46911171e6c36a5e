package api

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pharmamind/m/domain"
	"pharmamind/m/internal/ledger"
	"pharmamind/m/internal/report"
)

type partyRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func decodeParty(w http.ResponseWriter, r *http.Request) (partyRequest, bool) {
	var req partyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	return req, true
}

// Supplier handlers

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.store.ListSuppliers(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list suppliers")
		return
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParty(w, r)
	if !ok {
		return
	}
	sup, err := h.store.SaveSupplier(r.Context(), domain.Supplier{Name: req.Name, Phone: req.Phone, Notes: req.Notes})
	if err != nil {
		respondStoreError(w, err, "unable to create supplier")
		return
	}
	respondJSON(w, http.StatusCreated, sup)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParty(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetSupplier(r.Context(), id); err != nil {
		respondStoreError(w, err, "unable to load supplier")
		return
	}
	sup, err := h.store.SaveSupplier(r.Context(), domain.Supplier{ID: id, Name: req.Name, Phone: req.Phone, Notes: req.Notes})
	if err != nil {
		respondStoreError(w, err, "unable to update supplier")
		return
	}
	respondJSON(w, http.StatusOK, sup)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "unable to delete supplier")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) supplierStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rng, err := report.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.store.GetSupplier(r.Context(), id); err != nil {
		respondStoreError(w, err, "unable to load supplier")
		return
	}
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list invoices")
		return
	}
	respondJSON(w, http.StatusOK, report.Statement(invoices, id, rng, h.opts.ReportLocation))
}

// Client handlers

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list clients")
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParty(w, r)
	if !ok {
		return
	}
	c, err := h.store.SaveClient(r.Context(), domain.Client{Name: req.Name, Phone: req.Phone, Notes: req.Notes})
	if err != nil {
		respondStoreError(w, err, "unable to create client")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParty(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetClient(r.Context(), id); err != nil {
		respondStoreError(w, err, "unable to load client")
		return
	}
	c, err := h.store.SaveClient(r.Context(), domain.Client{ID: id, Name: req.Name, Phone: req.Phone, Notes: req.Notes})
	if err != nil {
		respondStoreError(w, err, "unable to update client")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "unable to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clientTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetClient(r.Context(), id); err != nil {
		respondStoreError(w, err, "unable to load client")
		return
	}
	txs, err := h.store.ListTransactions(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	var req ledger.Payment
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipt, err := h.ledger.Pay(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondStoreError(w, err, "unable to record payment")
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

type reconciliation struct {
	ClientID      string  `json:"client_id"`
	Balance       float64 `json:"balance"`
	LedgerBalance float64 `json:"ledger_balance"`
	Consistent    bool    `json:"consistent"`
}

// balanceTolerance absorbs float drift between the running balance and a fresh SUM.
const balanceTolerance = 0.005

func (h *Handler) reconcileClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.store.GetClient(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "unable to load client")
		return
	}
	sum, err := h.store.RecomputeBalance(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "unable to recompute balance")
		return
	}
	respondJSON(w, http.StatusOK, reconciliation{
		ClientID:      id,
		Balance:       c.Balance,
		LedgerBalance: sum,
		Consistent:    math.Abs(c.Balance-sum) < balanceTolerance,
	})
}

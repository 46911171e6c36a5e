package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pharmamind/m/domain"
	"pharmamind/m/internal/ledger"
	"pharmamind/m/internal/pricing"
	"pharmamind/m/internal/store"
)

// Settings handlers

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func validateSettings(s domain.Settings) error {
	for _, pct := range []float64{s.DiscountNormal, s.DiscountSpecial, s.DiscountOther} {
		if pct < 0 || pct > 100 {
			return errors.New("discount percentages must be between 0 and 100")
		}
	}
	return nil
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSettings(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SaveSettings(r.Context(), req); err != nil {
		respondStoreError(w, err, "unable to save settings")
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (h *Handler) resetSettings(w http.ResponseWriter, r *http.Request) {
	defaults := domain.DefaultSettings()
	if err := h.store.SaveSettings(r.Context(), defaults); err != nil {
		respondStoreError(w, err, "unable to reset settings")
		return
	}
	respondJSON(w, http.StatusOK, defaults)
}

// Pricing handlers

// validateItem rejects input the engine would accept but the owner cannot have meant.
func validateItem(in *domain.ItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("item name is required")
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%s: unknown category %q", in.Name, in.Category)
	}
	if in.TaxMode == "" {
		in.TaxMode = domain.TaxTotal
	}
	if !in.TaxMode.Valid() {
		return fmt.Errorf("%s: unknown tax mode %q", in.Name, in.TaxMode)
	}
	if in.PharmaPrice <= 0 {
		return fmt.Errorf("%s: pharmacy price must be greater than zero", in.Name)
	}
	if !in.InRange() {
		return fmt.Errorf("%s: quantities, prices, discounts and tax must be between 0 and %g", in.Name, domain.MaxInputValue)
	}
	if in.ID == "" {
		in.ID = store.NewID()
	}
	return nil
}

type calculateRequest struct {
	Items []domain.ItemInput `json:"items"`
}

type calculateResponse struct {
	Items  []domain.CalculatedItem `json:"items"`
	Groups []lineGroup             `json:"groups"`
	Totals domain.DraftTotals      `json:"totals"`
}

// lineGroup is the entry form's per-category section.
type lineGroup struct {
	Category domain.Category         `json:"category"`
	Label    string                  `json:"label"`
	Items    []domain.CalculatedItem `json:"items"`
}

// groupLines orders the draft's categories as domain.Categories does and skips empty ones.
func groupLines(d *domain.Draft) []lineGroup {
	byCategory := d.Grouped()
	groups := []lineGroup{}
	for _, c := range domain.Categories {
		if items := byCategory[c]; len(items) > 0 {
			groups = append(groups, lineGroup{Category: c, Label: c.Label(), Items: items})
		}
	}
	return groups
}

type option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Short string `json:"short,omitempty"`
}

// pricingOptions lists the categories and tax modes an entry form can offer.
func (h *Handler) pricingOptions(w http.ResponseWriter, r *http.Request) {
	categories := make([]option, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = option{Key: string(c), Label: c.Label(), Short: c.Short()}
	}
	taxModes := []option{}
	for _, m := range []domain.TaxMode{domain.TaxTotal, domain.TaxPerUnit} {
		taxModes = append(taxModes, option{Key: string(m), Label: m.Label()})
	}
	respondJSON(w, http.StatusOK, map[string][]option{"categories": categories, "tax_modes": taxModes})
}

var errNotFinite = errors.New("calculated costs are out of range")

// draft calculates every line against the current settings and history.
func (h *Handler) draft(r *http.Request, items []domain.ItemInput) (*domain.Draft, error) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		return nil, err
	}
	d := &domain.Draft{}
	for i := range items {
		item := h.engine.Calculate(items[i], settings)
		if !item.Finite() {
			return nil, fmt.Errorf("%s: %w", item.Name, errNotFinite)
		}
		d.Add(item)
	}
	return d, nil
}

func respondDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotFinite) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondStoreError(w, err, "unable to load settings")
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range req.Items {
		if err := validateItem(&req.Items[i]); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	d, err := h.draft(r, req.Items)
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, calculateResponse{Items: d.Items(), Groups: groupLines(d), Totals: d.Totals()})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	qty, err := floatParam(r, "qty")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bonus, err := floatParam(r, "bonus")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, pricing.LookupFor(h.history, name, qty, bonus))
}

func (h *Handler) itemNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ItemNames(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list item names")
		return
	}
	respondJSON(w, http.StatusOK, names)
}

// Invoice handlers

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		respondStoreError(w, err, "unable to list invoices")
		return
	}
	if supplierID := r.URL.Query().Get("supplier_id"); supplierID != "" {
		filtered := []domain.Invoice{}
		for _, inv := range invoices {
			if inv.SupplierID == supplierID {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}
	respondJSON(w, http.StatusOK, invoices)
}

type invoiceRequest struct {
	InvoiceNumber string             `json:"invoice_number"`
	SupplierID    string             `json:"supplier_id"`
	Items         []domain.ItemInput `json:"items"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, domain.ErrEmptyInvoice.Error())
		return
	}
	if req.SupplierID == "" {
		respondError(w, http.StatusBadRequest, domain.ErrMissingSupplier.Error())
		return
	}
	for i := range req.Items {
		if err := validateItem(&req.Items[i]); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	supplier, err := h.store.GetSupplier(r.Context(), req.SupplierID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusBadRequest, "unknown supplier")
		return
	}
	if err != nil {
		respondStoreError(w, err, "unable to load supplier")
		return
	}

	h.invoiceMu.Lock()
	defer h.invoiceMu.Unlock()

	d, err := h.draft(r, req.Items)
	if err != nil {
		respondDraftError(w, err)
		return
	}
	inv, err := d.Finalize(store.NewID(), strings.TrimSpace(req.InvoiceNumber), supplier, time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SaveInvoice(r.Context(), inv); err != nil {
		respondStoreError(w, err, "unable to save invoice")
		return
	}
	h.history.Prepend(inv)
	respondJSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "unable to load invoice")
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceMu.Lock()
	defer h.invoiceMu.Unlock()

	if err := h.store.DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "unable to delete invoice")
		return
	}
	if err := h.reindex(r); err != nil {
		respondStoreError(w, err, "unable to rebuild purchase history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reindex rebuilds the history index from the store. Callers hold invoiceMu.
func (h *Handler) reindex(r *http.Request) error {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		return err
	}
	h.history.Rebuild(invoices)
	return nil
}

type resellRequest struct {
	ClientID  string                 `json:"client_id"`
	Discounts ledger.ResellDiscounts `json:"discounts"`
}

func (h *Handler) resellInvoice(w http.ResponseWriter, r *http.Request) {
	var req resellRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID == "" {
		respondError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	d := req.Discounts
	for _, pct := range []float64{d.Regular, d.Special, d.Other} {
		if pct < 0 || pct > 100 {
			respondError(w, http.StatusBadRequest, "resale discounts must be between 0 and 100")
			return
		}
	}
	sale, err := h.ledger.Resell(r.Context(), chi.URLParam(r, "id"), req.ClientID, d)
	if err != nil {
		respondStoreError(w, err, "unable to resell invoice")
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

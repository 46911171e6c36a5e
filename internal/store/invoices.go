package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmamind/m/domain"
)

type invoiceRow struct {
	ID             string  `db:"id"`
	Seq            int64   `db:"seq"`
	Date           string  `db:"date"`
	InvoiceNumber  string  `db:"invoice_number"`
	SupplierID     string  `db:"supplier_id"`
	SupplierName   string  `db:"supplier_name"`
	TotalValue     float64 `db:"total_value"`
	TotalItems     int     `db:"total_items"`
	TotalUnits     float64 `db:"total_units"`
	SoldToClientID string  `db:"sold_to_client_id"`
	SoldDate       string  `db:"sold_date"`
}

type itemRow struct {
	InvoiceID             string  `db:"invoice_id"`
	Position              int     `db:"position"`
	ID                    string  `db:"id"`
	Name                  string  `db:"name"`
	Category              string  `db:"category"`
	Qty                   float64 `db:"qty"`
	Bonus                 float64 `db:"bonus"`
	PublicPrice           float64 `db:"public_price"`
	PharmaPrice           float64 `db:"pharma_price"`
	SupplierDiscountVal   float64 `db:"supplier_discount_val"`
	ExtraDiscountPct      float64 `db:"extra_discount_pct"`
	TaxValue              float64 `db:"tax_value"`
	TaxMode               string  `db:"tax_mode"`
	TotalUnits            float64 `db:"total_units"`
	BaseTotal             float64 `db:"base_total"`
	CategoryDiscountValue float64 `db:"category_discount_value"`
	AfterCategoryDiscount float64 `db:"after_category_discount"`
	ExtraDiscountValue    float64 `db:"extra_discount_value"`
	TaxTotal              float64 `db:"tax_total"`
	NetTotalCost          float64 `db:"net_total_cost"`
	NetUnitCost           float64 `db:"net_unit_cost"`
	RealDiscountPct       float64 `db:"real_discount_pct"`
	HistoryVerdict        string  `db:"history_verdict"`
	PriceDifferencePct    float64 `db:"price_difference_pct"`
	SavingsVsHistory      float64 `db:"savings_vs_history"`
	IsFakeDiscount        int     `db:"is_fake_discount"`
}

func toItemRow(invoiceID string, pos int, c domain.CalculatedItem) itemRow {
	row := itemRow{
		InvoiceID:             invoiceID,
		Position:              pos,
		ID:                    c.ID,
		Name:                  c.Name,
		Category:              string(c.Category),
		Qty:                   c.Qty,
		Bonus:                 c.Bonus,
		PublicPrice:           c.PublicPrice,
		PharmaPrice:           c.PharmaPrice,
		SupplierDiscountVal:   c.SupplierDiscountVal,
		ExtraDiscountPct:      c.ExtraDiscountPct,
		TaxValue:              c.TaxValue,
		TaxMode:               string(c.TaxMode),
		TotalUnits:            c.TotalUnits,
		BaseTotal:             c.BaseTotal,
		CategoryDiscountValue: c.CategoryDiscountValue,
		AfterCategoryDiscount: c.AfterCategoryDiscount,
		ExtraDiscountValue:    c.ExtraDiscountValue,
		TaxTotal:              c.TaxTotal,
		NetTotalCost:          c.NetTotalCost,
		NetUnitCost:           c.NetUnitCost,
		RealDiscountPct:       c.RealDiscountPct,
		HistoryVerdict:        string(c.Verdict()),
	}
	if c.Comparison != nil {
		row.PriceDifferencePct = c.Comparison.PriceDifferencePct
		row.SavingsVsHistory = c.Comparison.SavingsVsHistory
	}
	if c.IsFakeDiscount {
		row.IsFakeDiscount = 1
	}
	return row
}

func (r itemRow) item() domain.CalculatedItem {
	c := domain.CalculatedItem{
		ItemInput: domain.ItemInput{
			ID:                  r.ID,
			Name:                r.Name,
			Category:            domain.Category(r.Category),
			Qty:                 r.Qty,
			Bonus:               r.Bonus,
			PublicPrice:         r.PublicPrice,
			PharmaPrice:         r.PharmaPrice,
			SupplierDiscountVal: r.SupplierDiscountVal,
			ExtraDiscountPct:    r.ExtraDiscountPct,
			TaxValue:            r.TaxValue,
			TaxMode:             domain.TaxMode(r.TaxMode),
		},
		TotalUnits:            r.TotalUnits,
		BaseTotal:             r.BaseTotal,
		CategoryDiscountValue: r.CategoryDiscountValue,
		AfterCategoryDiscount: r.AfterCategoryDiscount,
		ExtraDiscountValue:    r.ExtraDiscountValue,
		TaxTotal:              r.TaxTotal,
		NetTotalCost:          r.NetTotalCost,
		NetUnitCost:           r.NetUnitCost,
		RealDiscountPct:       r.RealDiscountPct,
		IsFakeDiscount:        r.IsFakeDiscount != 0,
	}
	if v := domain.Verdict(r.HistoryVerdict); v != domain.VerdictNew && v != "" {
		c.Comparison = &domain.PriceComparison{
			Verdict:            v,
			PriceDifferencePct: r.PriceDifferencePct,
			SavingsVsHistory:   r.SavingsVsHistory,
		}
	}
	return c
}

func (r invoiceRow) invoice(items []domain.CalculatedItem) domain.Invoice {
	if items == nil {
		items = []domain.CalculatedItem{}
	}
	return domain.Invoice{
		ID:             r.ID,
		Date:           r.Date,
		InvoiceNumber:  r.InvoiceNumber,
		SupplierID:     r.SupplierID,
		SupplierName:   r.SupplierName,
		Items:          items,
		TotalValue:     r.TotalValue,
		TotalItems:     r.TotalItems,
		TotalUnits:     r.TotalUnits,
		IsSold:         r.SoldDate != "",
		SoldToClientID: r.SoldToClientID,
		SoldDate:       r.SoldDate,
	}
}

const invoiceColumns = `id, seq, date, invoice_number, supplier_id, supplier_name, total_value, total_items, total_units, sold_to_client_id, sold_date`

const itemColumns = `invoice_id, position, id, name, category, qty, bonus, public_price, pharma_price,
	supplier_discount_val, extra_discount_pct, tax_value, tax_mode, total_units, base_total,
	category_discount_value, after_category_discount, extra_discount_value, tax_total, net_total_cost,
	net_unit_cost, real_discount_pct, history_verdict, price_difference_pct, savings_vs_history, is_fake_discount`

// SaveInvoice appends an invoice. It becomes the newest invoice in store order.
func (s *Store) SaveInvoice(ctx context.Context, inv domain.Invoice) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var next int64
		if err := tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(seq), 0) + 1 FROM invoices`); err != nil {
			return fmt.Errorf("next invoice seq: %w", err)
		}
		return insertInvoice(ctx, tx, inv, next)
	})
}

func insertInvoice(ctx context.Context, q DBTX, inv domain.Invoice, seq int64) error {
	_, err := q.ExecContext(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, seq, inv.Date, inv.InvoiceNumber, inv.SupplierID, inv.SupplierName,
		inv.TotalValue, inv.TotalItems, inv.TotalUnits, inv.SoldToClientID, inv.SoldDate)
	if err != nil {
		return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
	}
	if len(inv.Items) == 0 {
		return nil
	}

	rows := make([]itemRow, len(inv.Items))
	for i, item := range inv.Items {
		rows[i] = toItemRow(inv.ID, i, item)
	}
	stmt := `INSERT INTO invoice_items (` + itemColumns + `) VALUES (
		:invoice_id, :position, :id, :name, :category, :qty, :bonus, :public_price, :pharma_price,
		:supplier_discount_val, :extra_discount_pct, :tax_value, :tax_mode, :total_units, :base_total,
		:category_discount_value, :after_category_discount, :extra_discount_value, :tax_total, :net_total_cost,
		:net_unit_cost, :real_discount_pct, :history_verdict, :price_difference_pct, :savings_vs_history, :is_fake_discount)`
	if err := namedExecBatch(ctx, q, stmt, rows); err != nil {
		return fmt.Errorf("insert items of invoice %s: %w", inv.ID, err)
	}
	return nil
}

// ListInvoices returns every invoice, newest saved first, with items in entry order.
func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return listInvoices(ctx, s.db)
}

func listInvoices(ctx context.Context, q DBTX) ([]domain.Invoice, error) {
	var heads []invoiceRow
	if err := q.SelectContext(ctx, &heads, `SELECT `+invoiceColumns+` FROM invoices ORDER BY seq DESC`); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var rows []itemRow
	if err := q.SelectContext(ctx, &rows, `SELECT `+itemColumns+` FROM invoice_items ORDER BY invoice_id, position`); err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}

	byInvoice := make(map[string][]domain.CalculatedItem, len(heads))
	for _, r := range rows {
		byInvoice[r.InvoiceID] = append(byInvoice[r.InvoiceID], r.item())
	}

	invoices := make([]domain.Invoice, len(heads))
	for i, h := range heads {
		invoices[i] = h.invoice(byInvoice[h.ID])
	}
	return invoices, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	return getInvoice(ctx, s.db, id)
}

func getInvoice(ctx context.Context, q DBTX, id string) (domain.Invoice, error) {
	var head invoiceRow
	if err := q.GetContext(ctx, &head, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id); err != nil {
		return domain.Invoice{}, notFound(err, "get invoice")
	}
	var rows []itemRow
	if err := q.SelectContext(ctx, &rows, `SELECT `+itemColumns+` FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, id); err != nil {
		return domain.Invoice{}, fmt.Errorf("get invoice items: %w", err)
	}
	items := make([]domain.CalculatedItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return head.invoice(items), nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return rowsAffected(res, "delete invoice")
	})
}

// markSold records the one-time resale of an invoice.
func markSold(ctx context.Context, q DBTX, invoiceID, clientID, at string) error {
	res, err := q.ExecContext(ctx, `UPDATE invoices SET sold_to_client_id = $1, sold_date = $2 WHERE id = $3 AND sold_date = ''`,
		clientID, at, invoiceID)
	if err != nil {
		return fmt.Errorf("mark invoice sold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark invoice sold: %w", err)
	}
	if n == 0 {
		if _, err := getInvoice(ctx, q, invoiceID); err != nil {
			return err
		}
		return fmt.Errorf("invoice %s: %w", invoiceID, ErrAlreadySold)
	}
	return nil
}

// MarkInvoiceSold flags an invoice as resold to a client. A second call fails with ErrAlreadySold.
func (s *Store) MarkInvoiceSold(ctx context.Context, invoiceID, clientID string) error {
	return markSold(ctx, s.db, invoiceID, clientID, s.timestamp())
}

// ItemNames lists distinct item names across all invoices, first seen in store order.
func (s *Store) ItemNames(ctx context.Context) ([]string, error) {
	var rows []struct {
		Name string `db:"name"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT ii.name FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		ORDER BY i.seq DESC, ii.position`)
	if err != nil {
		return nil, fmt.Errorf("item names: %w", err)
	}
	seen := make(map[string]bool, len(rows))
	names := []string{}
	for _, r := range rows {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	return names, nil
}

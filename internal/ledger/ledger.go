// Package ledger moves money between the pharmacy and its clients: reselling a purchase
// invoice creates a SALE, collecting cash creates a PAYMENT.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pharmamind/m/domain"
	"pharmamind/m/internal/store"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	ErrUnknownSale   = errors.New("selected sale does not belong to the client")
)

// DefaultPaymentNote is used when a payment carries neither a note nor settled sales.
const DefaultPaymentNote = "Cash payment"

// ResellDiscounts are the percentages taken off the public price per category when
// an invoice is passed on to a client. Categories other than NORMAL and SPECIAL use Other.
type ResellDiscounts struct {
	Regular float64 `json:"regular"`
	Special float64 `json:"special"`
	Other   float64 `json:"other"`
}

func (d ResellDiscounts) For(c domain.Category) float64 {
	switch c {
	case domain.CategoryNormal:
		return d.Regular
	case domain.CategorySpecial:
		return d.Special
	default:
		return d.Other
	}
}

var hundred = decimal.NewFromInt(100)

// ResellTotal prices every unit of the invoice, bonus units included, at the discounted public price.
func ResellTotal(inv domain.Invoice, d ResellDiscounts) decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(d.For(item.Category)).Div(hundred))
		unit := decimal.NewFromFloat(item.PublicPrice).Mul(factor)
		total = total.Add(unit.Mul(decimal.NewFromFloat(item.TotalUnits)))
	}
	return total
}

// ResaleNote describes a resale in the client ledger.
func ResaleNote(inv domain.Invoice, d ResellDiscounts) string {
	return fmt.Sprintf("Resale of invoice #%s (%s:%s%%, %s:%s%%)", inv.DisplayNumber(),
		domain.CategoryNormal.Short(), formatPct(d.Regular), domain.CategorySpecial.Short(), formatPct(d.Special))
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PaymentDiscrepancy is amount minus the total of the selected sales. It is zero when nothing is selected.
func PaymentDiscrepancy(amount float64, selected []domain.ClientTransaction) float64 {
	if len(selected) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, t := range selected {
		sum = sum.Add(decimal.NewFromFloat(t.Amount))
	}
	return decimal.NewFromFloat(amount).Sub(sum).InexactFloat64()
}

// PaymentNote appends the numbers of the settled sales to the owner's note.
func PaymentNote(note string, settled []domain.ClientTransaction) string {
	if len(settled) > 0 {
		numbers := make([]string, len(settled))
		for i, t := range settled {
			numbers[i] = t.InvoiceNumber
			if numbers[i] == "" {
				numbers[i] = "invoice"
			}
		}
		note += " (settles: " + strings.Join(numbers, ", ") + ")"
	}
	if strings.TrimSpace(note) == "" {
		return DefaultPaymentNote
	}
	return note
}

// Store is the part of the record store the ledger writes through.
type Store interface {
	Resell(ctx context.Context, fn func(*store.ResellTx) error) error
	ListTransactions(ctx context.Context, clientID string) ([]domain.ClientTransaction, error)
	AddTransaction(ctx context.Context, t domain.ClientTransaction) (domain.ClientTransaction, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// Resell charges the client for the invoice and marks it sold. Both happen or neither does.
func (s *Service) Resell(ctx context.Context, invoiceID, clientID string, d ResellDiscounts) (domain.ClientTransaction, error) {
	var sale domain.ClientTransaction
	err := s.store.Resell(ctx, func(tx *store.ResellTx) error {
		inv, err := tx.Invoice(invoiceID)
		if err != nil {
			return err
		}
		if inv.IsSold {
			return fmt.Errorf("invoice %s: %w", inv.DisplayNumber(), store.ErrAlreadySold)
		}
		if _, err := tx.Client(clientID); err != nil {
			return err
		}

		sale, err = tx.AddTransaction(domain.ClientTransaction{
			ClientID:         clientID,
			Type:             domain.TransactionSale,
			Amount:           ResellTotal(inv, d).InexactFloat64(),
			Notes:            ResaleNote(inv, d),
			RelatedInvoiceID: inv.ID,
			InvoiceNumber:    inv.DisplayNumber(),
		})
		if err != nil {
			return err
		}
		return tx.MarkSold(inv.ID, clientID)
	})
	if err != nil {
		return domain.ClientTransaction{}, err
	}
	return sale, nil
}

// Payment is a cash collection from a client, optionally settling specific sales.
type Payment struct {
	Amount         float64  `json:"amount"`
	Note           string   `json:"note"`
	SettledSaleIDs []string `json:"settled_sale_ids"`
}

// Receipt is the recorded payment and how far it is from the settled sales.
type Receipt struct {
	Transaction domain.ClientTransaction `json:"transaction"`
	Discrepancy float64                  `json:"discrepancy"`
}

// Pay records a PAYMENT and lowers the client balance by its amount.
func (s *Service) Pay(ctx context.Context, clientID string, p Payment) (Receipt, error) {
	if p.Amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	settled, err := s.selectSales(ctx, clientID, p.SettledSaleIDs)
	if err != nil {
		return Receipt{}, err
	}

	t, err := s.store.AddTransaction(ctx, domain.ClientTransaction{
		ClientID: clientID,
		Type:     domain.TransactionPayment,
		Amount:   p.Amount,
		Notes:    PaymentNote(p.Note, settled),
	})
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Transaction: t, Discrepancy: PaymentDiscrepancy(p.Amount, settled)}, nil
}

// selectSales resolves sale ids in ledger order.
func (s *Service) selectSales(ctx context.Context, clientID string, ids []string) ([]domain.ClientTransaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	txs, err := s.store.ListTransactions(ctx, clientID)
	if err != nil {
		return nil, err
	}
	var out []domain.ClientTransaction
	for _, t := range txs {
		if t.Type == domain.TransactionSale && wanted[t.ID] {
			out = append(out, t)
			delete(wanted, t.ID)
		}
	}
	for _, id := range ids {
		if wanted[id] {
			return nil, fmt.Errorf("sale %s: %w", id, ErrUnknownSale)
		}
	}
	return out, nil
}

package domain

// TransactionType is SALE (raises client debt) or PAYMENT (lowers it).
type TransactionType string

const (
	TransactionSale    TransactionType = "SALE"
	TransactionPayment TransactionType = "PAYMENT"
)

func (t TransactionType) Valid() bool {
	return t == TransactionSale || t == TransactionPayment
}

// ClientTransaction is an append-only ledger entry.
type ClientTransaction struct {
	ID               string          `db:"id" json:"id"`
	ClientID         string          `db:"client_id" json:"client_id"`
	Date             string          `db:"date" json:"date"`
	Type             TransactionType `db:"type" json:"type"`
	Amount           float64         `db:"amount" json:"amount"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
	RelatedInvoiceID string          `db:"related_invoice_id" json:"related_invoice_id,omitempty"`
	InvoiceNumber    string          `db:"invoice_number" json:"invoice_number,omitempty"`
}

// Signed is the effect of the transaction on the client balance.
func (t ClientTransaction) Signed() float64 {
	if t.Type == TransactionSale {
		return t.Amount
	}
	return -t.Amount
}

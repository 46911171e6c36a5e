package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmamind/m/domain"
)

const transactionColumns = `id, client_id, date, type, amount, notes, related_invoice_id, invoice_number`

// AddTransaction appends a ledger entry and moves the client balance by its signed amount.
// Both writes happen in one SQL transaction.
func (s *Store) AddTransaction(ctx context.Context, t domain.ClientTransaction) (domain.ClientTransaction, error) {
	t = s.prepareTransaction(t)
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return addTransaction(ctx, tx, t)
	})
	if err != nil {
		return domain.ClientTransaction{}, err
	}
	return t, nil
}

func (s *Store) prepareTransaction(t domain.ClientTransaction) domain.ClientTransaction {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Date == "" {
		t.Date = s.timestamp()
	}
	return t
}

func addTransaction(ctx context.Context, q DBTX, t domain.ClientTransaction) error {
	if !t.Type.Valid() {
		return fmt.Errorf("add transaction: unknown type %q", t.Type)
	}
	res, err := q.ExecContext(ctx, `UPDATE clients SET balance = balance + $1 WHERE id = $2`, t.Signed(), t.ClientID)
	if err != nil {
		return fmt.Errorf("update client balance: %w", err)
	}
	if err := rowsAffected(res, "update client balance"); err != nil {
		return err
	}
	if err := insertTransactions(ctx, q, []domain.ClientTransaction{t}); err != nil {
		return err
	}
	return nil
}

func insertTransactions(ctx context.Context, q DBTX, txs []domain.ClientTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	const stmt = `INSERT INTO client_transactions (` + transactionColumns + `)
		VALUES (:id, :client_id, :date, :type, :amount, :notes, :related_invoice_id, :invoice_number)`
	if err := namedExecBatch(ctx, q, stmt, txs); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

// ListTransactions returns the client's ledger, newest first.
func (s *Store) ListTransactions(ctx context.Context, clientID string) ([]domain.ClientTransaction, error) {
	txs := []domain.ClientTransaction{}
	err := s.db.SelectContext(ctx, &txs, `SELECT `+transactionColumns+` FROM client_transactions
		WHERE client_id = $1 ORDER BY date DESC, id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func listAllTransactions(ctx context.Context, q DBTX) ([]domain.ClientTransaction, error) {
	txs := []domain.ClientTransaction{}
	if err := q.SelectContext(ctx, &txs, `SELECT `+transactionColumns+` FROM client_transactions ORDER BY date DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// RecomputeBalance sums the client's ledger. It should equal the stored balance.
func (s *Store) RecomputeBalance(ctx context.Context, clientID string) (float64, error) {
	var sum float64
	err := s.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(CASE WHEN type = 'SALE' THEN amount ELSE -amount END), 0)
		FROM client_transactions WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("recompute balance: %w", err)
	}
	return sum, nil
}

// ResellTx carries the writes of a resale so they commit together.
type ResellTx struct {
	s   *Store
	tx  *sqlx.Tx
	ctx context.Context
}

func (r *ResellTx) Invoice(id string) (domain.Invoice, error) {
	return getInvoice(r.ctx, r.tx, id)
}

func (r *ResellTx) Client(id string) (domain.Client, error) {
	return getClient(r.ctx, r.tx, id)
}

func (r *ResellTx) AddTransaction(t domain.ClientTransaction) (domain.ClientTransaction, error) {
	t = r.s.prepareTransaction(t)
	if err := addTransaction(r.ctx, r.tx, t); err != nil {
		return domain.ClientTransaction{}, err
	}
	return t, nil
}

func (r *ResellTx) MarkSold(invoiceID, clientID string) error {
	return markSold(r.ctx, r.tx, invoiceID, clientID, r.s.timestamp())
}

// Resell runs fn against a single SQL transaction. Nothing is written unless fn returns nil.
func (s *Store) Resell(ctx context.Context, fn func(*ResellTx) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&ResellTx{s: s, tx: tx, ctx: ctx})
	})
}

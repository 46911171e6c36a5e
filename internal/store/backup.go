package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmamind/m/domain"
)

// Backup snapshots every collection. Collections are never nil so an empty store round trips as empty lists.
func (s *Store) Backup(ctx context.Context) (domain.Backup, error) {
	settings, err := getSettings(ctx, s.db)
	if err != nil {
		return domain.Backup{}, err
	}
	suppliers, err := listSuppliers(ctx, s.db)
	if err != nil {
		return domain.Backup{}, err
	}
	clients, err := listClients(ctx, s.db)
	if err != nil {
		return domain.Backup{}, err
	}
	invoices, err := listInvoices(ctx, s.db)
	if err != nil {
		return domain.Backup{}, err
	}
	txs, err := listAllTransactions(ctx, s.db)
	if err != nil {
		return domain.Backup{}, err
	}
	return domain.Backup{
		Settings:     &settings,
		Suppliers:    suppliers,
		Clients:      clients,
		Invoices:     invoices,
		Transactions: txs,
		Version:      domain.BackupVersion,
		Date:         s.timestamp(),
	}, nil
}

// ParseBackup decodes a backup document and checks its version marker.
func ParseBackup(data []byte) (domain.Backup, error) {
	var b domain.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if b.Version == "" {
		return domain.Backup{}, fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if err := checkRecords(b); err != nil {
		return domain.Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return b, nil
}

// checkRecords rejects records that would be stored without an identity.
func checkRecords(b domain.Backup) error {
	for i, sup := range b.Suppliers {
		if sup.ID == "" {
			return fmt.Errorf("supplier %d has no id", i)
		}
	}
	for i, c := range b.Clients {
		if c.ID == "" {
			return fmt.Errorf("client %d has no id", i)
		}
	}
	for i, inv := range b.Invoices {
		if inv.ID == "" || inv.Date == "" {
			return fmt.Errorf("invoice %d has no id or date", i)
		}
	}
	for i, t := range b.Transactions {
		if t.ID == "" || t.ClientID == "" {
			return fmt.Errorf("transaction %d has no id or client", i)
		}
		if !t.Type.Valid() {
			return fmt.Errorf("transaction %s: unknown type %q", t.ID, t.Type)
		}
	}
	return nil
}

// Restore overwrites every collection present in the document. Absent collections are left alone.
// The document is validated before anything is written and all writes share one SQL transaction.
func (s *Store) Restore(ctx context.Context, data []byte) error {
	b, err := ParseBackup(data)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if b.Settings != nil {
			if err := saveSettings(ctx, tx, *b.Settings); err != nil {
				return err
			}
		}
		if b.Suppliers != nil {
			if err := clearTable(ctx, tx, "suppliers"); err != nil {
				return err
			}
			if err := upsertSuppliers(ctx, tx, b.Suppliers); err != nil {
				return err
			}
		}
		if b.Clients != nil {
			if err := clearTable(ctx, tx, "clients"); err != nil {
				return err
			}
			if err := insertClients(ctx, tx, b.Clients); err != nil {
				return err
			}
		}
		if b.Invoices != nil {
			if err := clearTable(ctx, tx, "invoice_items"); err != nil {
				return err
			}
			if err := clearTable(ctx, tx, "invoices"); err != nil {
				return err
			}
			// Documents list invoices newest first.
			n := int64(len(b.Invoices))
			for i, inv := range b.Invoices {
				if inv.SoldDate == "" && inv.IsSold {
					inv.SoldDate = s.timestamp()
				}
				if err := insertInvoice(ctx, tx, inv, n-int64(i)); err != nil {
					return err
				}
			}
		}
		if b.Transactions != nil {
			if err := clearTable(ctx, tx, "client_transactions"); err != nil {
				return err
			}
			if err := insertTransactions(ctx, tx, b.Transactions); err != nil {
				return err
			}
		}
		return nil
	})
}

func clearTable(ctx context.Context, q DBTX, table string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return nil
}

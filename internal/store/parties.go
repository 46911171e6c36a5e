package store

import (
	"context"
	"fmt"

	"pharmamind/m/domain"
)

// ListSuppliers returns suppliers sorted by name.
func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return listSuppliers(ctx, s.db)
}

func listSuppliers(ctx context.Context, q DBTX) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	if err := q.SelectContext(ctx, &suppliers, `SELECT id, name, phone, notes FROM suppliers ORDER BY LOWER(name), id`); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	var sup domain.Supplier
	if err := s.db.GetContext(ctx, &sup, `SELECT id, name, phone, notes FROM suppliers WHERE id = $1`, id); err != nil {
		return domain.Supplier{}, notFound(err, "get supplier")
	}
	return sup, nil
}

// SaveSupplier inserts or replaces a supplier. An empty id gets a new one.
func (s *Store) SaveSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	if sup.ID == "" {
		sup.ID = NewID()
	}
	if err := upsertSuppliers(ctx, s.db, []domain.Supplier{sup}); err != nil {
		return domain.Supplier{}, err
	}
	return sup, nil
}

func upsertSuppliers(ctx context.Context, q DBTX, suppliers []domain.Supplier) error {
	if len(suppliers) == 0 {
		return nil
	}
	const stmt = `INSERT INTO suppliers (id, name, phone, notes) VALUES (:id, :name, :phone, :notes)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, phone = excluded.phone, notes = excluded.notes`
	if err := namedExecBatch(ctx, q, stmt, suppliers); err != nil {
		return fmt.Errorf("save suppliers: %w", err)
	}
	return nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	return rowsAffected(res, "delete supplier")
}

// ListClients returns clients sorted by name.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	return listClients(ctx, s.db)
}

func listClients(ctx context.Context, q DBTX) ([]domain.Client, error) {
	clients := []domain.Client{}
	if err := q.SelectContext(ctx, &clients, `SELECT id, name, phone, balance, notes FROM clients ORDER BY LOWER(name), id`); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (domain.Client, error) {
	return getClient(ctx, s.db, id)
}

func getClient(ctx context.Context, q DBTX, id string) (domain.Client, error) {
	var c domain.Client
	if err := q.GetContext(ctx, &c, `SELECT id, name, phone, balance, notes FROM clients WHERE id = $1`, id); err != nil {
		return domain.Client{}, notFound(err, "get client")
	}
	return c, nil
}

// SaveClient creates a client with a zero balance or updates its contact details.
// Balances only move through AddTransaction.
func (s *Store) SaveClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	if c.ID == "" {
		c.ID = NewID()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO clients (id, name, phone, balance, notes) VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, phone = excluded.phone, notes = excluded.notes`,
		c.ID, c.Name, c.Phone, c.Notes)
	if err != nil {
		return domain.Client{}, fmt.Errorf("save client: %w", err)
	}
	return s.GetClient(ctx, c.ID)
}

func insertClients(ctx context.Context, q DBTX, clients []domain.Client) error {
	if len(clients) == 0 {
		return nil
	}
	const stmt = `INSERT INTO clients (id, name, phone, balance, notes) VALUES (:id, :name, :phone, :balance, :notes)`
	if err := namedExecBatch(ctx, q, stmt, clients); err != nil {
		return fmt.Errorf("insert clients: %w", err)
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return rowsAffected(res, "delete client")
}

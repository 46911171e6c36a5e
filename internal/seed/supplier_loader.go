package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"pharmamind/m/domain"
	"pharmamind/m/internal/store"
)

// SupplierStore is what the supplier import needs from the record store.
type SupplierStore interface {
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	SaveSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, error)
}

// LoadSuppliers imports the supplier directory CSV if it exists. Failures are logged, not fatal.
func LoadSuppliers(ctx context.Context, s SupplierStore, csvPath string) {
	file, err := os.Open(csvPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no supplier directory to import", "path", csvPath)
		return
	}
	if err != nil {
		slog.Warn("unable to open supplier directory", "path", csvPath, "error", err)
		return
	}
	defer file.Close()

	added, err := ImportSuppliers(ctx, s, file)
	if err != nil {
		slog.Warn("supplier import stopped", "path", csvPath, "added", added, "error", err)
		return
	}
	slog.Info("seeded supplier directory", "path", csvPath, "added", added)
}

// ImportSuppliers reads name,phone,notes rows after a header line and adds suppliers whose
// name is not already known, ignoring case. It returns how many were added.
func ImportSuppliers(ctx context.Context, s SupplierStore, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("read supplier header: %w", err)
	}

	existing, err := s.ListSuppliers(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, sup := range existing {
		known[strings.ToLower(sup.Name)] = true
	}

	added := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("unable to read supplier row", "error", err)
			continue
		}
		sup := domain.Supplier{Name: field(record, 0), Phone: field(record, 1), Notes: field(record, 2)}
		if sup.Name == "" || known[strings.ToLower(sup.Name)] {
			continue
		}
		sup.ID = store.NewID()
		if _, err := s.SaveSupplier(ctx, sup); err != nil {
			return added, fmt.Errorf("save supplier %s: %w", sup.Name, err)
		}
		known[strings.ToLower(sup.Name)] = true
		added++
	}
	return added, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

package seed

import (
	"context"
	"strings"
	"testing"

	"pharmamind/m/domain"
)

type memSuppliers struct {
	list []domain.Supplier
}

func (m *memSuppliers) ListSuppliers(context.Context) ([]domain.Supplier, error) {
	return m.list, nil
}

func (m *memSuppliers) SaveSupplier(_ context.Context, sup domain.Supplier) (domain.Supplier, error) {
	m.list = append(m.list, sup)
	return sup, nil
}

func TestImportSuppliers(t *testing.T) {
	s := &memSuppliers{list: []domain.Supplier{{ID: "1", Name: "Ibn Sina"}}}
	csv := `name,phone,notes
Ibn Sina,0100,duplicate of an existing supplier
United Pharma, 0122 ,weekly visit
united pharma,,duplicate inside the file
,0111,no name
Delta Drugs
`
	added, err := ImportSuppliers(context.Background(), s, strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	got := s.list[1]
	if got.Name != "United Pharma" || got.Phone != "0122" || got.Notes != "weekly visit" || got.ID == "" {
		t.Errorf("imported %+v", got)
	}
	if s.list[2].Name != "Delta Drugs" || s.list[2].Phone != "" {
		t.Errorf("short row imported as %+v", s.list[2])
	}
}

func TestImportSuppliers_Empty(t *testing.T) {
	added, err := ImportSuppliers(context.Background(), &memSuppliers{}, strings.NewReader(""))
	if err != nil || added != 0 {
		t.Errorf("empty input: added %d, err %v", added, err)
	}
}

func TestLoadSuppliers_MissingFile(t *testing.T) {
	s := &memSuppliers{}
	LoadSuppliers(context.Background(), s, "does-not-exist.csv")
	if len(s.list) != 0 {
		t.Errorf("expected nothing imported, got %d", len(s.list))
	}
}

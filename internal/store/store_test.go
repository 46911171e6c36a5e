package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pharmamind/m/domain"
	"pharmamind/m/internal/database"
	"pharmamind/m/internal/migrations"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := fmt.Sprintf("%s_%d", strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1))
	db, err := database.Connect("file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(ON)")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := New(db)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func testInvoice(id, number string, items ...domain.CalculatedItem) domain.Invoice {
	inv, err := domain.NewInvoice(id, number, domain.Supplier{ID: "sup-1", Name: "Ibn Sina"}, items,
		time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return inv
}

func testItem(name string, unitCost float64) domain.CalculatedItem {
	return domain.CalculatedItem{
		ItemInput: domain.ItemInput{
			ID:          name + "-line",
			Name:        name,
			Category:    domain.CategoryNormal,
			Qty:         10,
			PublicPrice: 100,
			PharmaPrice: 90,
			TaxMode:     domain.TaxTotal,
		},
		TotalUnits:   10,
		NetTotalCost: unitCost * 10,
		NetUnitCost:  unitCost,
	}
}

func TestSettings_DefaultsThenSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != domain.DefaultSettings() {
		t.Fatalf("expected defaults before first save, got %+v", got)
	}

	want := domain.Settings{DiscountNormal: 25, DiscountSpecial: 12, DiscountOther: 3, PharmacyName: "Nile"}
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("GetSettings = %+v, want %+v", got, want)
	}
}

func TestSuppliers_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.SaveSupplier(ctx, domain.Supplier{Name: "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if b.ID == "" {
		t.Fatal("expected a generated id")
	}
	if _, err := s.SaveSupplier(ctx, domain.Supplier{Name: "Alpha"}); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListSuppliers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Alpha" || list[1].Name != "beta" {
		t.Fatalf("unexpected order: %+v", list)
	}

	b.Phone = "0100"
	if _, err := s.SaveSupplier(ctx, b); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSupplier(ctx, b.ID)
	if err != nil || got.Phone != "0100" {
		t.Fatalf("GetSupplier = %+v, %v", got, err)
	}

	if err := s.DeleteSupplier(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSupplier(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSupplier(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveClient_KeepsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.SaveClient(ctx, domain.Client{Name: "Dr. Hany", Balance: 999})
	if err != nil {
		t.Fatal(err)
	}
	if c.Balance != 0 {
		t.Fatalf("new client balance = %v, want 0", c.Balance)
	}
	if _, err := s.AddTransaction(ctx, domain.ClientTransaction{ClientID: c.ID, Type: domain.TransactionSale, Amount: 50}); err != nil {
		t.Fatal(err)
	}
	c.Phone = "0122"
	c.Balance = 0
	c, err = s.SaveClient(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Balance != 50 || c.Phone != "0122" {
		t.Errorf("after update got %+v, want balance 50 and new phone", c)
	}
}

func TestInvoices_OrderAndRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testInvoice("inv-1", "A1", testItem("Panadol", 10), testItem("Brufen", 20))
	newer := testItem("Panadol", 9)
	newer.Comparison = &domain.PriceComparison{Verdict: domain.VerdictBetter, PriceDifferencePct: 10, SavingsVsHistory: 10}
	newer.IsFakeDiscount = true

	if err := s.SaveInvoice(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveInvoice(ctx, testInvoice("inv-2", "", newer)); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListInvoices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "inv-2" || list[1].ID != "inv-1" {
		t.Fatalf("expected newest first, got %d invoices", len(list))
	}
	if names := []string{list[1].Items[0].Name, list[1].Items[1].Name}; names[0] != "Panadol" || names[1] != "Brufen" {
		t.Errorf("items out of entry order: %v", names)
	}

	line := list[0].Items[0]
	if line.Comparison == nil || line.Comparison.Verdict != domain.VerdictBetter || line.Comparison.SavingsVsHistory != 10 {
		t.Errorf("comparison not restored: %+v", line.Comparison)
	}
	if !line.IsFakeDiscount {
		t.Error("fake discount flag lost")
	}
	if list[1].Items[0].Comparison != nil {
		t.Error("expected nil comparison for a new item")
	}

	got, err := s.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalValue != 300 || got.TotalItems != 2 || got.SupplierName != "Ibn Sina" {
		t.Errorf("GetInvoice = %+v", got)
	}

	names, err := s.ItemNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "Panadol" || names[1] != "Brufen" {
		t.Errorf("ItemNames = %v", names)
	}

	if err := s.DeleteInvoice(ctx, "inv-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetInvoice(ctx, "inv-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.SaveInvoice(ctx, testInvoice("inv-3", "", testItem("Cataflam", 5))); err != nil {
		t.Fatal(err)
	}
	list, _ = s.ListInvoices(ctx)
	if list[0].ID != "inv-3" {
		t.Errorf("invoice saved after a delete should be newest, got %s", list[0].ID)
	}
}

func TestMarkInvoiceSold_Once(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveInvoice(ctx, testInvoice("inv-1", "", testItem("Panadol", 10))); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkInvoiceSold(ctx, "inv-1", "client-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkInvoiceSold(ctx, "inv-1", "client-2"); !errors.Is(err, ErrAlreadySold) {
		t.Errorf("expected ErrAlreadySold, got %v", err)
	}
	if err := s.MarkInvoiceSold(ctx, "missing", "client-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	inv, err := s.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !inv.IsSold || inv.SoldToClientID != "client-1" || inv.SoldDate == "" {
		t.Errorf("sold fields = %v %q %q", inv.IsSold, inv.SoldToClientID, inv.SoldDate)
	}
}

func TestTransactions_BalanceMatchesLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.SaveClient(ctx, domain.Client{Name: "Pharmacy B"})
	if err != nil {
		t.Fatal(err)
	}
	entries := []domain.ClientTransaction{
		{ClientID: c.ID, Type: domain.TransactionSale, Amount: 500},
		{ClientID: c.ID, Type: domain.TransactionPayment, Amount: 120.5},
		{ClientID: c.ID, Type: domain.TransactionSale, Amount: 80},
	}
	for _, e := range entries {
		if _, err := s.AddTransaction(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := s.RecomputeBalance(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 459.5 || sum != got.Balance {
		t.Errorf("balance = %v, ledger sum = %v, want 459.5", got.Balance, sum)
	}

	txs, err := s.ListTransactions(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 || txs[0].Amount != 80 || txs[2].Amount != 500 {
		t.Errorf("expected newest first, got %+v", txs)
	}
}

func TestAddTransaction_UnknownClientWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddTransaction(ctx, domain.ClientTransaction{ClientID: "ghost", Type: domain.TransactionSale, Amount: 10})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	txs, err := s.ListTransactions(ctx, "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no ledger rows, got %d", len(txs))
	}
}

func TestResell_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.SaveClient(ctx, domain.Client{Name: "Pharmacy C"})
	if err := s.SaveInvoice(ctx, testInvoice("inv-1", "", testItem("Panadol", 10))); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Resell(ctx, func(tx *ResellTx) error {
		if _, err := tx.AddTransaction(domain.ClientTransaction{ClientID: c.ID, Type: domain.TransactionSale, Amount: 100}); err != nil {
			return err
		}
		if err := tx.MarkSold("inv-1", c.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.GetClient(ctx, c.ID)
	inv, _ := s.GetInvoice(ctx, "inv-1")
	if got.Balance != 0 || inv.IsSold {
		t.Errorf("expected rollback, got balance %v sold %v", got.Balance, inv.IsSold)
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	if err := src.SaveSettings(ctx, domain.Settings{DiscountNormal: 22, PharmacyName: "Src"}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.SaveSupplier(ctx, domain.Supplier{ID: "sup-1", Name: "Ibn Sina"}); err != nil {
		t.Fatal(err)
	}
	c, _ := src.SaveClient(ctx, domain.Client{Name: "Client"})
	if _, err := src.AddTransaction(ctx, domain.ClientTransaction{ClientID: c.ID, Type: domain.TransactionSale, Amount: 70}); err != nil {
		t.Fatal(err)
	}
	src.SaveInvoice(ctx, testInvoice("inv-1", "", testItem("Panadol", 10)))
	src.SaveInvoice(ctx, testInvoice("inv-2", "", testItem("Brufen", 10)))

	snap, err := src.Backup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != domain.BackupVersion {
		t.Fatalf("version = %q", snap.Version)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t)
	if err := dst.Restore(ctx, data); err != nil {
		t.Fatal(err)
	}

	settings, _ := dst.GetSettings(ctx)
	if settings.PharmacyName != "Src" || settings.DiscountNormal != 22 {
		t.Errorf("settings not restored: %+v", settings)
	}
	invoices, _ := dst.ListInvoices(ctx)
	if len(invoices) != 2 || invoices[0].ID != "inv-2" {
		t.Errorf("invoice order not restored: %+v", invoices)
	}
	got, err := dst.GetClient(ctx, c.ID)
	if err != nil || got.Balance != 70 {
		t.Errorf("client not restored: %+v %v", got, err)
	}
	txs, _ := dst.ListTransactions(ctx, c.ID)
	if len(txs) != 1 {
		t.Errorf("transactions not restored: %d", len(txs))
	}
}

func TestParseBackup_RejectsRecordsWithoutIdentity(t *testing.T) {
	if _, err := ParseBackup([]byte(`{"version":"1","invoices":[{}]}`)); !errors.Is(err, ErrInvalidBackup) {
		t.Errorf("expected ErrInvalidBackup, got %v", err)
	}
	if _, err := ParseBackup([]byte(`{"version":"1","transactions":[{"id":"t1","type":"SALE","amount":5}]}`)); !errors.Is(err, ErrInvalidBackup) {
		t.Errorf("transaction without client: expected ErrInvalidBackup, got %v", err)
	}
	if _, err := ParseBackup([]byte(`{"version":"1","invoices":[{"id":"i1","date":"2024-01-01T00:00:00Z","items":[]}]}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
}

func TestRestore_PartialAndInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveSupplier(ctx, domain.Supplier{Name: "Keep me"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveInvoice(ctx, testInvoice("inv-1", "", testItem("Panadol", 10))); err != nil {
		t.Fatal(err)
	}

	for _, doc := range []string{
		`not json`,
		`{"invoices": []}`,
		`{"version": "1.0", "suppliers": [], "invoices": [{"id": "x", "date": "2024-01-01", "items": []}, {"id": "x", "date": "2024-01-01", "items": []}]}`,
		`{"version": "1", "invoices": [{}]}`,
		`{"version": "1", "suppliers": [{"name": "No id"}]}`,
		`{"version": "1", "clients": [{"name": "No id"}]}`,
		`{"version": "1", "transactions": [{"id": "t1", "client_id": "c1", "type": "REFUND", "amount": 1}]}`,
	} {
		if err := s.Restore(ctx, []byte(doc)); err == nil {
			t.Errorf("Restore(%q) succeeded, want error", doc)
		}
	}
	invoices, _ := s.ListInvoices(ctx)
	suppliers, _ := s.ListSuppliers(ctx)
	if len(invoices) != 1 || len(suppliers) != 1 {
		t.Fatalf("failed restore changed the store: %d invoices, %d suppliers", len(invoices), len(suppliers))
	}

	if err := s.Restore(ctx, []byte(`{"version": "1.0", "invoices": []}`)); err != nil {
		t.Fatal(err)
	}
	invoices, _ = s.ListInvoices(ctx)
	suppliers, _ = s.ListSuppliers(ctx)
	if len(invoices) != 0 {
		t.Errorf("empty list should clear invoices, got %d", len(invoices))
	}
	if len(suppliers) != 1 {
		t.Errorf("absent collection should be kept, got %d suppliers", len(suppliers))
	}
}

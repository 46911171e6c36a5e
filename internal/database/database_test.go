package database

import "testing"

func TestDriver(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://user:pw@localhost:5432/pharmamind", "pgx"},
		{"postgresql://localhost/pharmamind?sslmode=disable", "pgx"},
		{"file:pharmamind.db?_pragma=foreign_keys(ON)", "sqlite"},
		{":memory:", "sqlite"},
	}
	for _, tt := range tests {
		if got := Driver(tt.dsn); got != tt.want {
			t.Errorf("Driver(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestConnect_SQLite(t *testing.T) {
	db, err := Connect("file:database_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if db.DriverName() != "sqlite" {
		t.Errorf("driver = %s", db.DriverName())
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

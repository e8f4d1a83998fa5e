package db

import (
	"testing"
)

func TestOpen_AppliesAllMigrations(t *testing.T) {
	d, err := Open("file:dbtest_open?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	v, err := CurrentVersion(d)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if v != 3 {
		t.Fatalf("version = %d, want 3", v)
	}
	for _, table := range []string{"users", "orders", "messages"} {
		var name string
		if err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	// Re-running is a no-op.
	if err := Migrate(d); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestRollbackLast(t *testing.T) {
	d, err := Open("file:dbtest_rollback?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if err := RollbackLast(d); err != nil {
		t.Fatalf("RollbackLast: %v", err)
	}
	v, _ := CurrentVersion(d)
	if v != 2 {
		t.Fatalf("version after rollback = %d, want 2", v)
	}
	if _, err := d.Exec(`SELECT payment_proof FROM orders`); err == nil {
		t.Fatalf("payment_proof column should be gone")
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	if v, _ := CurrentVersion(d); v != 3 {
		t.Fatalf("version after re-migrate = %d", v)
	}
}

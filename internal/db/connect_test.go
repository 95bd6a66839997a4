package db

import (
	"context"
	"testing"
)

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x=? AND y=?`
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	if got := Rebind(DriverPostgres, q); got != `SELECT a FROM t WHERE x=$1 AND y=$2` {
		t.Errorf("postgres rebind = %s", got)
	}
}

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	conn, err := Open(context.Background(), DriverSQLite, "file:schematest?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"exams", "registrations", "attempts", "admins", "event_log"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// schema creation is idempotent
	if err := ensureSchema(context.Background(), conn, DriverSQLite); err != nil {
		t.Errorf("second ensureSchema: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("oracle"), ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

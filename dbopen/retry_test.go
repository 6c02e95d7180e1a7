package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestIsBusy(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: database is busy"), true},
		{errors.New("database is locked"), true},
		{errors.New("database table is locked"), true},
		{errors.New("no such table: t"), false},
	}
	for _, c := range cases {
		if got := IsBusy(c.err); got != c.want {
			t.Fatalf("IsBusy(%v): got %v, want %v", c.err, got, c.want)
		}
	}
}

func TestRunTx_Commit(t *testing.T) {
	db, err := Open(":memory:", WithSchema(`CREATE TABLE t (id TEXT PRIMARY KEY)`))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	err = RunTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO t (id) VALUES ('a')`)
		return err
	})
	if err != nil {
		t.Fatalf("run tx: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count)
	if count != 1 {
		t.Fatalf("row count after commit: got %d, want 1", count)
	}
}

func TestRunTx_RollbackOnError(t *testing.T) {
	db, err := Open(":memory:", WithSchema(`CREATE TABLE t (id TEXT PRIMARY KEY)`))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	errBoom := errors.New("boom")
	err = RunTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t (id) VALUES ('a')`); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("run tx: got %v, want %v", err, errBoom)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count)
	if count != 0 {
		t.Fatalf("row count after rollback: got %d, want 0", count)
	}
}

func TestExec_NonBusyErrorNotRetried(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	// A non-BUSY failure surfaces unwrapped on the first attempt.
	start := time.Now()
	if _, err := Exec(context.Background(), db, `INSERT INTO missing (id) VALUES ('a')`); err == nil {
		t.Fatal("expected error for missing table")
	}
	if elapsed := time.Since(start); elapsed >= 100*time.Millisecond {
		t.Fatalf("non-busy error took %v, suggests it was retried", elapsed)
	}
}

func TestExec_Insert(t *testing.T) {
	db, err := Open(":memory:", WithSchema(`CREATE TABLE t (id TEXT PRIMARY KEY)`))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	res, err := Exec(context.Background(), db, `INSERT INTO t (id) VALUES ('a')`)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("rows affected: got %d, want 1", n)
	}
}

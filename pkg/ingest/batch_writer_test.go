package ingest

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestTable(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("CREATE TABLE test (id INTEGER PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return db
}

func insertVal(val string) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO test (val) VALUES (?)", val)
		return err
	}
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM test").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestBatchWriterTransactions(t *testing.T) {
	db := openTestTable(t)
	defer db.Close()
	ctx := context.Background()

	bw := NewBatchWriter(db, 2)
	var flushes []int
	bw.OnFlush = func(n int) { flushes = append(flushes, n) }

	for _, v := range []string{"A", "B", "C"} {
		if err := bw.Submit(ctx, insertVal(v)); err != nil {
			t.Fatalf("submit %s: %v", v, err)
		}
	}
	// A and B were committed when the buffer filled up
	if got := countRows(t, db); got != 2 {
		t.Fatalf("expected 2 rows before close, got %d", got)
	}

	if err := bw.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := countRows(t, db); got != 3 {
		t.Fatalf("expected 3 rows after close, got %d", got)
	}
	if len(flushes) != 2 || flushes[0] != 2 || flushes[1] != 1 {
		t.Fatalf("unexpected flushes %v", flushes)
	}

	if err := bw.Submit(ctx, insertVal("D")); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed, got %v", err)
	}
	if err := bw.Close(ctx); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed on second close, got %v", err)
	}
}

func TestBatchWriterRollsBackFailedBatch(t *testing.T) {
	db := openTestTable(t)
	defer db.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	bw := NewBatchWriter(db, 10)
	_ = bw.Submit(ctx, insertVal("A"))
	_ = bw.Submit(ctx, func(ctx context.Context, tx *sql.Tx) error { return boom })

	if err := bw.Flush(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := countRows(t, db); got != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", got)
	}

	// the failed batch is dropped, later writes still go through
	_ = bw.Submit(ctx, insertVal("B"))
	if err := bw.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := countRows(t, db); got != 1 {
		t.Fatalf("expected 1 row, got %d", got)
	}
}

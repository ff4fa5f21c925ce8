package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// WriteFunc is a callback that performs database writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers write operations and commits them in batches, one
// transaction per batch.
type BatchWriter struct {
	mu     sync.Mutex
	db     *sql.DB
	buf    []WriteFunc
	cap    int
	closed bool

	// OnFlush, if set, is called after each committed batch with its size.
	OnFlush func(n int)
}

// NewBatchWriter creates a new BatchWriter.
// db: the database connection to use for transactions.
// bufferSize: flush when buffer reaches this size.
func NewBatchWriter(db *sql.DB, bufferSize int) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &BatchWriter{
		db:  db,
		buf: make([]WriteFunc, 0, bufferSize),
		cap: bufferSize,
	}
}

// Submit buffers a write and commits the buffer once it is full.
func (bw *BatchWriter) Submit(ctx context.Context, w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		return bw.flushLocked(ctx)
	}
	return nil
}

// Flush commits whatever is buffered.
func (bw *BatchWriter) Flush(ctx context.Context) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.flushLocked(ctx)
}

// flushLocked assumes bw.mu is held. The buffer is emptied even when the
// batch fails; its writes are rolled back.
func (bw *BatchWriter) flushLocked(ctx context.Context) error {
	if len(bw.buf) == 0 {
		return nil
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)

	if err := bw.executeBatch(ctx, batch); err != nil {
		return err
	}
	if bw.OnFlush != nil {
		bw.OnFlush(len(batch))
	}
	return nil
}

func (bw *BatchWriter) executeBatch(ctx context.Context, batch []WriteFunc) error {
	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

// Close commits the remaining writes and stops accepting submissions.
func (bw *BatchWriter) Close(ctx context.Context) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.closed = true
	return bw.flushLocked(ctx)
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }

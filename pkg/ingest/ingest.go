// Package ingest mirrors dictionary sources into SQLite and provides the
// worker pool used by bulk conversions.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/db"
	"github.com/japaniel/pime/pkg/dictionary"
)

// Ingester copies the live entries of a dictionary library into the
// words table, one source at a time.
type Ingester struct {
	DB *sql.DB
	// Logger receives progress messages. nil means no logging.
	Logger *zap.Logger
	// OnProgress is called after each committed source with the number of
	// words written so far and the total.
	OnProgress func(current, total int)
}

// NewIngester creates a new Ingester.
func NewIngester(conn *sql.DB) *Ingester {
	return &Ingester{DB: conn}
}

// Ingest replaces the mirrored rows of every source of lib with its
// current live entries and returns the number of words written.
//
// Each source is replaced in one transaction: clearing its old rows and
// writing its words commit together, so a failure leaves that source's
// previous mirror intact. Sources committed before the failure stay
// replaced.
func (ig *Ingester) Ingest(ctx context.Context, lib *dictionary.Library) (int, error) {
	logger := ig.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bySource := make(map[dictionary.SourceID][]dictionary.Entry)
	for _, e := range lib.Dictionary().Flatten() {
		bySource[e.Source] = append(bySource[e.Source], e)
	}
	total := 0
	for _, p := range lib.Sources() {
		total += len(bySource[p.ID])
	}

	written := 0
	for _, p := range lib.Sources() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := ig.replaceSource(ctx, p, bySource[p.ID])
		if err != nil {
			return written, fmt.Errorf("source %d: %w", p.ID, err)
		}
		written += n
		logger.Debug("source exported", zap.Uint32("source", uint32(p.ID)), zap.Int("words", n))
		if ig.OnProgress != nil {
			ig.OnProgress(written, total)
		}
	}

	logger.Info("dictionary exported", zap.Int("sources", len(lib.Sources())), zap.Int("words", written))
	return written, nil
}

// replaceSource writes one source through a BatchWriter sized to hold the
// whole source, so its delete and upserts share a transaction.
func (ig *Ingester) replaceSource(ctx context.Context, p dictionary.Provenance, entries []dictionary.Entry) (int, error) {
	bw := NewBatchWriter(ig.DB, len(entries)+1)
	if err := bw.Submit(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := db.UpsertSource(tx, int64(p.ID), p.Path); err != nil {
			return err
		}
		_, err := db.DeleteWordsBySource(tx, int64(p.ID))
		return err
	}); err != nil {
		return 0, err
	}

	for _, e := range entries {
		w := db.Word{
			GUID:        e.ID.String(),
			SourceID:    int64(e.Source),
			Key:         e.Key,
			Traditional: e.Traditional,
			Simplified:  e.Simplified,
			Pinyin:      e.Pinyin,
			Definition:  e.Definition,
		}
		if err := bw.Submit(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return db.UpsertWord(tx, w)
		}); err != nil {
			return 0, err
		}
	}

	if err := bw.Close(ctx); err != nil {
		return 0, err
	}
	return len(entries), nil
}

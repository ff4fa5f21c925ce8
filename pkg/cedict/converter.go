package cedict

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/ingest"
)

const (
	chunkSize   = 1024
	maxLineSize = 1024 * 1024
)

// LineError reports the input line a conversion failed on.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Stats summarises a conversion run.
type Stats struct {
	Lines     int
	Converted int
	Skipped   int
}

// Converter turns a CC-CEDICT stream into dictionary lines. Lines are
// converted concurrently but written in input order.
type Converter struct {
	// Workers is the number of conversion goroutines. Zero means GOMAXPROCS.
	Workers int
	// SkipInvalid logs and counts malformed lines instead of aborting.
	SkipInvalid bool
	Logger      *zap.Logger
}

type pendingLine struct {
	no   int
	text string
	out  string
	err  error
}

// Convert reads CC-CEDICT from r and writes converted lines to w. Blank
// lines and "#" comments are skipped. Without SkipInvalid the first
// malformed line stops the conversion with a *LineError; lines before it
// have already been written.
func (c Converter) Convert(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// queued jobs must run to completion so each chunk's WaitGroup drains
	pool := ingest.NewWorkerPool(workers, chunkSize)
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Close()

	var stats Stats
	bw := bufio.NewWriter(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	chunk := make([]*pendingLine, 0, chunkSize)
	flush := func() error {
		var wg sync.WaitGroup
		for _, p := range chunk {
			p := p
			wg.Add(1)
			err := pool.SubmitCtx(ctx, func(context.Context) error {
				defer wg.Done()
				p.out, p.err = convertLine(p.text)
				return nil
			})
			if err != nil {
				wg.Done()
				wg.Wait()
				return err
			}
		}
		wg.Wait()

		for _, p := range chunk {
			if p.err != nil {
				lerr := &LineError{Line: p.no, Text: p.text, Err: p.err}
				if !c.SkipInvalid {
					return lerr
				}
				logger.Warn("skipping line", zap.Int("line", p.no), zap.Error(p.err))
				stats.Skipped++
				continue
			}
			if _, err := bw.WriteString(p.out + "\n"); err != nil {
				return err
			}
			stats.Converted++
		}
		chunk = chunk[:0]
		logger.Debug("converted", zap.Int("lines", stats.Lines), zap.Int("entries", stats.Converted))
		return nil
	}

	for sc.Scan() {
		stats.Lines++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		chunk = append(chunk, &pendingLine{no: stats.Lines, text: line})
		if len(chunk) == chunkSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := flush(); err != nil {
				_ = bw.Flush()
				return stats, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		_ = bw.Flush()
		return stats, fmt.Errorf("read: %w", err)
	}
	if err := flush(); err != nil {
		_ = bw.Flush()
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("write: %w", err)
	}
	logger.Info("conversion finished",
		zap.Int("lines", stats.Lines),
		zap.Int("entries", stats.Converted),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func convertLine(line string) (string, error) {
	rec, err := ParseLine(line)
	if err != nil {
		return "", err
	}
	return rec.Convert()
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/config"
	"github.com/japaniel/pime/pkg/db"
	"github.com/japaniel/pime/pkg/dictionary"
	"github.com/japaniel/pime/pkg/freq"
	"github.com/japaniel/pime/pkg/ingest"
	"github.com/japaniel/pime/pkg/logging"
	"github.com/japaniel/pime/pkg/pinyin"

	_ "github.com/mattn/go-sqlite3"
)

const usage = `usage: pime [flags] <command> [args]

commands:
  lookup [-tone n] <pinyin>   entries whose key starts with the pinyin
  search <text>               entries whose definition contains text
  list                        every entry in key order
  count                       number of entries
  add -trad -simp -pinyin -def
  edit -key <key> [-n row] [-trad -simp -pinyin -def]
  erase -key <key> [-n row]
  export [-db file]           mirror all sources into SQLite

Entries print as: key, row, traditional, simplified, pinyin, definition.
An entry is addressed by its key and its row among the entries sharing
that key; rows count from 1.
`

// errUsage is returned for bad invocations; run has already printed why.
var errUsage = errors.New("usage")

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "pime: %v\n", err)
		}
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	lib    *dictionary.Library
	freq   *freq.Table
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("pime", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	personal := fs.String("personal", cfg.Personal, "Path to the personal dictionary")
	reference := fs.String("reference", cfg.Reference, "Path to the reference dictionary")
	sources := fs.String("sources", strings.Join(cfg.Sources, string(filepath.ListSeparator)), "Directories with additional *.dict files")
	freqFlag := fs.String("freq", cfg.Freq, "Path to a word frequency table used to rank results")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cfg.Personal = *personal
	cfg.Reference = *reference
	cfg.Sources = filepath.SplitList(*sources)
	cfg.Freq = *freqFlag
	cfg.LogLevel = *logLevel

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
	a.lib = dictionary.NewLibrary(dictionary.New(dictionary.WithLogger(logger)), logger)
	if err := a.lib.Open(cfg.Personal, cfg.Reference, cfg.Sources...); err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	if cfg.Freq != "" {
		table, err := freq.LoadFile(cfg.Freq)
		if err != nil {
			logger.Warn("frequency table not loaded, results stay in key order", zap.Error(err))
		} else {
			a.freq = table
		}
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "lookup":
		return a.lookup(rest)
	case "search":
		return a.search(rest)
	case "list":
		a.print(a.lib.Dictionary().Flatten())
		return nil
	case "count":
		fmt.Fprintln(stdout, a.lib.Dictionary().WordCount())
		return nil
	case "add":
		return a.add(rest)
	case "edit":
		return a.edit(rest)
	case "erase":
		return a.erase(rest)
	case "export":
		return a.export(ctx, rest)
	default:
		fmt.Fprintf(stderr, "pime: unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}
}

func (a *app) subcommand(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) print(entries []dictionary.Entry) {
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "%s\t%d\t%s\t%s\t%s\t%s\n",
			e.Key, a.row(e), e.Traditional, e.Simplified, e.Pinyin, e.Definition)
	}
}

// row returns the 1-based position of e among the entries sharing its key.
// Entry ids are minted per process; key and row survive a reload.
func (a *app) row(e dictionary.Entry) int {
	for i, other := range a.lib.Dictionary().Exact(e.Key) {
		if other.ID == e.ID {
			return i + 1
		}
	}
	return 0
}

func (a *app) lookup(args []string) error {
	fs := a.subcommand("lookup")
	tone := fs.Int("tone", pinyin.NoTone, "Only entries carrying this tone (1-5)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "usage: pime lookup [-tone n] <pinyin>")
		return errUsage
	}
	if *tone < pinyin.NoTone || *tone > pinyin.Neutral {
		return fmt.Errorf("tone %d out of range", *tone)
	}

	key := pinyin.Key(strings.Join(fs.Args(), ""))
	d := a.lib.Dictionary()
	var entries []dictionary.Entry
	if *tone == pinyin.NoTone {
		entries = d.Lookup(key)
	} else {
		entries = d.LookupTone(key, *tone)
	}
	a.freq.Rank(entries)
	a.print(entries)
	return nil
}

func (a *app) search(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, "usage: pime search <text>")
		return errUsage
	}
	entries := a.lib.Dictionary().Search(strings.Join(args, " "))
	a.freq.Rank(entries)
	a.print(entries)
	return nil
}

type entryFlags struct {
	trad, simp, pinyin, def *string
}

func addEntryFlags(fs *flag.FlagSet) entryFlags {
	return entryFlags{
		trad:   fs.String("trad", "", "Traditional form"),
		simp:   fs.String("simp", "", "Simplified form"),
		pinyin: fs.String("pinyin", "", "Pinyin, tone marks or tone digits (ni3 hao3)"),
		def:    fs.String("def", "", "Definition"),
	}
}

// accented converts numbered pinyin to tone marks and leaves marked
// pinyin alone.
func accented(raw string) (string, error) {
	if !pinyin.HasToneDigits(raw) {
		return raw, nil
	}
	return pinyin.Accent(raw)
}

func (a *app) add(args []string) error {
	fs := a.subcommand("add")
	f := addEntryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	pin, err := accented(*f.pinyin)
	if err != nil {
		return err
	}
	e := dictionary.Entry{
		Traditional: *f.trad,
		Simplified:  *f.simp,
		Pinyin:      pin,
		Definition:  *f.def,
		Source:      dictionary.PersonalSource,
	}
	if _, err := a.lib.Dictionary().Store(&e); err != nil {
		return err
	}
	if err := a.lib.SaveAll(); err != nil {
		return err
	}
	a.print([]dictionary.Entry{e})
	return nil
}

// addressFlags registers the -key and -n selector flags.
func addressFlags(fs *flag.FlagSet) (key *string, n *int) {
	key = fs.String("key", "", "Entry key, as printed in the first column")
	n = fs.Int("n", 1, "Entry row under the key, as printed in the second column")
	return key, n
}

func (a *app) entryAt(key string, n int) (dictionary.Entry, error) {
	if key == "" {
		return dictionary.Entry{}, errors.New("-key is required")
	}
	key = pinyin.Key(key)
	entries := a.lib.Dictionary().Exact(key)
	if n < 1 || n > len(entries) {
		return dictionary.Entry{}, fmt.Errorf("no entry %s row %d (%d entries under that key)", key, n, len(entries))
	}
	return entries[n-1], nil
}

func (a *app) edit(args []string) error {
	fs := a.subcommand("edit")
	key, n := addressFlags(fs)
	f := addEntryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	old, err := a.entryAt(*key, *n)
	if err != nil {
		return err
	}

	e := old
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if set["trad"] {
		e.Traditional = *f.trad
	}
	if set["simp"] {
		e.Simplified = *f.simp
	}
	if set["def"] {
		e.Definition = *f.def
	}
	if set["pinyin"] {
		if e.Pinyin, err = accented(*f.pinyin); err != nil {
			return err
		}
	}

	d := a.lib.Dictionary()
	res, err := d.Store(&e)
	if err != nil {
		return err
	}
	if res == dictionary.Inserted {
		// new pinyin means a new key; the old entry is replaced
		d.Erase(old)
	}
	if err := a.lib.SaveAll(); err != nil {
		return err
	}
	a.print([]dictionary.Entry{e})
	return nil
}

func (a *app) erase(args []string) error {
	fs := a.subcommand("erase")
	key, n := addressFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	e, err := a.entryAt(*key, *n)
	if err != nil {
		return err
	}
	a.lib.Dictionary().Erase(e)
	return a.lib.SaveAll()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.subcommand("export")
	dbFlag := fs.String("db", a.cfg.DB, "Path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if dir := filepath.Dir(*dbFlag); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", *dbFlag)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	if err := db.InitDB(conn); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	ig := ingest.NewIngester(conn)
	ig.Logger = a.logger
	ig.OnProgress = func(current, total int) {
		a.logger.Debug("export progress", zap.Int("current", current), zap.Int("total", total))
	}
	n, err := ig.Ingest(ctx, a.lib)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "exported %d words to %s\n", n, *dbFlag)
	return nil
}

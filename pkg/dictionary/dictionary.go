package dictionary

import (
	"strings"

	"github.com/google/btree"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/pinyin"
)

// ID identifies one entry for the lifetime of the process. The zero ID
// means "not stored yet".
type ID = ulid.ULID

// SourceID tags an entry with the file it came from.
type SourceID uint32

// Entry is a single dictionary word.
type Entry struct {
	ID          ID
	Key         string // tone-free lookup key derived from Pinyin
	Traditional string
	Simplified  string
	Pinyin      string // display form with tone marks
	Definition  string
	Source      SourceID
	Erased      bool
}

// StoreResult tells whether Store modified an existing entry or added one.
type StoreResult int

const (
	Inserted StoreResult = iota
	Updated
)

func (r StoreResult) String() string {
	if r == Updated {
		return "updated"
	}
	return "inserted"
}

// node is the index record of one live entry. Nodes sharing a key are
// ordered by source, then insertion order, which is also the order a
// Library reloads its saved files in.
type node struct {
	key    string
	source SourceID
	seq    uint64
	id     ID
}

func nodeLess(a, b node) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	if a.source != b.source {
		return a.source < b.source
	}
	return a.seq < b.seq
}

type record struct {
	Entry
	seq uint64
}

// Dictionary is an in-memory word store indexed by lookup key.
//
// A Dictionary is not safe for concurrent use; callers sharing one across
// goroutines must serialize access themselves.
type Dictionary struct {
	index   *btree.BTreeG[node]
	entries map[ID]*record // erased entries stay here
	seq     uint64

	skipDuplicates bool
	logger         *zap.Logger
}

// Option configures a Dictionary.
type Option func(*Dictionary)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dictionary) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// SkipDuplicates makes Load drop a line when an entry with the same key,
// pinyin and traditional form is already stored.
func SkipDuplicates() Option {
	return func(d *Dictionary) { d.skipDuplicates = true }
}

// New creates an empty dictionary.
func New(opts ...Option) *Dictionary {
	d := &Dictionary{
		index:   btree.NewG(32, nodeLess),
		entries: make(map[ID]*record),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WordCount returns the number of live (not erased) entries.
func (d *Dictionary) WordCount() int {
	return d.index.Len()
}

// Get returns the live entry with the given identifier.
func (d *Dictionary) Get(id ID) (Entry, bool) {
	rec, ok := d.entries[id]
	if !ok || rec.Erased {
		return Entry{}, false
	}
	return rec.Entry, true
}

// Lookup returns the entries whose key starts with prefix, in key order.
// An empty prefix matches nothing; use Flatten to list everything.
func (d *Dictionary) Lookup(prefix string) []Entry {
	if prefix == "" {
		return nil
	}
	var out []Entry
	d.index.AscendGreaterOrEqual(node{key: prefix}, func(n node) bool {
		if !strings.HasPrefix(n.key, prefix) {
			return false
		}
		out = append(out, d.entries[n.id].Entry)
		return true
	})
	return out
}

// Exact returns the live entries whose key is exactly key, in index
// order. An entry's position in the result is its row under that key.
func (d *Dictionary) Exact(key string) []Entry {
	var out []Entry
	d.index.AscendGreaterOrEqual(node{key: key}, func(n node) bool {
		if n.key != key {
			return false
		}
		out = append(out, d.entries[n.id].Entry)
		return true
	})
	return out
}

// LookupTone is Lookup restricted to entries whose pinyin carries tone.
// Neutral matches entries without any tone mark.
func (d *Dictionary) LookupTone(prefix string, tone int) []Entry {
	var out []Entry
	for _, e := range d.Lookup(prefix) {
		if hasTone(e.Pinyin, tone) {
			out = append(out, e)
		}
	}
	return out
}

func hasTone(romanized string, tone int) bool {
	marked := false
	for _, r := range romanized {
		_, t := pinyin.Split(r)
		if t == pinyin.NoTone {
			continue
		}
		if t == tone {
			return true
		}
		marked = true
	}
	return tone == pinyin.Neutral && !marked
}

// Search returns the live entries whose definition contains text. The
// match is case sensitive.
func (d *Dictionary) Search(text string) []Entry {
	var out []Entry
	d.index.Ascend(func(n node) bool {
		e := d.entries[n.id]
		if strings.Contains(e.Definition, text) {
			out = append(out, e.Entry)
		}
		return true
	})
	return out
}

// Flatten returns every live entry in key order.
func (d *Dictionary) Flatten() []Entry {
	out := make([]Entry, 0, d.index.Len())
	d.index.Ascend(func(n node) bool {
		out = append(out, d.entries[n.id].Entry)
		return true
	})
	return out
}

// Store updates the entry identified by e.ID when a live entry with that
// identifier and the same derived key exists; otherwise it inserts e under
// a newly minted identifier. On success e.ID and e.Key are set to the
// stored values. An entry without a Source is assigned PersonalSource.
func (d *Dictionary) Store(e *Entry) (StoreResult, error) {
	if err := validate(e); err != nil {
		return Inserted, err
	}
	key := pinyin.Key(e.Pinyin)

	if rec, ok := d.entries[e.ID]; ok && !rec.Erased && rec.Key == key {
		rec.Traditional = e.Traditional
		rec.Simplified = e.Simplified
		rec.Pinyin = e.Pinyin
		rec.Definition = e.Definition
		e.Key = key
		e.Source = rec.Source
		e.Erased = false
		return Updated, nil
	}

	if e.Source == 0 {
		e.Source = PersonalSource
	}
	e.Key = key
	e.Erased = false
	e.ID = d.insert(*e)
	return Inserted, nil
}

// Erase marks the entry erased and drops it from the index. It reports
// false when no live entry with that key and identifier exists.
func (d *Dictionary) Erase(e Entry) bool {
	key := e.Key
	if key == "" {
		key = pinyin.Key(e.Pinyin)
	}
	rec, ok := d.entries[e.ID]
	if !ok || rec.Erased || rec.Key != key {
		return false
	}
	d.index.Delete(node{key: rec.Key, source: rec.Source, seq: rec.seq})
	rec.Erased = true
	return true
}

// insert mints an identifier for e and adds it to the arena and index.
// e.Key must already be derived.
func (d *Dictionary) insert(e Entry) ID {
	e.ID = ulid.Make()
	d.seq++
	rec := &record{Entry: e, seq: d.seq}
	d.entries[e.ID] = rec
	d.index.ReplaceOrInsert(node{key: e.Key, source: e.Source, seq: rec.seq, id: e.ID})
	return e.ID
}

// hasDuplicate reports whether a live entry equals e by key, pinyin and
// traditional form.
func (d *Dictionary) hasDuplicate(e Entry) bool {
	found := false
	d.index.AscendGreaterOrEqual(node{key: e.Key}, func(n node) bool {
		if n.key != e.Key {
			return false
		}
		other := d.entries[n.id]
		if other.Pinyin == e.Pinyin && other.Traditional == e.Traditional {
			found = true
			return false
		}
		return true
	})
	return found
}

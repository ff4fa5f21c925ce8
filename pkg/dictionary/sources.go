package dictionary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Reserved source ids.
const (
	PersonalSource  SourceID = 1 // the user's writable vocabulary
	ReferenceSource SourceID = 2 // bundled reference dictionary
)

// SourceExt is the file extension of discovered dictionary files.
const SourceExt = ".dict"

// Provenance records which file a source id was loaded from.
type Provenance struct {
	ID   SourceID
	Path string
}

// Library loads a dictionary from several files and writes every entry
// back to the file it came from.
type Library struct {
	dict    *Dictionary
	sources []Provenance
	next    SourceID
	logger  *zap.Logger
}

// NewLibrary wraps dict. A nil logger disables logging.
func NewLibrary(dict *Dictionary, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		dict:   dict,
		next:   ReferenceSource + 1,
		logger: logger,
	}
}

// Dictionary returns the dictionary holding the entries of every source.
func (l *Library) Dictionary() *Dictionary { return l.dict }

// Sources returns the provenance records in load order.
func (l *Library) Sources() []Provenance {
	out := make([]Provenance, len(l.sources))
	copy(out, l.sources)
	return out
}

// Source returns the provenance record of id.
func (l *Library) Source(id SourceID) (Provenance, bool) {
	for _, p := range l.sources {
		if p.ID == id {
			return p, true
		}
	}
	return Provenance{}, false
}

// registered returns the source already loaded from the file at path.
func (l *Library) registered(path string) (SourceID, bool) {
	for _, p := range l.sources {
		if samePath(p.Path, path) {
			return p.ID, true
		}
	}
	return 0, false
}

// samePath reports whether a and b name the same file, either textually
// once cleaned and made absolute, or by identity when both exist.
func samePath(a, b string) bool {
	if absPath(a) == absPath(b) {
		return true
	}
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Open loads the personal dictionary, then the reference dictionary, then
// every *.dict file found in dirs. A missing personal file counts as empty
// and is created by the next save; a missing reference file is skipped.
// Any other failure stops Open and is returned.
func (l *Library) Open(personal, reference string, dirs ...string) error {
	if personal != "" {
		err := l.dict.Load(personal, PersonalSource)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Info("personal dictionary not found, starting empty", zap.String("path", personal))
		case err != nil:
			return err
		}
		l.sources = append(l.sources, Provenance{ID: PersonalSource, Path: personal})
	}

	if _, dup := l.registered(reference); dup && reference != "" {
		l.logger.Warn("reference dictionary is the personal dictionary, skipped", zap.String("path", reference))
		reference = ""
	}
	if reference != "" {
		err := l.dict.Load(reference, ReferenceSource)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Warn("reference dictionary not found", zap.String("path", reference))
		case err != nil:
			return err
		default:
			l.sources = append(l.sources, Provenance{ID: ReferenceSource, Path: reference})
		}
	}

	for _, dir := range dirs {
		paths, err := discover(dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			// already loaded files are skipped by Register
			if _, err := l.Register(path); err != nil {
				return err
			}
		}
	}

	l.logger.Info("dictionary opened",
		zap.Int("sources", len(l.sources)),
		zap.Int("words", l.dict.WordCount()))
	return nil
}

// Register loads path under the next free source id and records it. A
// file that is already loaded, under any spelling of its path, is not
// loaded again; its existing id is returned.
func (l *Library) Register(path string) (SourceID, error) {
	if id, ok := l.registered(path); ok {
		return id, nil
	}
	id := l.next
	if err := l.dict.Load(path, id); err != nil {
		return 0, err
	}
	l.next++
	l.sources = append(l.sources, Provenance{ID: id, Path: path})
	return id, nil
}

// discover lists the dictionary files of dir in name order.
func discover(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "scan", Path: dir, Err: err}
	}
	var paths []string
	for _, ent := range ents {
		if ent.IsDir() || filepath.Ext(ent.Name()) != SourceExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, ent.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// SaveAll saves every source to its file. It keeps going after a failure
// and returns all failures joined.
func (l *Library) SaveAll() error {
	var errs []error
	for _, p := range l.sources {
		if err := l.dict.Save(p.Path, p.ID); err != nil {
			l.logger.Error("save failed", zap.String("path", p.Path), zap.Error(err))
			errs = append(errs, fmt.Errorf("source %d: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

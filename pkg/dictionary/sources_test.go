package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryOpen(t *testing.T) {
	dir := t.TempDir()
	personal := writeFile(t, dir, "personal", "哀|哀|āi|sorrow\n")
	reference := writeFile(t, dir, "reference", "愛|爱|ài|to love\n")

	extra := filepath.Join(dir, "extra")
	require.NoError(t, os.Mkdir(extra, 0755))
	writeFile(t, extra, "b.dict", "北京|北京|Běijīng|Beijing\n")
	writeFile(t, extra, "a.dict", "你好|你好|nǐhǎo|hello\n")
	writeFile(t, extra, "notes.txt", "not a dictionary")

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, reference, extra, filepath.Join(dir, "absent")))

	assert.Equal(t, []Provenance{
		{ID: PersonalSource, Path: personal},
		{ID: ReferenceSource, Path: reference},
		{ID: 3, Path: filepath.Join(extra, "a.dict")},
		{ID: 4, Path: filepath.Join(extra, "b.dict")},
	}, lib.Sources())
	assert.Equal(t, 4, lib.Dictionary().WordCount())

	got := lib.Dictionary().Lookup("Bei")
	require.Len(t, got, 1)
	assert.Equal(t, SourceID(4), got[0].Source)

	p, ok := lib.Source(ReferenceSource)
	require.True(t, ok)
	assert.Equal(t, reference, p.Path)
	_, ok = lib.Source(9)
	assert.False(t, ok)
}

func TestLibraryOpenMissingFiles(t *testing.T) {
	dir := t.TempDir()
	personal := filepath.Join(dir, "personal")

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, filepath.Join(dir, "reference")))
	assert.Equal(t, []Provenance{{ID: PersonalSource, Path: personal}}, lib.Sources())

	e := Entry{Traditional: "愛", Simplified: "爱", Pinyin: "ài", Definition: "love"}
	_, err := lib.Dictionary().Store(&e)
	require.NoError(t, err)
	require.NoError(t, lib.SaveAll())
	assert.Equal(t, "愛|爱|ài|love\n", readFile(t, personal))
}

func TestLibraryOpenMalformed(t *testing.T) {
	dir := t.TempDir()
	personal := writeFile(t, dir, "personal", "broken line\n")

	lib := NewLibrary(New(), nil)
	err := lib.Open(personal, "")
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, 0, lib.Dictionary().WordCount())
}

func TestLibrarySaveAllRoutesBySource(t *testing.T) {
	dir := t.TempDir()
	personal := writeFile(t, dir, "personal", "")
	reference := writeFile(t, dir, "reference", "愛|爱|ài|to love\n")

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, reference))

	e := Entry{Traditional: "哀", Simplified: "哀", Pinyin: "āi", Definition: "sorrow", Source: PersonalSource}
	_, err := lib.Dictionary().Store(&e)
	require.NoError(t, err)

	require.NoError(t, lib.SaveAll())
	assert.Equal(t, "哀|哀|āi|sorrow\n", readFile(t, personal))
	assert.Equal(t, "愛|爱|ài|to love\n", readFile(t, reference))
}

func TestLibrarySaveAllReportsFailures(t *testing.T) {
	dir := t.TempDir()
	personal := writeFile(t, dir, "personal", "哀|哀|āi|sorrow\n")
	extra := filepath.Join(dir, "extra")
	require.NoError(t, os.Mkdir(extra, 0755))
	writeFile(t, extra, "a.dict", "愛|爱|ài|to love\n")

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, "", extra))
	// replace the directory with a file so a.dict cannot be rewritten
	require.NoError(t, os.RemoveAll(extra))
	require.NoError(t, os.WriteFile(extra, nil, 0644))

	err := lib.SaveAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	// the healthy source was still written
	assert.Equal(t, "哀|哀|āi|sorrow\n", readFile(t, personal))
}

func TestLibraryRegister(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(New(), nil)

	bad := writeFile(t, dir, "bad.dict", "x|y\n")
	_, err := lib.Register(bad)
	require.Error(t, err)
	assert.Empty(t, lib.Sources())

	good := writeFile(t, dir, "good.dict", "愛|爱|ài|to love\n")
	id, err := lib.Register(good)
	require.NoError(t, err)
	assert.Equal(t, SourceID(3), id)
}

func TestLibraryOpenSameFileTwice(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "personal.dict", "愛|爱|ài|to love\n")
	personal := dir + string(filepath.Separator) + "." + string(filepath.Separator) + "personal.dict"

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, path, dir))
	assert.Equal(t, []Provenance{{ID: PersonalSource, Path: personal}}, lib.Sources())
	assert.Equal(t, 1, lib.Dictionary().WordCount())

	e := Entry{Traditional: "好", Simplified: "好", Pinyin: "hǎo", Definition: "good"}
	_, err := lib.Dictionary().Store(&e)
	require.NoError(t, err)
	require.NoError(t, lib.SaveAll())
	assert.Equal(t, "愛|爱|ài|to love\n好|好|hǎo|good\n", readFile(t, path))
}

func TestLibraryRegisterSymlinkedSource(t *testing.T) {
	dir := t.TempDir()
	personal := writeFile(t, dir, "personal.dict", "愛|爱|ài|to love\n")
	link := filepath.Join(t.TempDir(), "link.dict")
	if err := os.Symlink(personal, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	lib := NewLibrary(New(), nil)
	require.NoError(t, lib.Open(personal, ""))
	id, err := lib.Register(link)
	require.NoError(t, err)
	assert.Equal(t, PersonalSource, id)
	assert.Len(t, lib.Sources(), 1)
	assert.Equal(t, 1, lib.Dictionary().WordCount())
}

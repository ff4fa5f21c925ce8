package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// UpsertSource records a dictionary file under its source id and stamps
// the export time.
func UpsertSource(db DBExecutor, id int64, path string) error {
	if id <= 0 {
		return fmt.Errorf("source id must be positive")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("source path must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO sources (id, path, exported_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path = excluded.path, exported_at = excluded.exported_at`,
		id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// GetSource returns the source with the given id.
func GetSource(db DBExecutor, id int64) (Source, error) {
	var s Source
	var exported sql.NullTime
	err := db.QueryRow(`SELECT id, path, exported_at FROM sources WHERE id = ?`, id).Scan(&s.ID, &s.Path, &exported)
	if err != nil {
		return Source{}, err
	}
	if exported.Valid {
		s.ExportedAt = exported.Time
	}
	return s, nil
}

// UpsertWord inserts a word or overwrites the row with the same guid.
func UpsertWord(db DBExecutor, w Word) error {
	if w.GUID == "" {
		return fmt.Errorf("word guid must be non-empty")
	}
	if w.SourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	_, err := db.Exec(`INSERT INTO words (guid, source_id, key, traditional, simplified, pinyin, definition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
		  source_id = excluded.source_id,
		  key = excluded.key,
		  traditional = excluded.traditional,
		  simplified = excluded.simplified,
		  pinyin = excluded.pinyin,
		  definition = excluded.definition`,
		w.GUID, w.SourceID, w.Key, w.Traditional, w.Simplified, w.Pinyin, w.Definition)
	if err != nil {
		return fmt.Errorf("upsert word %s: %w", w.GUID, err)
	}
	return nil
}

// DeleteWordsBySource removes every word of a source and returns how many
// rows went away.
func DeleteWordsBySource(db DBExecutor, sourceID int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM words WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const wordColumns = `guid, source_id, key, traditional, simplified, pinyin, definition`

// GetWordsBySource returns the words of a source ordered by key.
func GetWordsBySource(db DBExecutor, sourceID int64) ([]Word, error) {
	rows, err := db.Query(`SELECT `+wordColumns+` FROM words WHERE source_id = ? ORDER BY key, rowid`, sourceID)
	if err != nil {
		return nil, err
	}
	return scanWords(rows)
}

// LookupWords returns the words whose key starts with prefix, ordered by key.
func LookupWords(db DBExecutor, prefix string) ([]Word, error) {
	if prefix == "" {
		return nil, nil
	}
	rows, err := db.Query(`SELECT `+wordColumns+` FROM words
		WHERE substr(key, 1, length(?)) = ? ORDER BY key, rowid`, prefix, prefix)
	if err != nil {
		return nil, err
	}
	return scanWords(rows)
}

// CountWords returns the number of mirrored words.
func CountWords(db DBExecutor) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanWords(rows *sql.Rows) ([]Word, error) {
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.GUID, &w.SourceID, &w.Key, &w.Traditional, &w.Simplified, &w.Pinyin, &w.Definition); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package db

import "time"

// Word is one dictionary entry as mirrored in the words table.
type Word struct {
	GUID        string
	SourceID    int64
	Key         string
	Traditional string
	Simplified  string
	Pinyin      string
	Definition  string
}

// Source is the provenance record of a dictionary file.
type Source struct {
	ID         int64
	Path       string
	ExportedAt time.Time
}

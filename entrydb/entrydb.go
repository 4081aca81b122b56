// Package entrydb stores raw transparency log entries. Entries never change
// once integrated into the log, so a stored record can be served in place
// of a fetch.
package entrydb

import "time"

// EntryRecord is one raw log entry as recorded in a database. Body holds the
// JSON encoding of the entry as the log returned it.
type EntryRecord struct {
	UUID           string    `db:"uuid"`
	LogIndex       int64     `db:"log_index"`
	LogID          string    `db:"log_id"`
	IntegratedTime int64     `db:"integrated_time"`
	Body           string    `db:"body"`
	FetchedAt      time.Time `db:"fetched_at"`
}

// Accessor abstracts the storage of entry records.
type Accessor interface {
	InsertEntry(er EntryRecord) error
	GetEntry(uuid string) ([]EntryRecord, error)
	GetEntryByIndex(logIndex int64) ([]EntryRecord, error)
}

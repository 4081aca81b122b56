package sql

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sigstore/rekor-search-ui/entrydb"
	rserr "github.com/sigstore/rekor-search-ui/errors"

	"github.com/jmoiron/sqlx"
	"github.com/kisielk/sqlstruct"
)

// Match to sqlx
func init() {
	sqlstruct.TagName = "db"
}

const (
	insertSQL = `
INSERT INTO entries (uuid, log_index, log_id, integrated_time, body, fetched_at)
VALUES (:uuid, :log_index, :log_id, :integrated_time, :body, :fetched_at);`

	selectSQL = `
SELECT %s FROM entries
	WHERE (uuid = ?);`

	selectByIndexSQL = `
SELECT %s FROM entries
	WHERE (log_index = ?);`
)

var sqliteUnique = regexp.MustCompile(`(^|\s)UNIQUE constraint failed\b`)

// Accessor implements entrydb.Accessor interface.
type Accessor struct {
	db *sqlx.DB
}

var _ entrydb.Accessor = &Accessor{}

func wrapSQLError(err error) error {
	if err != nil {
		reason := rserr.Unknown

		// Unique constraint errors have different codes in different DB
		// engines so must be detected separately.

		// MySQL/MariaDB
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			reason = rserr.DuplicateEntry
		}

		// PostgreSQL
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			reason = rserr.DuplicateEntry
		}

		// SQLite
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			if sqliteUnique.MatchString(err.Error()) {
				reason = rserr.DuplicateEntry
			}
		}

		return rserr.Wrap(rserr.StoreError, reason, err)
	}
	return nil
}

func (d *Accessor) checkDB() error {
	if d.db == nil {
		return rserr.Wrap(rserr.StoreError, rserr.Unknown,
			errors.New("unknown db object, please check SetDB method"))
	}
	return nil
}

// NewAccessor returns a new Accessor.
func NewAccessor(db *sqlx.DB) *Accessor {
	return &Accessor{db: db}
}

// SetDB changes the underlying sql.DB object Accessor is manipulating.
func (d *Accessor) SetDB(db *sqlx.DB) {
	d.db = db
}

// InsertEntry puts an entrydb.EntryRecord into db.
func (d *Accessor) InsertEntry(er entrydb.EntryRecord) error {
	err := d.checkDB()
	if err != nil {
		return err
	}

	er.FetchedAt = er.FetchedAt.UTC()
	res, err := d.db.NamedExec(insertSQL, &er)
	if err != nil {
		return wrapSQLError(err)
	}

	numRowsAffected, err := res.RowsAffected()
	if err != nil {
		return wrapSQLError(err)
	}

	if numRowsAffected == 0 {
		return rserr.Wrap(rserr.StoreError, rserr.InsertionFailed, fmt.Errorf("failed to insert the entry record"))
	}

	if numRowsAffected != 1 {
		return wrapSQLError(fmt.Errorf("%d rows are affected, should be 1 row", numRowsAffected))
	}

	return nil
}

// GetEntry gets the entrydb.EntryRecord indexed by uuid.
func (d *Accessor) GetEntry(uuid string) (ers []entrydb.EntryRecord, err error) {
	err = d.checkDB()
	if err != nil {
		return nil, err
	}

	err = d.db.Select(&ers, fmt.Sprintf(d.db.Rebind(selectSQL), sqlstruct.Columns(entrydb.EntryRecord{})), uuid)
	if err != nil {
		return nil, wrapSQLError(err)
	}

	return ers, nil
}

// GetEntryByIndex gets the entrydb.EntryRecord at logIndex.
func (d *Accessor) GetEntryByIndex(logIndex int64) (ers []entrydb.EntryRecord, err error) {
	err = d.checkDB()
	if err != nil {
		return nil, err
	}

	err = d.db.Select(&ers, fmt.Sprintf(d.db.Rebind(selectByIndexSQL), sqlstruct.Columns(entrydb.EntryRecord{})), logIndex)
	if err != nil {
		return nil, wrapSQLError(err)
	}

	return ers, nil
}

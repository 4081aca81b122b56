//go:build postgresql

package sql

import (
	"testing"

	"github.com/sigstore/rekor-search-ui/entrydb/testdb"
)

func TestPostgreSQL(t *testing.T) {
	db := testdb.PostgreSQLDB()
	dba := NewAccessor(db)
	testEverything(dba, t)
}

package db

import (
	"bytes"        // Blob folding
	"database/sql" // Driver registration
	"strings"      // Unicode case folding
	"sync"         // One-time registration

	"github.com/mattn/go-sqlite3" // SQLite driver with connect hooks
)

// sqliteDriverName is the SQLite driver whose LOWER folds Unicode like
// MySQL and Postgres do, rather than ASCII only
const sqliteDriverName = "sqlite3_unicode"

var registerSQLite sync.Once

// sqliteDriver registers the Unicode-aware driver on first use
func sqliteDriver() string {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", unicodeLower, true) // Overrides the built-in
			},
		})
	})
	return sqliteDriverName
}

// unicodeLower lowercases text and blobs, passing NULL and numbers through
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return bytes.ToLower(s)
	default:
		return v
	}
}

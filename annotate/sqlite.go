package annotate

import (
	"database/sql"
	"errors"
	"log"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultQuery selects the symbol of one probe.
const DefaultQuery = "SELECT symbol FROM probes WHERE probe_id = ? LIMIT 1"

// SQLite is an annotation source backed by a SQLite database, such as an
// export of a Bioconductor annotation package. Lookups are memoized.
type SQLite struct {
	db     *sqlx.DB
	query  string
	lookup func(string) string
}

// OpenSQLite opens the database at path read-only. If query is empty,
// DefaultQuery is used; it must take the probe identifier as its only
// parameter and return one text column.
func OpenSQLite(path, query string) (*SQLite, error) {
	if query == "" {
		query = DefaultQuery
	}

	db, err := sqlx.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, pfx.Err(err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	s := &SQLite{db: db, query: db.Rebind(query)}
	s.lookup = memoize.Memoize(s.fetch).(func(string) string)

	return s, nil
}

func (s *SQLite) fetch(id string) string {
	var symbol sql.NullString
	if err := s.db.Get(&symbol, s.query, id); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Println(pfx.Err(err))
		}
		return ""
	}

	return symbol.String
}

func (s *SQLite) Symbol(id string) (string, bool) {
	sym := s.lookup(id)
	return sym, sym != ""
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

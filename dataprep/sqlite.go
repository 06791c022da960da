package dataprep

import (
	"database/sql"
	"math"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var sqlUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// sqlName turns a header into a quoted SQLite identifier.
func sqlName(s string) string {
	s = strings.Trim(sqlUnsafe.ReplaceAllString(s, "_"), "_")
	if s == "" {
		s = "col"
	}
	return `"` + s + `"`
}

// WriteSQLite stores each sheet as a table named after it, replacing any
// table of that name. The index becomes a TEXT column and data columns are
// REAL; NaN cells are NULL.
func WriteSQLite(path string, sheets ...*Sheet) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	for _, s := range sheets {
		if err := writeTable(db, s); err != nil {
			return errors.Wrapf(err, "%s: table %s", path, s.Name)
		}
	}
	logger.Infof("saved %s (%d tables)", path, len(sheets))
	return nil
}

func writeTable(db *sql.DB, s *Sheet) error {
	table := sqlName(s.Name)
	var defs, cols []string
	if s.Index != nil {
		name := s.IndexName
		if name == "" {
			name = "index"
		}
		cols = append(cols, sqlName(name))
		defs = append(defs, sqlName(name)+" TEXT")
	}
	for _, c := range s.Columns() {
		cols = append(cols, sqlName(c))
		defs = append(defs, sqlName(c)+" REAL")
	}

	if _, err := db.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE ` + table + ` (` + strings.Join(defs, ", ") + `)`); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (` + strings.Join(cols, ", ") + `) VALUES (` + marks + `)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for r, row := range s.Rows {
		args := make([]interface{}, 0, len(cols))
		if s.Index != nil {
			args = append(args, s.Index[r])
		}
		for _, v := range row {
			if math.IsNaN(v) {
				args = append(args, nil)
			} else {
				args = append(args, v)
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

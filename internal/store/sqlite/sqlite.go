package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pclima/internal/store"
	"pclima/internal/table"
)

const indexColumn = "row_index"

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveTable replaces the named table with the rows of t. Cells are stored as
// text, empty cells as NULL.
func (s *Store) SaveTable(ctx context.Context, name string, t *table.Table) (err error) {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("sqlite: table name is required")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	columns := columnNames(t.Columns)
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quote(name)); err != nil {
		return err
	}

	definitions := make([]string, 0, len(columns)+1)
	definitions = append(definitions, quote(indexColumn)+" INTEGER NOT NULL")
	for _, column := range columns {
		definitions = append(definitions, quote(column)+" TEXT")
	}
	if _, err = tx.ExecContext(ctx, `CREATE TABLE `+quote(name)+` (`+strings.Join(definitions, ", ")+`)`); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, quote(indexColumn))
	for _, column := range columns {
		quoted = append(quoted, quote(column))
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quote(name)+` (`+strings.Join(quoted, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns)+1)
	for i, row := range t.Rows {
		args[0] = t.Label(i)
		for j := range columns {
			if j < len(row) && row[j] != "" {
				args[j+1] = row[j]
			} else {
				args[j+1] = nil
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pclima_tables (name, column_count, row_count, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			column_count = excluded.column_count,
			row_count = excluded.row_count,
			saved_at = excluded.saved_at
	`, name, len(columns), len(t.Rows), time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pclima_tables ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pclima_tables (
			name TEXT NOT NULL PRIMARY KEY,
			column_count INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

// columnNames makes the names unique and non-empty, as SQL requires.
func columnNames(columns []string) []string {
	out := make([]string, len(columns))
	used := map[string]bool{strings.ToLower(indexColumn): true}
	for i, column := range columns {
		name := strings.TrimSpace(column)
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; used[strings.ToLower(candidate)]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

var _ store.Store = (*Store)(nil)

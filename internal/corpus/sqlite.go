package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnyUserName/wpimg-cli/internal/orphan"

	_ "github.com/mattn/go-sqlite3"
)

// ScanSQLite feeds every column value of every user table in the SQLite
// database at path into b. The database is opened read-only.
func ScanSQLite(ctx context.Context, path string, b *orphan.Builder) error {
	if err := checkExists(path); err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrUnreadableCorpus, path, err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadableCorpus, path, err)
	}

	for _, table := range tables {
		n, err := scanTable(ctx, db, table, b)
		if err != nil {
			return fmt.Errorf("%w: table %s: %v", ErrUnreadableCorpus, table, err)
		}
		slog.Debug("scanned table", "table", table, "rows", n)
	}
	return nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func scanTable(ctx context.Context, db *sql.DB, table string, b *orphan.Builder) (int, error) {
	query := fmt.Sprintf(`SELECT * FROM "%s"`, strings.ReplaceAll(table, `"`, `""`))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	values := make([]sql.RawBytes, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return n, err
		}
		for _, v := range values {
			if len(v) > 0 {
				b.AddText(v)
			}
		}
		n++
	}
	return n, rows.Err()
}

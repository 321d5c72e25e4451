package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingColumns is returned when the CSV lacks a required column.
var ErrMissingColumns = errors.New("CSV missing required columns")

// cropColumns maps the normalized table columns to CSV headers.
type cropColumns struct {
	state, crop, year, production, district string
}

func loadSnapshot(ctx context.Context, csvPath string) (*Snapshot, error) {
	if _, err := os.Stat(csvPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("CSV not found at %s", csvPath)
		}
		return nil, fmt.Errorf("stat CSV: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	snap, err := buildSnapshot(ctx, db, csvPath)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return snap, nil
}

func buildSnapshot(ctx context.Context, db *sql.DB, csvPath string) (*Snapshot, error) {
	// Every value stays text until normalized so malformed numbers become 0
	// instead of failing the whole load.
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE raw AS SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)`,
		quoteLiteral(csvPath)))
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}

	headers, err := rawHeaders(ctx, db)
	if err != nil {
		return nil, err
	}
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	cols, err := resolveColumns(headers, normalized)
	if err != nil {
		return nil, err
	}

	district := "NULL"
	if cols.district != "" {
		district = fmt.Sprintf(`NULLIF(trim(%s), '')`, quoteIdent(cols.district))
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE crop_production AS SELECT
			%s AS state,
			%s AS district,
			%s AS crop,
			COALESCE(CAST(trunc(TRY_CAST(split_part(trim(%s), '-', 1) AS DOUBLE)) AS INTEGER), 0) AS year,
			COALESCE(TRY_CAST(trim(%s) AS DOUBLE), 0) AS production_tonnes
		FROM raw`,
		quoteIdent(cols.state),
		district,
		quoteIdent(cols.crop),
		quoteIdent(cols.year),
		quoteIdent(cols.production),
	))
	if err != nil {
		return nil, fmt.Errorf("normalize crop table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DROP TABLE raw`); err != nil {
		return nil, fmt.Errorf("drop raw table: %w", err)
	}

	snap := &Snapshot{
		db:          db,
		columns:     normalized,
		hasDistrict: cols.district != "",
	}
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM crop_production`).Scan(&snap.rows); err != nil {
		return nil, fmt.Errorf("count crop rows: %w", err)
	}
	return snap, nil
}

func rawHeaders(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'raw'
		ORDER BY ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list CSV columns: %w", err)
	}
	defer rows.Close()

	var headers []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan CSV column: %w", err)
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// resolveColumns picks the source header of every normalized column. The
// first header containing "production" is the production column.
func resolveColumns(headers, normalized []string) (cropColumns, error) {
	var cols cropColumns
	for i, n := range normalized {
		switch {
		case n == "state" && cols.state == "":
			cols.state = headers[i]
		case n == "crop" && cols.crop == "":
			cols.crop = headers[i]
		case n == "year" && cols.year == "":
			cols.year = headers[i]
		case n == "district" && cols.district == "":
			cols.district = headers[i]
		}
		if strings.Contains(n, "production") && cols.production == "" {
			cols.production = headers[i]
		}
	}

	var missing []string
	if cols.state == "" {
		missing = append(missing, "state")
	}
	if cols.production == "" {
		missing = append(missing, "production")
	}
	if cols.crop == "" {
		missing = append(missing, "crop")
	}
	if cols.year == "" {
		missing = append(missing, "year")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w %s. Found: %v", ErrMissingColumns, strings.Join(missing, ", "), normalized)
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

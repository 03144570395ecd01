package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/joeblew999/plat-gold/internal/mining"
)

// Table names for the four collections.
const (
	ConcessionsTable  = "ghana_gold_concessions"
	MinesTable        = "ghana_gold_mines"
	TransactionsTable = "ghana_gold_transactions"
	HeatmapTable      = "ghana_gold_heatmap"
)

// Tables lists the snapshot tables in collection order.
func Tables() []string {
	return []string{ConcessionsTable, MinesTable, TransactionsTable, HeatmapTable}
}

const baseColumns = `ord INTEGER, id VARCHAR PRIMARY KEY, name VARCHAR, city VARCHAR,
	subregion VARCHAR, country VARCHAR, lng DOUBLE, lat DOUBLE`

var schema = []string{
	`CREATE OR REPLACE TABLE ` + ConcessionsTable + ` (` + baseColumns + `, activity_intensity DOUBLE, polygon_wkt VARCHAR)`,
	`CREATE OR REPLACE TABLE ` + MinesTable + ` (` + baseColumns + `, status VARCHAR)`,
	`CREATE OR REPLACE TABLE ` + TransactionsTable + ` (` + baseColumns + `)`,
	`CREATE OR REPLACE TABLE ` + HeatmapTable + ` (` + baseColumns + `, activity_intensity DOUBLE, source_id VARCHAR)`,
}

// SaveDataset replaces the four tables with ds in one transaction.
func SaveDataset(ctx context.Context, conn *sql.DB, ds mining.Dataset) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	base := func(i int, f mining.Feature) []any {
		return []any{i, f.ID, f.Name, f.City, f.Subregion, f.Country, f.Position.Lon(), f.Position.Lat()}
	}

	err = insertRows(ctx, tx, ConcessionsTable, 10, len(ds.Concessions), func(i int) []any {
		c := ds.Concessions[i]
		return append(base(i, c.Feature), c.ActivityIntensity, wkt.MarshalString(orb.Polygon{c.Polygon}))
	})
	if err != nil {
		return err
	}
	err = insertRows(ctx, tx, MinesTable, 9, len(ds.Mines), func(i int) []any {
		m := ds.Mines[i]
		return append(base(i, m.Feature), string(m.Status))
	})
	if err != nil {
		return err
	}
	err = insertRows(ctx, tx, TransactionsTable, 8, len(ds.Transactions), func(i int) []any {
		return base(i, ds.Transactions[i].Feature)
	})
	if err != nil {
		return err
	}
	err = insertRows(ctx, tx, HeatmapTable, 10, len(ds.Heatmap), func(i int) []any {
		h := ds.Heatmap[i]
		return append(base(i, h.Feature), h.ActivityIntensity, h.SourceID)
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, cols, n int, row func(int) []any) error {
	if n == 0 {
		return nil
	}
	placeholders := "?"
	for i := 1; i < cols; i++ {
		placeholders += ", ?"
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// LoadDataset reads the four tables back into a dataset and validates it.
func LoadDataset(ctx context.Context, conn *sql.DB) (mining.Dataset, error) {
	ds := mining.Dataset{
		Concessions:  []mining.Concession{},
		Mines:        []mining.Mine{},
		Transactions: []mining.Transaction{},
		Heatmap:      []mining.HeatmapPoint{},
	}

	var (
		intensity float64
		polyWKT   string
		status    string
		source    string
	)

	err := scanRows(ctx, conn, ConcessionsTable, "activity_intensity, polygon_wkt", []any{&intensity, &polyWKT}, func(f mining.Feature) error {
		poly, err := wkt.UnmarshalPolygon(polyWKT)
		if err != nil {
			return fmt.Errorf("concession %s polygon: %w", f.ID, err)
		}
		if len(poly) == 0 {
			return fmt.Errorf("concession %s polygon is empty", f.ID)
		}
		ds.Concessions = append(ds.Concessions, mining.Concession{Feature: f, Polygon: poly[0], ActivityIntensity: intensity})
		return nil
	})
	if err != nil {
		return mining.Dataset{}, err
	}

	err = scanRows(ctx, conn, MinesTable, "status", []any{&status}, func(f mining.Feature) error {
		ds.Mines = append(ds.Mines, mining.Mine{Feature: f, Status: mining.MineStatus(status)})
		return nil
	})
	if err != nil {
		return mining.Dataset{}, err
	}

	err = scanRows(ctx, conn, TransactionsTable, "", nil, func(f mining.Feature) error {
		ds.Transactions = append(ds.Transactions, mining.Transaction{Feature: f})
		return nil
	})
	if err != nil {
		return mining.Dataset{}, err
	}

	err = scanRows(ctx, conn, HeatmapTable, "activity_intensity, source_id", []any{&intensity, &source}, func(f mining.Feature) error {
		ds.Heatmap = append(ds.Heatmap, mining.HeatmapPoint{Feature: f, ActivityIntensity: intensity, SourceID: source})
		return nil
	})
	if err != nil {
		return mining.Dataset{}, err
	}

	if err := ds.Validate(); err != nil {
		return mining.Dataset{}, fmt.Errorf("table data: %w", err)
	}
	return ds, nil
}

// scanRows reads table in ord order. Each row fills the base feature columns
// plus extra, then calls add.
func scanRows(ctx context.Context, conn *sql.DB, table, extraCols string, extra []any, add func(mining.Feature) error) error {
	cols := "id, name, city, subregion, country, lng, lat"
	if extraCols != "" {
		cols += ", " + extraCols
	}
	rows, err := conn.QueryContext(ctx, "SELECT "+cols+" FROM "+table+" ORDER BY ord")
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f mining.Feature
		var lng, lat float64
		dest := append([]any{&f.ID, &f.Name, &f.City, &f.Subregion, &f.Country, &lng, &lat}, extra...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		f.Position = orb.Point{lng, lat}
		if err := add(f); err != nil {
			return err
		}
	}
	return rows.Err()
}

// HasTables reports whether every snapshot table exists.
func HasTables(ctx context.Context, conn *sql.DB) (bool, error) {
	var n int
	err := conn.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN (?, ?, ?, ?)`,
		ConcessionsTable, MinesTable, TransactionsTable, HeatmapTable,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check tables: %w", err)
	}
	return n == len(Tables()), nil
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// the ingredients column is a list of structs; it is read back as JSON text
const productColumns = `code, product_name, brands, link, CAST(to_json(ingredients) AS VARCHAR) AS ingredients`

// Engine runs DuckDB queries against an Open Food Facts parquet file
type Engine struct {
	db          *sql.DB
	parquetPath string
	log         *slog.Logger
}

// Ensure Engine implements Catalog
var _ Catalog = (*Engine)(nil)

// NewEngine opens an in-memory DuckDB that reads parquetPath on each query
func NewEngine(parquetPath string, logger *slog.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	return &Engine{
		db:          db,
		parquetPath: parquetPath,
		log:         logger,
	}, nil
}

// Close closes the database connection
func (e *Engine) Close() error {
	return e.db.Close()
}

// Search finds products whose name and brand contain the given terms (case-insensitive)
func (e *Engine) Search(ctx context.Context, name, brand string, limit int) ([]Product, error) {
	start := time.Now()
	limit = normalizeLimit(limit)
	e.log.Debug("Catalog search starting", "name", name, "brand", brand, "limit", limit)

	query := `SELECT ` + productColumns + ` FROM read_parquet(?) WHERE 1=1`
	args := []any{e.parquetPath}

	if name != "" {
		query += ` AND product_name ILIKE ?`
		args = append(args, "%"+name+"%")
	}
	if brand != "" {
		query += ` AND brands ILIKE ?`
		args = append(args, "%"+brand+"%")
	}

	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		e.log.Error("DuckDB query failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			e.log.Error("Row scan failed", "error", err)
			continue
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		e.log.Error("Rows iteration failed", "error", err)
		return nil, fmt.Errorf("rows error: %w", err)
	}

	e.log.Info("Catalog search completed", "count", len(results), "duration", time.Since(start))
	return results, nil
}

// LookupBarcode finds a product by exact barcode
func (e *Engine) LookupBarcode(ctx context.Context, barcode string) (*Product, error) {
	start := time.Now()
	e.log.Debug("Barcode lookup starting", "barcode", barcode)

	query := `SELECT ` + productColumns + ` FROM read_parquet(?) WHERE code = ? LIMIT 1`

	rows, err := e.db.QueryContext(ctx, query, e.parquetPath, barcode)
	if err != nil {
		e.log.Error("DuckDB barcode query failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("barcode query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows error: %w", err)
		}
		e.log.Debug("No product found for barcode", "barcode", barcode, "duration", time.Since(start))
		return nil, nil
	}

	p, err := scanProduct(rows)
	if err != nil {
		e.log.Error("Row scan failed", "error", err)
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	e.log.Info("Barcode lookup completed", "found", true, "duration", time.Since(start))
	return &p, nil
}

// TestConnection checks that the parquet file is readable
func (e *Engine) TestConnection(ctx context.Context) error {
	start := time.Now()

	var count int64
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM read_parquet(?)`, e.parquetPath).Scan(&count); err != nil {
		e.log.Error("Catalog connection test failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("connection test failed: %w", err)
	}

	e.log.Info("Catalog connection test successful", "total_records", count, "duration", time.Since(start))
	return nil
}

func scanProduct(rows *sql.Rows) (Product, error) {
	var code, name, brands, link, ingredients sql.NullString
	if err := rows.Scan(&code, &name, &brands, &link, &ingredients); err != nil {
		return Product{}, err
	}

	p := Product{
		Code:        code.String,
		ProductName: name.String,
		Brands:      brands.String,
		Link:        link.String,
		Ingredients: parseIngredients(ingredients.String),
	}
	p.IngredientsText = ingredientsText(p.Ingredients)
	return p, nil
}

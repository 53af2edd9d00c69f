package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/woosync/backend/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgresStore implements domain.ProductStore on top of the ERP's product
// tables using sqlx
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and applies pending migrations
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the underlying connection pool
func (s *PostgresStore) Close() error { return s.db.Close() }

type productRow struct {
	ID              int64          `db:"id"`
	Name            string         `db:"name"`
	SKU             string         `db:"sku"`
	ListPrice       float64        `db:"list_price"`
	Description     string         `db:"description"`
	SaleDescription string         `db:"sale_description"`
	Image           []byte         `db:"image"`
	SyncEnabled     bool           `db:"sync_enabled"`
	RemoteID        sql.NullInt64  `db:"remote_id"`
	LastSyncAt      *time.Time     `db:"last_sync_at"`
	SyncError       sql.NullString `db:"sync_error"`
}

func (r *productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:              r.ID,
		Name:            r.Name,
		SKU:             r.SKU,
		ListPrice:       r.ListPrice,
		Description:     r.Description,
		SaleDescription: r.SaleDescription,
		Image:           r.Image,
		SyncEnabled:     r.SyncEnabled,
		RemoteID:        r.RemoteID.Int64,
		LastSyncAt:      r.LastSyncAt,
		SyncError:       r.SyncError.String,
	}
}

type variantRow struct {
	ID         int64          `db:"id"`
	ProductID  int64          `db:"product_id"`
	SKU        string         `db:"sku"`
	Price      float64        `db:"price"`
	StockQty   int            `db:"stock_qty"`
	Image      []byte         `db:"image"`
	RemoteID   sql.NullInt64  `db:"remote_id"`
	LastSyncAt *time.Time     `db:"last_sync_at"`
	SyncError  sql.NullString `db:"sync_error"`
}

func (r *variantRow) toDomain() *domain.Variant {
	return &domain.Variant{
		ID:         r.ID,
		ProductID:  r.ProductID,
		SKU:        r.SKU,
		Price:      r.Price,
		StockQty:   r.StockQty,
		Image:      r.Image,
		RemoteID:   r.RemoteID.Int64,
		LastSyncAt: r.LastSyncAt,
		SyncError:  r.SyncError.String,
	}
}

const productColumns = `id, name, sku, list_price, description, sale_description, image,
	sync_enabled, remote_id, last_sync_at, sync_error`

// ListEnabled loads all sync-enabled products in stable ID order
func (s *PostgresStore) ListEnabled(ctx context.Context) ([]*domain.Product, error) {
	var rows []productRow
	query := fmt.Sprintf(`SELECT %s FROM products WHERE sync_enabled ORDER BY id`, productColumns)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list enabled products: %w", err)
	}
	return s.hydrate(ctx, rows)
}

// GetByIDs loads the given products in the order of the input slice,
// silently dropping unknown IDs
func (s *PostgresStore) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []productRow
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1) ORDER BY id`, productColumns)
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to load products by id: %w", err)
	}

	products, err := s.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]*domain.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// hydrate attaches attribute lines and variants to the loaded products
func (s *PostgresStore) hydrate(ctx context.Context, rows []productRow) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	byID := make(map[int64]*domain.Product, len(rows))
	for i := range rows {
		p := rows[i].toDomain()
		products = append(products, p)
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}
	if len(ids) == 0 {
		return products, nil
	}

	type lineRow struct {
		ProductID int64          `db:"product_id"`
		Name      string         `db:"name"`
		Options   pq.StringArray `db:"options"`
	}
	var lines []lineRow
	err := s.db.SelectContext(ctx, &lines,
		`SELECT product_id, name, options FROM product_attribute_lines
		 WHERE product_id = ANY($1) ORDER BY product_id, position, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute lines: %w", err)
	}
	for _, l := range lines {
		p := byID[l.ProductID]
		p.AttributeLines = append(p.AttributeLines, domain.AttributeLine{Name: l.Name, Options: l.Options})
	}

	var variants []variantRow
	err = s.db.SelectContext(ctx, &variants,
		`SELECT id, product_id, sku, price, stock_qty, image, remote_id, last_sync_at, sync_error
		 FROM product_variants WHERE product_id = ANY($1) ORDER BY product_id, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	variantIDs := make([]int64, 0, len(variants))
	variantByID := make(map[int64]*domain.Variant, len(variants))
	for i := range variants {
		v := variants[i].toDomain()
		p := byID[v.ProductID]
		p.Variants = append(p.Variants, v)
		variantIDs = append(variantIDs, v.ID)
		variantByID[v.ID] = v
	}
	if len(variantIDs) == 0 {
		return products, nil
	}

	type valueRow struct {
		VariantID int64  `db:"variant_id"`
		Name      string `db:"attribute_name"`
		Option    string `db:"attribute_option"`
	}
	var values []valueRow
	err = s.db.SelectContext(ctx, &values,
		`SELECT variant_id, attribute_name, attribute_option FROM variant_attribute_values
		 WHERE variant_id = ANY($1) ORDER BY variant_id, position`, pq.Array(variantIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load variant attributes: %w", err)
	}
	for _, val := range values {
		v := variantByID[val.VariantID]
		v.Attributes = append(v.Attributes, domain.AttributeValue{Name: val.Name, Option: val.Option})
	}
	return products, nil
}

// Begin opens one chunk's transactional boundary
func (s *PostgresStore) Begin(ctx context.Context) (domain.ProductTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) SetProductError(ctx context.Context, id int64, msg string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE products SET sync_error = $2 WHERE id = $1`, id, msg)
	return err
}

func (t *postgresTx) ClearProductError(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE products SET sync_error = '' WHERE id = $1`, id)
	return err
}

func (t *postgresTx) SetProductRemoteID(ctx context.Context, id int64, remoteID int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE products SET remote_id = $2 WHERE id = $1`, id, remoteID)
	return err
}

func (t *postgresTx) ClearProductRemoteID(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE products SET remote_id = NULL WHERE id = $1`, id)
	return err
}

func (t *postgresTx) MarkProductSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE products SET remote_id = $2, last_sync_at = $3, sync_error = '' WHERE id = $1`,
		id, remoteID, at)
	return err
}

func (t *postgresTx) SetVariantError(ctx context.Context, id int64, msg string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE product_variants SET sync_error = $2 WHERE id = $1`, id, msg)
	return err
}

func (t *postgresTx) ClearVariantError(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE product_variants SET sync_error = '' WHERE id = $1`, id)
	return err
}

func (t *postgresTx) SetVariantRemoteID(ctx context.Context, id int64, remoteID int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE product_variants SET remote_id = $2 WHERE id = $1`, id, remoteID)
	return err
}

func (t *postgresTx) ClearVariantRemoteID(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE product_variants SET remote_id = NULL WHERE id = $1`, id)
	return err
}

func (t *postgresTx) MarkVariantSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE product_variants SET remote_id = $2, last_sync_at = $3, sync_error = '' WHERE id = $1`,
		id, remoteID, at)
	return err
}

func (t *postgresTx) Commit() error   { return t.tx.Commit() }
func (t *postgresTx) Rollback() error { return t.tx.Rollback() }

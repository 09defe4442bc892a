package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uladzislaufarshakou/ecommerce-task/internal/domain"
)

const joinDateLayout = "2006-01-02"

// Store wraps the relational catalog holding the customer and product
// reference tables. Both tables are loaded once per run and held immutable
// for the run's duration.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens the catalog database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// InitSchema creates the catalog tables if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT PRIMARY KEY,
		join_date   TEXT NOT NULL,
		segment     TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS products (
		product_id   TEXT PRIMARY KEY,
		product_name TEXT NOT NULL,
		category     TEXT NOT NULL,
		price        TEXT NOT NULL
	);`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}

	s.log.Info("Catalog schema initialized")
	return nil
}

// LoadCustomers returns the complete customers snapshot.
func (s *Store) LoadCustomers(ctx context.Context) ([]domain.CustomerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, join_date, segment FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.CustomerRecord
	for rows.Next() {
		var c domain.CustomerRecord
		var joinDate, segment string
		if err := rows.Scan(&c.CustomerID, &joinDate, &segment); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		c.JoinDate, err = time.Parse(joinDateLayout, joinDate)
		if err != nil {
			return nil, fmt.Errorf("customer %s has invalid join_date %q: %w", c.CustomerID, joinDate, err)
		}
		c.Segment = domain.Segment(segment)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}
	return customers, nil
}

// LoadProducts returns the complete products snapshot. A non-positive price
// violates the catalog contract and fails the load.
func (s *Store) LoadProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, product_name, category, price FROM products ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.ProductRecord
	for rows.Next() {
		var p domain.ProductRecord
		var price string
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Category, &price); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("product %s has invalid price %q: %w", p.ProductID, price, err)
		}
		if p.Price.Sign() <= 0 {
			return nil, fmt.Errorf("product %s has non-positive price %s", p.ProductID, p.Price)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

// InsertCustomers upserts customer rows in a single transaction.
func (s *Store) InsertCustomers(ctx context.Context, customers []domain.CustomerRecord) error {
	return s.insertAll(ctx,
		`INSERT OR REPLACE INTO customers (customer_id, join_date, segment) VALUES (?, ?, ?)`,
		len(customers),
		func(stmt *sql.Stmt, i int) error {
			c := customers[i]
			_, err := stmt.ExecContext(ctx, c.CustomerID, c.JoinDate.Format(joinDateLayout), string(c.Segment))
			return err
		})
}

// InsertProducts upserts product rows in a single transaction.
func (s *Store) InsertProducts(ctx context.Context, products []domain.ProductRecord) error {
	return s.insertAll(ctx,
		`INSERT OR REPLACE INTO products (product_id, product_name, category, price) VALUES (?, ?, ?, ?)`,
		len(products),
		func(stmt *sql.Stmt, i int) error {
			p := products[i]
			_, err := stmt.ExecContext(ctx, p.ProductID, p.ProductName, p.Category, p.Price.String())
			return err
		})
}

func (s *Store) insertAll(ctx context.Context, query string, count int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Ping checks if the catalog database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the catalog database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure Go driver, no cgo needed

	"github.com/flashikNet/EduParser/internal/models"
)

// ErrNotFound is returned when a lookup by id or brand yields nothing.
var ErrNotFound = errors.New("not found")

// Repository is a thin layer around the SQLite connection.
type Repository struct {
	DB *sql.DB
}

// Open opens (or creates) the database file and makes sure the schema exists.
func Open(filepath string) (*Repository, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite allows a single writer; funneling everything through one
	// connection avoids SQLITE_BUSY under concurrent syncs.
	db.SetMaxOpenConns(1)

	createSneakersTableSQL := `
	CREATE TABLE IF NOT EXISTS sneakers (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"name" TEXT NOT NULL,
		"price" TEXT NOT NULL,
		"brand" TEXT NOT NULL
	);`

	if _, err := db.Exec(createSneakersTableSQL); err != nil {
		return nil, fmt.Errorf("creating sneakers table: %w", err)
	}

	return &Repository{DB: db}, nil
}

// Close closes the database connection.
func (repo *Repository) Close() error {
	return repo.DB.Close()
}

// Ping checks the connection is still alive.
func (repo *Repository) Ping(ctx context.Context) error {
	return repo.DB.PingContext(ctx)
}

// FindByBrand returns every stored sneaker of one brand.
func (repo *Repository) FindByBrand(ctx context.Context, brand string) ([]models.Sneaker, error) {
	rows, err := repo.DB.QueryContext(ctx,
		"SELECT id, name, price, brand FROM sneakers WHERE brand = ? ORDER BY id", brand)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sneakers []models.Sneaker
	for rows.Next() {
		var s models.Sneaker
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Brand); err != nil {
			return nil, err
		}
		sneakers = append(sneakers, s)
	}
	return sneakers, rows.Err()
}

// FindByID returns one sneaker or ErrNotFound.
func (repo *Repository) FindByID(ctx context.Context, id int64) (*models.Sneaker, error) {
	var s models.Sneaker
	err := repo.DB.QueryRowContext(ctx,
		"SELECT id, name, price, brand FROM sneakers WHERE id = ?", id).
		Scan(&s.ID, &s.Name, &s.Price, &s.Brand)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountByBrand returns how many sneakers of one brand are stored.
func (repo *Repository) CountByBrand(ctx context.Context, brand string) (int, error) {
	var n int
	err := repo.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sneakers WHERE brand = ?", brand).Scan(&n)
	return n, err
}

// ReplaceBrand swaps out every stored record of one brand for the freshly
// scraped items, inside a single transaction. Readers either see the old
// generation or the new one, never the gap in between. Returns the number of
// records inserted.
func (repo *Repository) ReplaceBrand(ctx context.Context, brand string, items []models.CatalogItem) (int, error) {
	tx, err := repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM sneakers WHERE brand = ?", brand); err != nil {
		return 0, fmt.Errorf("deleting old %q records: %w", brand, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sneakers (name, price, brand) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.Name, item.Price, brand); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing replace of %q: %w", brand, err)
	}
	return len(items), nil
}

// UpdateSneaker rewrites one record by id.
func (repo *Repository) UpdateSneaker(ctx context.Context, id int64, name, price, brand string) error {
	res, err := repo.DB.ExecContext(ctx,
		"UPDATE sneakers SET name = ?, price = ?, brand = ? WHERE id = ?", name, price, brand, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// DeleteSneaker removes one record by id.
func (repo *Repository) DeleteSneaker(ctx context.Context, id int64) error {
	res, err := repo.DB.ExecContext(ctx, "DELETE FROM sneakers WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

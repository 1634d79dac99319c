package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const albumColumns = `id, title, catalog, cover_image, release_date, price, is_released, preview_url, purchase_url`

// PostgresStore backs the catalog with Postgres for deployments that want
// the albums to survive restarts. Seeding happens once at startup instead
// of lazily, so the single-flight guard of MemStore has no equivalent here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS albums (
				id SERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				catalog TEXT NOT NULL,
				cover_image TEXT NOT NULL,
				release_date TEXT,
				price TEXT,
				is_released BOOLEAN NOT NULL DEFAULT FALSE,
				preview_url TEXT,
				purchase_url TEXT
			)
		`)
		return err
	})
}

// Seed inserts the initial album set when the table is empty. Runs in one
// transaction so a failed run leaves nothing behind.
func (s *PostgresStore) Seed(ctx context.Context, seed SeedFunc) error {
	albums, err := seed(ctx)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM albums`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for _, in := range albums {
			_, err := tx.Exec(ctx, `
				INSERT INTO albums (title, catalog, cover_image, release_date, price, is_released, preview_url, purchase_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, in.Title, in.Catalog, in.CoverImage, in.ReleaseDate, in.Price, in.IsReleased, in.PreviewURL, in.PurchaseURL)
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

func (s *PostgresStore) ListSortedByID(ctx context.Context) ([]Album, error) {
	var out []Album

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Album, 0, 16)
		for rows.Next() {
			a, err := scanAlbum(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Album, bool, error) {
	var a Album

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = $1`, id)
		var err error
		a, err = scanAlbum(row)
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return Album{}, false, nil
	}
	if err != nil {
		return Album{}, false, err
	}
	return a, true, nil
}

func (s *PostgresStore) Create(ctx context.Context, in InsertAlbum) (Album, error) {
	var id int

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			INSERT INTO albums (title, catalog, cover_image, release_date, price, is_released, preview_url, purchase_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, in.Title, in.Catalog, in.CoverImage, in.ReleaseDate, in.Price, in.IsReleased, in.PreviewURL, in.PurchaseURL).Scan(&id)
	})

	if err != nil {
		return Album{}, err
	}
	return newAlbum(id, in), nil
}

func scanAlbum(row pgx.Row) (Album, error) {
	var a Album
	err := row.Scan(&a.ID, &a.Title, &a.Catalog, &a.CoverImage,
		&a.ReleaseDate, &a.Price, &a.IsReleased, &a.PreviewURL, &a.PurchaseURL)
	return a, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

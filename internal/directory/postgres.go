package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"speech-training-service/internal/models"
)

// Schema is the SQL DDL for the read-only directory tables. In production
// these tables belong to the account service; Migrate exists for local setups.
const Schema = `
CREATE TABLE IF NOT EXISTS clients (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    age  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS specialists (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL
);
`

// DB is the database interface used by [PostgresDirectory]. Both
// *pgxpool.Pool and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresDirectory is a [Directory] backed by PostgreSQL.
type PostgresDirectory struct {
	db DB
}

// Compile-time interface check.
var _ Directory = (*PostgresDirectory)(nil)

// NewPostgresDirectory creates a directory over the given connection or pool.
func NewPostgresDirectory(db DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Migrate creates the directory tables if they do not exist.
func (d *PostgresDirectory) Migrate(ctx context.Context) error {
	if _, err := d.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("directory: migrate: %w", err)
	}
	return nil
}

// Client implements Directory.
func (d *PostgresDirectory) Client(ctx context.Context, id string) (Client, error) {
	const query = `SELECT id, name, age FROM clients WHERE id = $1`

	var c Client
	err := d.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Age)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
		}
		return Client{}, fmt.Errorf("directory: get client %q: %w", id, err)
	}
	return c, nil
}

// Specialist implements Directory.
func (d *PostgresDirectory) Specialist(ctx context.Context, id string) (Specialist, error) {
	const query = `SELECT id, name FROM specialists WHERE id = $1`

	var s Specialist
	err := d.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Specialist{}, fmt.Errorf("specialist %s: %w", id, models.ErrNotFound)
		}
		return Specialist{}, fmt.Errorf("directory: get specialist %q: %w", id, err)
	}
	return s, nil
}

// Ping implements Directory.
func (d *PostgresDirectory) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

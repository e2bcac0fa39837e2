package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"speech-training-service/internal/models"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	pingErr      error
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFunc(ctx, sql, args...)
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFunc(ctx, sql, args...)
}

func (m *mockDB) Ping(ctx context.Context) error { return m.pingErr }

func rowOf(values ...any) pgx.Row {
	return &mockRow{scanFunc: func(dest ...any) error {
		if len(dest) != len(values) {
			return fmt.Errorf("scan: expected %d destinations, got %d", len(values), len(dest))
		}
		for i, v := range values {
			switch d := dest[i].(type) {
			case *string:
				*d = v.(string)
			case *int:
				*d = v.(int)
			default:
				return fmt.Errorf("scan: unsupported type %T", dest[i])
			}
		}
		return nil
	}}
}

func TestPostgresDirectory_Client(t *testing.T) {
	var gotSQL string
	var gotArgs []any
	db := &mockDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		gotSQL, gotArgs = sql, args
		return rowOf("c-1", "Ana", 5)
	}}

	c, err := NewPostgresDirectory(db).Client(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Ana" || c.Age != 5 {
		t.Errorf("unexpected client %+v", c)
	}
	if !strings.Contains(gotSQL, "FROM clients") || len(gotArgs) != 1 || gotArgs[0] != "c-1" {
		t.Errorf("unexpected query %q %v", gotSQL, gotArgs)
	}
}

func TestPostgresDirectory_NotFound(t *testing.T) {
	db := &mockDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	}}
	d := NewPostgresDirectory(db)

	if _, err := d.Client(context.Background(), "x"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("client: expected ErrNotFound, got %v", err)
	}
	if _, err := d.Specialist(context.Background(), "x"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("specialist: expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDirectory_QueryError(t *testing.T) {
	boom := errors.New("connection reset")
	db := &mockDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		return &mockRow{scanFunc: func(dest ...any) error { return boom }}
	}}

	_, err := NewPostgresDirectory(db).Specialist(context.Background(), "s-1")
	if !errors.Is(err, boom) || errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestPostgresDirectory_Migrate(t *testing.T) {
	var executed string
	db := &mockDB{execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		executed = sql
		return pgconn.CommandTag{}, nil
	}}

	if err := NewPostgresDirectory(db).Migrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if executed != Schema {
		t.Error("expected schema DDL to be executed")
	}
}

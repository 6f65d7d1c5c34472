package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	_ "modernc.org/sqlite"
)

const kvTable = "kv_entries"

var (
	kvColumns = []*schema.Column{
		{Name: "bucket", Type: field.TypeString, Size: 255},
		{Name: "key", Type: field.TypeString, Size: 255},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeTime},
	}
	kvEntries = &schema.Table{
		Name:       kvTable,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0], kvColumns[1]},
	}
)

// SQLKV implements KV on SQLite through the ent SQL driver and builders.
type SQLKV struct {
	drv *entsql.Driver
	now func() time.Time
}

// OpenSQLite opens the SQLite database at dsn and migrates the kv table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Create(ctx, kvEntries); err != nil {
		db.Close()
		return nil, fmt.Errorf("running schema migration: %w", err)
	}
	return &SQLKV{drv: drv, now: time.Now}, nil
}

func (s *SQLKV) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLKV) Put(ctx context.Context, bucket, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query, args := s.builder().
		Insert(kvTable).
		Columns("bucket", "key", "value", "updated_at").
		Values(bucket, key, value, s.now().UTC()).
		OnConflict(
			entsql.ConflictColumns("bucket", "key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	query, args := s.builder().
		Select("value").
		From(entsql.Table(kvTable)).
		Where(entsql.And(entsql.EQ("bucket", bucket), entsql.EQ("key", key))).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
		}
		return nil, ErrNotFound
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		return nil, fmt.Errorf("scanning %s/%s: %w", bucket, key, err)
	}
	return value, nil
}

func (s *SQLKV) Delete(ctx context.Context, bucket, key string) error {
	query, args := s.builder().
		Delete(kvTable).
		Where(entsql.And(entsql.EQ("bucket", bucket), entsql.EQ("key", key))).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLKV) Keys(ctx context.Context, bucket string) ([]string, error) {
	query, args := s.builder().
		Select("key").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("bucket", bucket)).
		OrderBy("key").
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("keys %s: %w", bucket, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLKV) Close() error {
	return s.drv.Close()
}

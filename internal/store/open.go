package store

import (
	"context"
	"fmt"
	"strings"
)

// Open selects a backend from dsn:
//
//	memory | ""                  in-process, nothing persisted
//	postgres://... | postgresql:// shared PostgreSQL (migrations applied)
//	sqlite:<path> | <path>        local SQLite file
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewSnapshots(NewMemory()), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		if err := RunMigrations(dsn); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pg, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewSnapshots(pg), nil
	default:
		lite, err := OpenSQLite(strings.TrimPrefix(dsn, "sqlite:"))
		if err != nil {
			return nil, err
		}
		return NewSnapshots(lite), nil
	}
}

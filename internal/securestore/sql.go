// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package securestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLConfig holds database settings for the SQL-backed store.
type SQLConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // for sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// sqlBacking holds the connection shared across namespace views.
type sqlBacking struct {
	db       *sql.DB
	squirrel sq.StatementBuilderType
	sealer   *Sealer
	mu       sync.RWMutex
	closed   bool
}

// SQLStore implements Store on SQLite or PostgreSQL. Records live in one
// table keyed by (namespace, key); values are sealed when a sealer is
// configured.
type SQLStore struct {
	backing   *sqlBacking
	namespace string
}

// NewSQLStore opens the database, creates the schema, and returns a store
// bound to namespace. PostgreSQL connections are retried with backoff.
func NewSQLStore(cfg SQLConfig, namespace string, sealer *Sealer) (*SQLStore, error) {
	var (
		database *sql.DB
		err      error
	)

	var placeholder sq.PlaceholderFormat = sq.Question

	if cfg.Driver == "postgres" {
		placeholder = sq.Dollar
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)
		log.Debug().
			Str("host", cfg.Host).
			Str("database", cfg.DBName).
			Msg("Initializing PostgreSQL secure store")

		maxRetries := 5
		baseDelay := time.Second
		for attempt := 1; attempt <= maxRetries; attempt++ {
			database, err = sql.Open("postgres", dsn)
			if err == nil {
				err = database.Ping()
				if err == nil {
					break
				}
			}

			if attempt == maxRetries {
				return nil, errors.Wrapf(err, "failed to connect to database after %d attempts", maxRetries)
			}

			delay := time.Duration(attempt) * baseDelay
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying database connection")
			time.Sleep(delay)
		}
	} else {
		dbDir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, err
		}

		database, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, errors.Wrap(err, "error opening database")
		}
		if err := database.Ping(); err != nil {
			return nil, errors.Wrap(err, "error creating database file")
		}
		// Secrets live here; keep the file out of group/world reach.
		if err := os.Chmod(cfg.Path, 0600); err != nil {
			return nil, errors.Wrap(err, "error setting database file permissions")
		}
		log.Debug().
			Str("path", cfg.Path).
			Msg("Initializing SQLite secure store")
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)

	backing := &sqlBacking{
		db:       database,
		squirrel: sq.StatementBuilder.PlaceholderFormat(placeholder),
		sealer:   sealer,
	}

	if err := initSchema(database); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "error initializing schema")
	}

	log.Info().
		Str("driver", cfg.Driver).
		Msg("Successfully connected to secure store database")

	return &SQLStore{backing: backing, namespace: namespace}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS secure_records (
			namespace TEXT NOT NULL,
			record_key TEXT NOT NULL,
			value BYTEA NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (namespace, record_key)
		)`)
	return err
}

// Namespace returns a view over the same connection bound to another
// namespace.
func (s *SQLStore) Namespace(name string) Store {
	return &SQLStore{backing: s.backing, namespace: name}
}

func (s *SQLStore) checkOpen() error {
	s.backing.mu.RLock()
	defer s.backing.mu.RUnlock()
	if s.backing.closed {
		return ErrClosed
	}
	return nil
}

// Store upserts the sealed value for key in a single statement, observable
// as one state change.
func (s *SQLStore) Store(ctx context.Context, key string, value interface{}) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := marshalValue(value)
	if err != nil {
		return err
	}

	sealed, err := s.backing.sealer.Seal(s.namespace, data)
	if err != nil {
		return errors.Wrap(err, "failed to seal value")
	}

	query, args, err := s.backing.squirrel.
		Insert("secure_records").
		Columns("namespace", "record_key", "value", "updated_at").
		Values(s.namespace, key, sealed, time.Now().UTC()).
		Suffix("ON CONFLICT (namespace, record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build insert query")
	}

	if _, err := s.backing.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to store record")
	}
	return nil
}

// Retrieve reads and unseals the value for key into value, or returns
// ErrNotFound.
func (s *SQLStore) Retrieve(ctx context.Context, key string, value interface{}) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	query, args, err := s.backing.squirrel.
		Select("value").
		From("secure_records").
		Where(sq.Eq{"namespace": s.namespace, "record_key": key}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build select query")
	}

	var sealed []byte
	err = s.backing.db.QueryRowContext(ctx, query, args...).Scan(&sealed)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to retrieve record")
	}

	data, err := s.backing.sealer.Open(s.namespace, sealed)
	if err != nil {
		return errors.Wrap(err, "failed to unseal value")
	}
	return unmarshalValue(data, value)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	query, args, err := s.backing.squirrel.
		Delete("secure_records").
		Where(sq.Eq{"namespace": s.namespace, "record_key": key}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build delete query")
	}

	if _, err := s.backing.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to delete record")
	}
	return nil
}

// DeleteAll removes every record under this namespace only.
func (s *SQLStore) DeleteAll(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	query, args, err := s.backing.squirrel.
		Delete("secure_records").
		Where(sq.Eq{"namespace": s.namespace}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build delete query")
	}

	if _, err := s.backing.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to wipe namespace")
	}
	return nil
}

// Close closes the shared connection; subsequent calls on any view fail
// with ErrClosed.
func (s *SQLStore) Close() error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()
	if s.backing.closed {
		return ErrClosed
	}
	s.backing.closed = true
	return s.backing.db.Close()
}

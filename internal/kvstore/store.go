package kvstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	ErrBadName  = errors.New("bad name for store")
	ErrNotFound = errors.New("value not found")
)

type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// Open opens (or creates) the sqlite database at path and returns a store
// backed by table name.
func Open(ctx context.Context, path, name string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes
	// writers
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Creates a new [Store] instance. name may only contain upper- or lowercase
// Latin letters since it is spliced into the table DDL.
func New(ctx context.Context, db *sql.DB, name string) (*Store, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}

	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, fmt.Errorf("unable to create table %s: %w", name, err)
	}
	return &Store{name: name, db: db}, nil
}

// Retrieve a value from the store. Value must be a pointer or nil. If key is
// not present, [ErrNotFound] is returned. If value is nil, data read from store
// is silently discarded.
func (s *Store) Get(ctx context.Context, key string, value any) error {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+s.name+` WHERE key = ?;`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return decode(v, value)
}

// Inserts a new key-value pair or updates an existing one.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := encode(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO `+s.name+` (key, value)
VALUES (?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, b)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, fmt.Errorf("unable to encode value: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(b []byte, value any) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(value); err != nil {
		return fmt.Errorf("unable to decode value: %w", err)
	}
	return nil
}

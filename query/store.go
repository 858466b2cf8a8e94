// Package query dispatches parsed queries to the store and the
// in-memory evaluator. The dispatcher owns plan compilation and
// caching; the store adapter owns everything that touches database/sql.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/transpiler"
)

// driverNames maps a normalized dialect to its database/sql driver.
var driverNames = map[lakeq.Dialect]string{
	lakeq.DialectPostgres: "pgx",
	lakeq.DialectMySQL:    "mysql",
	lakeq.DialectSQLite:   "sqlite3",
}

// Store reads and writes documents through database/sql. It implements
// the document-lookup capability the dispatcher and evaluator consume.
type Store struct {
	db      *sql.DB
	dialect lakeq.Dialect
}

// Open connects a store for the given dialect. The MySQL DSN gains
// parseTime=true when absent, the timestamp columns scan as time.Time.
func Open(dialect lakeq.Dialect, dsn string) (*Store, error) {
	normalized := dialect.Normalize()

	driver, ok := driverNames[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lakeq.ErrUnsupportedDialect, dialect)
	}

	if normalized == lakeq.DialectMySQL && !strings.Contains(dsn, "parseTime=") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}

		dsn += separator + "parseTime=true"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", normalized, err)
	}

	return &Store{db: db, dialect: normalized}, nil
}

// OpenFromConfig opens a store with the configured connection tuning.
func OpenFromConfig(config *lakeq.Config) (*Store, error) {
	store, err := Open(lakeq.Dialect(config.Dialect), config.Database.Connection)
	if err != nil {
		return nil, err
	}

	if config.Database.MaxOpenConns > 0 {
		store.db.SetMaxOpenConns(config.Database.MaxOpenConns)
	}

	if config.Database.ConnMaxLifetime > 0 {
		store.db.SetConnMaxLifetime(config.Database.ConnMaxLifetime)
	}

	return store, nil
}

// Dialect returns the normalized dialect the store speaks.
func (s *Store) Dialect() lakeq.Dialect {
	return s.dialect
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Bootstrap creates the documents table and its indexes. Safe to call
// on an existing schema.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, lakeq.DocumentsDDL[s.dialect]); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	for _, ddl := range lakeq.DocumentsIndexDDL[s.dialect] {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			// MySQL has no IF NOT EXISTS for indexes; re-running the
			// bootstrap reports a duplicate key name.
			if s.dialect == lakeq.DialectMySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}

			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (s *Store) rebind(statement string) string {
	if s.dialect != lakeq.DialectPostgres {
		return statement
	}

	var sb strings.Builder

	n := 0

	for _, r := range statement {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

// Put inserts a document or replaces the stored version with the same
// id. Replacing resurrects a soft-deleted document and assigns a fresh
// revision.
func (s *Store) Put(ctx context.Context, dataset string, doc *lakeq.Document) error {
	if err := lakeq.ValidateDocument(doc); err != nil {
		return err
	}

	encoded, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}

	// pgx types a []byte argument as bytea, which a jsonb column
	// rejects; a string argument lets the server infer the type.
	content := string(encoded)

	now := time.Now().UTC()

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	revision := uuid.NewString()

	var statement string

	switch s.dialect {
	case lakeq.DialectMySQL:
		statement = `INSERT INTO documents (pk, dataset, doc_id, doc_type, content, deleted, created_at, updated_at, revision)
VALUES (?, ?, ?, ?, ?, FALSE, ?, ?, ?)
ON DUPLICATE KEY UPDATE doc_type = VALUES(doc_type), content = VALUES(content), deleted = FALSE, updated_at = VALUES(updated_at), revision = VALUES(revision)`
	default:
		statement = s.rebind(`INSERT INTO documents (pk, dataset, doc_id, doc_type, content, deleted, created_at, updated_at, revision)
VALUES (?, ?, ?, ?, ?, FALSE, ?, ?, ?)
ON CONFLICT (dataset, doc_id) DO UPDATE SET doc_type = excluded.doc_type, content = excluded.content, deleted = FALSE, updated_at = excluded.updated_at, revision = excluded.revision`)
	}

	_, err = s.db.ExecContext(ctx, statement,
		uuid.NewString(), dataset, doc.ID, doc.Type, content, createdAt, updatedAt, revision)
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}

	return nil
}

// Seed stores a batch of raw document values.
func (s *Store) Seed(ctx context.Context, dataset string, values []map[string]any) error {
	for _, value := range values {
		doc, err := lakeq.DocumentFromValue(value)
		if err != nil {
			return err
		}

		if err := s.Put(ctx, dataset, doc); err != nil {
			return err
		}
	}

	return nil
}

// Delete soft-deletes a document. Queries stop seeing it; the row
// stays for history.
func (s *Store) Delete(ctx context.Context, dataset, id string) error {
	statement := s.rebind(`UPDATE documents SET deleted = TRUE, updated_at = ? WHERE dataset = ? AND doc_id = ?`)

	_, err := s.db.ExecContext(ctx, statement, time.Now().UTC(), dataset, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	return nil
}

// FetchByFilter runs a rendered statement and returns the document
// values in statement order.
func (s *Store) FetchByFilter(ctx context.Context, dataset string, stmt *transpiler.Statement) ([]map[string]any, error) {
	args := make([]any, 0, len(stmt.Args)+1)
	args = append(args, dataset)
	args = append(args, stmt.Args...)

	rows, err := s.db.QueryContext(ctx, stmt.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	defer rows.Close()

	var docs []map[string]any

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc.Value())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	return docs, nil
}

// CountByFilter runs a count-only statement.
func (s *Store) CountByFilter(ctx context.Context, dataset string, stmt *transpiler.Statement) (int, error) {
	args := make([]any, 0, len(stmt.Args)+1)
	args = append(args, dataset)
	args = append(args, stmt.Args...)

	var count int
	if err := s.db.QueryRowContext(ctx, stmt.SQL, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}

// FetchByReference looks one document up by id. Soft-deleted and
// missing documents both report not found.
func (s *Store) FetchByReference(ctx context.Context, dataset, id string) (map[string]any, bool, error) {
	statement := s.rebind(`SELECT doc_id, doc_type, revision, created_at, updated_at, content FROM documents WHERE dataset = ? AND doc_id = ? AND NOT deleted`)

	row := s.db.QueryRowContext(ctx, statement, dataset, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return doc.Value(), true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*lakeq.Document, error) {
	var (
		id        string
		docType   string
		revision  string
		createdAt time.Time
		updatedAt time.Time
		content   []byte
	)

	if err := row.Scan(&id, &docType, &revision, &createdAt, &updatedAt, &content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan document row: %w", err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(content, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}

	return &lakeq.Document{
		ID:        id,
		Type:      docType,
		Revision:  revision,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Content:   fields,
	}, nil
}

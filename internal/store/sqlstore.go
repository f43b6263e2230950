package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
)

// DefaultDBPath is the default relative path for the SQLite evidence DB.
const DefaultDBPath = ".proofengine/evidence.db"

// SqlStore implements evidence.Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

var _ evidence.Store = (*SqlStore)(nil)

// Open opens or creates a SQLite DB at path and creates the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// Insert upserts nodes in one transaction. Nodes without an id get a
// generated one.
func (s *SqlStore) Insert(ctx context.Context, nodes ...evidence.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence_nodes(id, kind, ts_unix_nano, fields, payload)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind = excluded.kind,
		   ts_unix_nano = excluded.ts_unix_nano,
		   fields = excluded.fields,
		   payload = excluded.payload`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		kind, ok := evidence.ParseKind(string(n.Kind))
		if !ok {
			return fmt.Errorf("node %s: %w %q", n.ID, evidence.ErrUnknownKind, n.Kind)
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		fields, err := marshalMap(n.Fields)
		if err != nil {
			return fmt.Errorf("node %s fields: %w", n.ID, err)
		}
		payload, err := marshalMap(n.Payload)
		if err != nil {
			return fmt.Errorf("node %s payload: %w", n.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, n.ID, string(kind), n.Timestamp.UnixNano(), fields, payload); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

// Count returns the number of stored nodes.
func (s *SqlStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence_nodes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// FetchNodes implements evidence.Store. The kind and a leading bound on
// the canonical timestamp are pushed into SQL; remaining filters are
// applied to decoded rows until limit is reached.
func (s *SqlStore) FetchNodes(ctx context.Context, kind evidence.Kind, filters evidence.FilterSet, limit int) ([]evidence.Node, error) {
	canonical, ok := kind.TimestampField()
	if !ok {
		return nil, fmt.Errorf("sqlstore: %w %q", evidence.ErrUnknownKind, kind)
	}

	query := "SELECT id, kind, ts_unix_nano, fields, payload FROM evidence_nodes WHERE kind = ?"
	args := []interface{}{string(kind)}
	bound, rest := filters.Split()
	if bound != nil && bound.Field == canonical {
		query += " AND ts_unix_nano BETWEEN ? AND ?"
		args = append(args, bound.From.UnixNano(), bound.To.UnixNano())
	} else if bound != nil {
		rest = append(evidence.FilterSet{bound}, rest...)
	}
	query += " ORDER BY ts_unix_nano DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s nodes: %w", kind, err)
	}
	defer rows.Close()

	out := []evidence.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		if !rest.Match(&n) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s nodes: %w", kind, err)
	}
	return out, nil
}

func scanNode(rows *sql.Rows) (evidence.Node, error) {
	var (
		n               evidence.Node
		kind            string
		ts              int64
		fields, payload sql.NullString
	)
	if err := rows.Scan(&n.ID, &kind, &ts, &fields, &payload); err != nil {
		return n, fmt.Errorf("scan node: %w", err)
	}
	n.Kind = evidence.Kind(kind)
	n.Timestamp = time.Unix(0, ts).UTC()
	var err error
	if n.Fields, err = unmarshalMap(fields); err != nil {
		return n, fmt.Errorf("node %s fields: %w", n.ID, err)
	}
	if n.Payload, err = unmarshalMap(payload); err != nil {
		return n, fmt.Errorf("node %s payload: %w", n.ID, err)
	}
	return n, nil
}

func marshalMap(m map[string]interface{}) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMap(ns sql.NullString) (map[string]interface{}, error) {
	if !ns.Valid || ns.String == "" || ns.String == "{}" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Package history archives executed compliance results. The engine never
// persists results itself; the HTTP server and CLI use an Archive when one
// is configured.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/gyaneshwarpardhi/proofengine/internal/proof"
)

// ErrNotFound is returned when no result is archived for a query.
var ErrNotFound = errors.New("no archived result")

// Config configures the archive.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string
	// InMemory disables disk persistence. Useful for testing.
	InMemory bool
	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger
}

// Archive stores ComplianceQueryResults keyed by query and execution time.
// Safe for concurrent use.
type Archive struct {
	db *badger.DB
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (or creates) an archive.
func Open(cfg Config) (*Archive, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("history: path is required for a persistent archive")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create archive directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores res. Results of the same query sort newest first.
func (a *Archive) Save(res *proof.ComplianceQueryResult) error {
	if res == nil || res.QueryID == "" {
		return errors.New("history: result has no query id")
	}
	val, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", res.ExecutionID, err)
	}
	key := resultKey(res)
	if err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}); err != nil {
		return fmt.Errorf("save result %s: %w", res.ExecutionID, err)
	}
	return nil
}

// List returns up to limit archived results for queryID, newest first.
// limit <= 0 returns all of them.
func (a *Archive) List(queryID string, limit int) ([]*proof.ComplianceQueryResult, error) {
	prefix := queryPrefix(queryID)
	var out []*proof.ComplianceQueryResult
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var res proof.ComplianceQueryResult
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &res)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, &res)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list results for %s: %w", queryID, err)
	}
	return out, nil
}

// Latest returns the newest archived result for queryID.
func (a *Archive) Latest(queryID string) (*proof.ComplianceQueryResult, error) {
	list, err := a.List(queryID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w for query %s", ErrNotFound, queryID)
	}
	return list[0], nil
}

func queryPrefix(queryID string) []byte {
	return []byte("result/" + queryID + "/")
}

// resultKey inverts the timestamp so a forward prefix scan yields newest first.
func resultKey(res *proof.ComplianceQueryResult) []byte {
	ts := res.ExecutedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	inverted := math.MaxInt64 - ts.UnixNano()
	return []byte(fmt.Sprintf("%s%019d/%s", queryPrefix(res.QueryID), inverted, res.ExecutionID))
}

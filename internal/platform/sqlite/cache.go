package sqlite

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
	_ "modernc.org/sqlite"
)

const createTable = `
CREATE TABLE IF NOT EXISTS replies (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	schema     TEXT NOT NULL,
	reply      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replies_created_at ON replies(created_at);`

// ReplyCache stores successful model replies keyed by prompt and output shape.
// Cache failures never fail an invocation; they are logged and the call goes
// through to the wrapped invoker.
type ReplyCache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
	scope  string
}

// Option customizes a ReplyCache.
type Option func(*ReplyCache)

// WithScope ties every key to the given provider and model, so switching
// either one never serves a reply another model produced.
func WithScope(provider, model string) Option {
	return func(c *ReplyCache) {
		c.scope = provider + "/" + model
	}
}

// Open creates or opens the cache database at path. A non-positive ttl keeps
// entries forever.
func Open(ctx context.Context, path string, ttl time.Duration, logger *slog.Logger, opts ...Option) (*ReplyCache, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if path == "" {
		return nil, errors.New("cache path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure cache database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	c := &ReplyCache{
		db:     db,
		ttl:    ttl,
		logger: logger.With("component", "reply_cache"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the database connection.
func (c *ReplyCache) Close() error {
	return c.db.Close()
}

// Wrap returns an invoker that answers from the cache when it can and
// records every successful reply of inv.
func (c *ReplyCache) Wrap(inv generation.Invoker) generation.Invoker {
	return generation.InvokerFunc(func(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
		key, shape, err := cacheKey(c.scope, prompt, output)
		if err != nil {
			c.logger.WarnContext(ctx, "cache key unavailable, bypassing cache", "error", err)
			return inv.Invoke(ctx, prompt, output)
		}

		reply, ok, err := c.get(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "cache read failed", "error", err)
		} else if ok {
			c.logger.DebugContext(ctx, "cache hit", "key", key[:12])
			return reply, nil
		}

		reply, err = inv.Invoke(ctx, prompt, output)
		if err != nil {
			return nil, err
		}
		if err := c.put(ctx, key, shape, reply); err != nil {
			c.logger.WarnContext(ctx, "cache write failed", "error", err)
		}
		return reply, nil
	})
}

// Purge deletes expired entries and reports how many were removed.
func (c *ReplyCache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM replies WHERE created_at < ?", c.now().Add(-c.ttl).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Len reports the number of stored entries, expired or not.
func (c *ReplyCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM replies").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

func (c *ReplyCache) get(ctx context.Context, key string) (any, bool, error) {
	var body string
	var createdAt int64
	err := c.db.QueryRowContext(ctx,
		"SELECT reply, created_at FROM replies WHERE cache_key = ?", key).Scan(&body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(0, createdAt)) > c.ttl {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var reply any
	if err := dec.Decode(&reply); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return reply, true, nil
}

func (c *ReplyCache) put(ctx context.Context, key, shape string, reply any) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `
INSERT INTO replies (id, cache_key, schema, reply, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(cache_key) DO UPDATE SET reply = excluded.reply, created_at = excluded.created_at`,
		uuid.NewString(), key, shape, string(body), c.now().UnixNano())
	return err
}

// cacheKey hashes the scope and prompt together with the JSON Schema of the
// output so a changed model or output shape never reuses an old reply.
func cacheKey(scope, prompt string, output *schema.Descriptor) (key, shape string, err error) {
	var raw []byte
	if output != nil {
		raw, err = json.Marshal(output.JSONSchema())
		if err != nil {
			return "", "", err
		}
	}
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil)), string(raw), nil
}

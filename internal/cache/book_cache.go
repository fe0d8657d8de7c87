package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/medibook/internal/models"
)

// BookCache is an optional Redis read-through cache for book detail pages.
// A nil *BookCache is valid and turns every operation into a no-op, so the
// server runs fine without Redis configured. Money-affecting paths (cart
// snapshot, checkout) never read from here; they always hit the database.
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and returns a cache, or nil when addr is empty.
func New(addr string, db int, ttl time.Duration) *BookCache {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] redis unreachable, running without cache: %v", err)
		return nil
	}

	return &BookCache{rdb: rdb, ttl: ttl}
}

func bookKey(id uuid.UUID) string {
	return fmt.Sprintf("medibook:book:%s", id)
}

// GetBook returns a cached book, or (nil, false) on miss or any redis error.
func (c *BookCache) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, bookKey(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var book models.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, false
	}
	return &book, true
}

// SetBook stores a book with the configured TTL. Failures are logged and
// ignored; the cache is never load-bearing.
func (c *BookCache) SetBook(ctx context.Context, book *models.Book) {
	if c == nil || book == nil {
		return
	}

	raw, err := json.Marshal(book)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, bookKey(book.ID), raw, c.ttl).Err(); err != nil {
		log.Printf("[Cache] set book %s: %v", book.ID, err)
	}
}

// Invalidate drops the cached entries for the given books. Called after any
// write that changes price or stock. The write is already committed by then,
// so this runs on its own short-lived context; the request's context may
// already be canceled.
func (c *BookCache) Invalidate(ids ...uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = bookKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Cache] invalidate: %v", err)
	}
}

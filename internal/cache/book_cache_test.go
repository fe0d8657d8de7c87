package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/example/medibook/internal/models"
)

func TestNilCacheIsNoOp(t *testing.T) {
	var c *BookCache

	book, ok := c.GetBook(context.Background(), uuid.New())
	assert.Nil(t, book)
	assert.False(t, ok)

	c.SetBook(context.Background(), &models.Book{})
	c.Invalidate(uuid.New())
}

func TestNewWithoutAddrDisablesCache(t *testing.T) {
	assert.Nil(t, New("", 0, time.Minute))
}

func TestInvalidateOutlivesRequestContext(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  50 * time.Millisecond,
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
		MaxRetries:   -1,
	})
	c := &BookCache{rdb: rdb, ttl: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Reads honor the caller's context and degrade to a miss.
	book, ok := c.GetBook(ctx, uuid.New())
	assert.Nil(t, book)
	assert.False(t, ok)

	// Invalidation runs on its own context: a request that was canceled
	// right after the order committed cannot suppress it. Errors against the
	// unreachable server are logged, not returned.
	c.Invalidate(uuid.New())
}

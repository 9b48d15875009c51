package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-ordering/internal/logger"
)

// TableLock is a short-lived advisory lock taken around a table's session
// transition. It damps contention storms (a full table scanning the same QR
// at once) so most callers hit the reuse path without a transaction retry;
// the database transaction remains the correctness guarantee.
type TableLock struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewTableLock(client *redis.Client, log *logger.Logger) *TableLock {
	return &TableLock{Client: client, Logger: log}
}

// getLockTTL returns the lock TTL from the environment or the default.
func (r *TableLock) getLockTTL() time.Duration {
	defaultTTL := 10 * time.Second

	ttlStr := os.Getenv("TABLE_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Warn("REDIS", "Invalid TABLE_LOCK_TTL_SECONDS value '"+ttlStr+"', using default 10s")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// LockTable takes the advisory lock for one table. The token identifies the
// owner so an expired lock cannot be released by a later holder.
func (r *TableLock) LockTable(ctx context.Context, tableID, token string) (bool, error) {
	key := "table_lock:" + tableID
	ok, err := r.Client.SetNX(ctx, key, token, r.getLockTTL()).Result()
	return ok, err
}

// UnlockTable releases the lock if this caller still owns it.
func (r *TableLock) UnlockTable(ctx context.Context, tableID, token string) error {
	key := fmt.Sprintf("table_lock:%s", tableID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/accounts"
	"fiskalis/internal/domain/ledger"
	"fiskalis/pkg/logger"
)

// AccountCache keeps the chart of accounts in memory so the ledger engine
// can validate journal lines without a round trip per line. Invalidation is
// near-realtime via PostgreSQL NOTIFY on the accounts_changed channel, which
// eliminates TTL-based polling.
type AccountCache struct {
	pool *pgxpool.Pool
	repo accounts.Repository

	mu       sync.RWMutex
	accounts map[id.ID]*accounts.Account

	// Listeners for cache invalidation
	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// InvalidationListener is called when the cache is invalidated.
type InvalidationListener func(channel string, payload string)

// NewAccountCache creates a new account cache.
// The repository is used both for the initial load and for cache misses.
func NewAccountCache(pool *pgxpool.Pool, repo accounts.Repository) *AccountCache {
	return &AccountCache{
		pool:     pool,
		repo:     repo,
		accounts: make(map[id.ID]*accounts.Account),
	}
}

// Start loads the chart of accounts and begins listening for NOTIFY events.
func (c *AccountCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.loadAll(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load accounts: %w", err)
	}

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "account cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *AccountCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "account cache stopped")
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *AccountCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		_, err = conn.Exec(c.ctx, "LISTEN "+accounts.ChangedChannel+";")
		if err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for accounts_changed notifications")

		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *AccountCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait for notification with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return // Shutting down
			}
			// Timeout is expected, continue listening
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

// handleNotification processes a NOTIFY event.
// Payload is the changed account ID, or empty for a full reload.
func (c *AccountCache) handleNotification(channel, payload string) {
	if channel == accounts.ChangedChannel {
		c.invalidate(c.ctx, payload)
	}

	// Notify registered listeners with panic recovery (no goroutine fan-out).
	// This keeps invalidation delivery bounded on bursts of NOTIFY events.
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(c.ctx, "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// invalidate reloads a single account, or everything on an empty payload.
func (c *AccountCache) invalidate(ctx context.Context, payload string) {
	raw := strings.TrimSpace(payload)
	if raw == "" {
		if err := c.loadAll(ctx); err != nil {
			logger.Error(ctx, "failed to reload accounts", "error", err)
		}
		return
	}

	accountID, err := id.Parse(raw)
	if err != nil {
		logger.Error(ctx, "bad accounts_changed payload", "payload", raw, "error", err)
		return
	}

	acc, err := c.repo.GetByID(ctx, accountID)
	if err != nil {
		if apperror.IsNotFound(err) {
			c.mu.Lock()
			delete(c.accounts, accountID)
			c.mu.Unlock()
			return
		}
		logger.Error(ctx, "failed to reload account", "accountId", raw, "error", err)
		return
	}

	c.mu.Lock()
	c.accounts[accountID] = acc
	c.mu.Unlock()

	logger.Debug(ctx, "reloaded account", "accountId", raw, "code", acc.Code)
}

// loadAll loads the full chart of accounts, including inactive entries.
// Inactive accounts stay cached so lookups can distinguish inactive from
// unknown without a DB round trip.
func (c *AccountCache) loadAll(ctx context.Context) error {
	rows, err := c.pool.Query(ctx, `
		SELECT id, version, code, name, active, type, parent_id
		FROM cat_accounts
		ORDER BY code
	`)
	if err != nil {
		return fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	loaded := make(map[id.ID]*accounts.Account)
	for rows.Next() {
		var acc accounts.Account
		err := rows.Scan(
			&acc.ID, &acc.Version, &acc.Code, &acc.Name, &acc.Active,
			&acc.Type, &acc.ParentID,
		)
		if err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		loaded[acc.ID] = &acc
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate accounts: %w", err)
	}

	c.mu.Lock()
	c.accounts = loaded
	c.mu.Unlock()

	logger.Info(ctx, "loaded chart of accounts", "count", len(loaded))
	return nil
}

// Get returns a cached account, falling back to the repository on a miss.
// Misses are cached so a freshly created account is visible before the
// NOTIFY round trip completes.
func (c *AccountCache) Get(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	c.mu.RLock()
	acc, ok := c.accounts[accountID]
	c.mu.RUnlock()
	if ok {
		return acc, nil
	}

	acc, err := c.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.accounts[accountID] = acc
	c.mu.Unlock()

	return acc, nil
}

// RequireActive loads an account and rejects inactive or unknown ones.
func (c *AccountCache) RequireActive(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	acc, err := c.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, apperror.NewRuleViolation(apperror.CodeInactiveAccount, "account is inactive").
			WithDetail("accountId", accountID.String()).
			WithDetail("code", acc.Code)
	}
	return acc, nil
}

// OnInvalidation registers a callback for cache invalidation events.
func (c *AccountCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// CacheStats reports cache contents.
type CacheStats struct {
	AccountsCount int
	ActiveCount   int
}

// GetStats returns current cache statistics.
func (c *AccountCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	for _, acc := range c.accounts {
		if acc.Active {
			active++
		}
	}

	return CacheStats{
		AccountsCount: len(c.accounts),
		ActiveCount:   active,
	}
}

var _ ledger.AccountRegistry = (*AccountCache)(nil)

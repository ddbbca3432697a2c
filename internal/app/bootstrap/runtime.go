package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/contractor-sms-triage/internal/config"
	"github.com/wolfman30/contractor-sms-triage/internal/conversations"
	"github.com/wolfman30/contractor-sms-triage/internal/projects"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, reply cache falls back to memory", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Stores groups the persistence layer used by the processor and admin API.
type Stores struct {
	Projects      projects.Repository
	Conversations conversations.Store
	Pool          *pgxpool.Pool
}

// Close releases the database pool when one was opened.
func (s *Stores) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// BuildStores opens Postgres, or falls back to in-memory stores when
// USE_MEMORY_STORE is set outside production.
func BuildStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.UseMemoryStore {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("bootstrap: in-memory store is not allowed in production")
		}
		logger.Warn("using in-memory stores; data is lost on restart")
		return &Stores{
			Projects:      projects.NewInMemoryRepository(),
			Conversations: conversations.NewInMemoryStore(),
		}, nil
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping database: %w", err)
	}
	return &Stores{
		Projects:      projects.NewPostgresRepository(pool),
		Conversations: conversations.NewPostgresStore(pool),
		Pool:          pool,
	}, nil
}

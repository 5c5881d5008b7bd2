package cli

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/pkg/adapters/file"
	"github.com/aretw0/turnstile/pkg/adapters/memory"
	"github.com/aretw0/turnstile/pkg/adapters/redis"
	"github.com/aretw0/turnstile/pkg/adapters/sqlite"
	"github.com/aretw0/turnstile/pkg/persistence/middleware"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/aretw0/turnstile/pkg/session"
)

// Backend is an opened transcript store and the manager guarding it.
// Store is the raw adapter; Sessions goes through the configured middlewares.
type Backend struct {
	Store    ports.TranscriptStore
	Sessions *session.Manager
	close    func() error
}

// Close releases the store's connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the store selected by TURNSTILE_STORE.
func OpenBackend(s config.Settings, logger *slog.Logger) (*Backend, error) {
	opts := []session.Option{session.WithLogger(logger)}
	b := &Backend{}

	switch s.Store {
	case config.StoreMemory:
		b.Store = memory.NewStore()
	case config.StoreFile, "":
		b.Store = file.New(s.SessionsDir())
	case config.StoreRedis:
		var ropts []redis.Option
		if s.RedisTTL > 0 {
			ropts = append(ropts, redis.WithTTL(s.RedisTTL))
		}
		store := redis.New(s.RedisAddr, s.RedisPassword, s.RedisDB, ropts...)
		if s.RedisLock {
			opts = append(opts, session.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix)))
		}
		b.Store = store
		b.close = store.Close
	case config.StoreSQLite:
		path := s.DatabasePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		b.Store = store
		b.close = store.Close
	default:
		return nil, fmt.Errorf("unknown store %q", s.Store)
	}

	mws, err := storeMiddlewares(s)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Sessions = session.NewManager(middleware.Chain(b.Store, mws...), opts...)
	logger.Debug("Transcript store opened", "store", s.Store, "middlewares", len(mws))
	return b, nil
}

// storeMiddlewares builds redaction and encryption from the settings.
// Redaction runs first so masked values are what gets sealed.
func storeMiddlewares(s config.Settings) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(s.RedactKeys) > 0 {
		mw, err := middleware.NewRedactMiddleware(s.RedactKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if s.EncryptionKey == "" {
		return mws, nil
	}

	active, err := decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("TURNSTILE_ENCRYPTION_KEY: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range s.EncryptionFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	return append(mws, mw), nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key is not base64: %w", err)
	}
	return key, nil
}

// internal/vault/vault.go
//
// Vault client used to resolve `vault:` references in configuration.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one thing the site needs:
//     reading single keys from KV-v2 secrets (directory client secret,
//     mail API key, database password).
//   - Values are cached per path#key for the caller-supplied TTL so a
//     SIGHUP reload does not hammer Vault.
//   - A background loop keeps the token alive while the process runs.
//
// Workflow
// --------
//  1. cli, err := vault.New(ctx, log)            // only when VAULT_ADDR is set.
//  2. config.SetSecretResolver(cli)              // before config.Load.
//  3. config.Load resolves `vault:kv/site#mail_key` through cli.GetKV.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the secret exists but lacks the key.
var ErrNotFound = errors.New("vault key not found")

/*──────────────────────────── client ──────────────────────────────────────*/

// reader fetches the data map of one KV-v2 secret.
type reader func(ctx context.Context, mount, rel string) (map[string]any, error)

// Client is safe for concurrent use.  The zero value is invalid.
type Client struct {
	read reader
	log  *zap.SugaredLogger

	mu    sync.RWMutex
	cache map[string]cached
	now   func() time.Time
}

type cached struct {
	val string
	exp time.Time
}

// New builds a client from the standard VAULT_* environment and starts the
// token-renewal loop, which stops when ctx is cancelled.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := newClient(func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	}, log)

	go renewLoop(ctx, api, log)
	return c, nil
}

func newClient(read reader, log *zap.SugaredLogger) *Client {
	return &Client{read: read, log: log, cache: make(map[string]cached), now: time.Now}
}

// GetKV returns secretPath#key.  With ttl > 0 the value is served from
// cache until it expires.  secretPath is "<mount>/<path>", e.g. "kv/site".
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}
	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.mu.RLock()
		cv, ok := c.cache[canonical]
		c.mu.RUnlock()
		if ok && c.now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	data, err := c.read(ctx, mount, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s#%s", ErrNotFound, secretPath, key)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.mu.Lock()
		c.cache[canonical] = cached{val: val, exp: c.now().Add(ttl)}
		c.mu.Unlock()
	}
	c.log.Debugw("vault secret resolved", "path", secretPath, "key", key)
	return val, nil
}

/*──────────────────────────── token renewal ───────────────────────────────*/

func renewLoop(ctx context.Context, api *vault.Client, log *zap.SugaredLogger) {
	for ctx.Err() == nil {
		sec, err := api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			log.Warnw("vault token renew failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			log.Infow("vault token is not renewable")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			log.Warnw("vault watcher init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		watch(ctx, watcher, log)
		backoff(ctx, 15*time.Second)
	}
}

// watch blocks until the watcher stops or ctx ends.
func watch(ctx context.Context, w *vault.LifetimeWatcher, log *zap.SugaredLogger) {
	go w.Start()
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				log.Warnw("vault token renewal stopped", "err", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				log.Debugw("vault token renewed", "ttl", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

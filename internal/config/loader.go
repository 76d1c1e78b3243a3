// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. Optional `conf/global.yaml`.
  3. Legacy deployment variables (AZURE_TENANT_ID, AZURE_SQL_SERVER,
     SENDGRID_API_KEY, CONTACT_TO, …).  See legacy.go.
  4. Environment variables prefixed `SAMIL_`, where `__` maps to “.”
     (e.g., `SAMIL_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every `vault:<mount/path>#<key>` string is swapped for the
secret it names, the tree is unmarshalled into strongly-typed structs,
defaults are applied, the result is validated, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` calls `Load()` again and
swaps the pointer only on success.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read.
  • ERROR spans – YAML parse, env overlay, secret lookup, unmarshal,
    validation failures.
  • INFO  span  – final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "SAMIL_"
	vaultPrefix = "vault:"
	secretTTL   = 10 * time.Minute
)

var current atomic.Pointer[Config]

/*──────────────────────────── secret resolution ────────────────────────────*/

// SecretResolver fetches one key from a KV secret.  *vault.Client satisfies
// it; tests pass a map-backed fake.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var (
	resolverMu sync.RWMutex
	resolver   SecretResolver
)

// SetSecretResolver installs the resolver used for `vault:` values.  Pass
// nil to disable resolution; unresolved references then fail Load.
func SetSecretResolver(r SecretResolver) {
	resolverMu.Lock()
	resolver = r
	resolverMu.Unlock()
}

func secretResolver() SecretResolver {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	return resolver
}

// resolveSecrets rewrites every `vault:` string in k in place.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	for key, raw := range k.All() {
		s, ok := raw.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		r := secretResolver()
		if r == nil {
			return fmt.Errorf("%s references vault but no vault client is configured", key)
		}
		path, field, ok := strings.Cut(strings.TrimPrefix(s, vaultPrefix), "#")
		if !ok || path == "" || field == "" {
			return fmt.Errorf("%s: malformed vault reference %q", key, s)
		}
		val, err := r.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SAMIL_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the executable heuristic for the production
// layout and finally to the working directory.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		zap.S().Errorw("config legacy env overlay failed", "err", err)
		return nil, err
	}
	if err := k.Load(env.Provider(envPrefix, ".", prefixedKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := resolveSecrets(ctx, k); err != nil {
		zap.S().Errorw("config secret lookup failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	cfg.applyDefaults()
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"directory_configured", cfg.Directory.TenantID != "" && cfg.Directory.ClientID != "",
		"mail_configured", cfg.Mail.APIKey != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Root returns the directory Load reads conf/ from.  main uses it to place
// logs/ before the first Load.
func Root() string { return rootDir() }

// Get returns the cached Config, or nil before the first successful Load.
func Get() *Config { return current.Load() }

// Reload re-runs Load.  On failure the previous Config stays in place.
func Reload() error { _, err := Load(); return err }

// Set installs cfg directly.  Used by tests and by embedders that build a
// Config without touching the environment.
func Set(cfg *Config) { current.Store(cfg) }

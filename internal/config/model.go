// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • optional `conf/global.yaml`             – primary static file,
//   • legacy deployment names                 – AZURE_*, SENDGRID_*, CONTACT_*,
//   • `SAMIL_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client before unmarshalling, so the model never stores
// Vault URIs, only plain strings.
//
// Only the HTTP block is required at boot.  Directory, database, and mail
// values are checked per request so an operator can fix a missing secret
// and SIGHUP the process without a restart.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	StaticDir  string `koanf:"static_dir"`
}

//
// Database section
//

// Database holds the settings-store connection parameters.  Either DSN,
// ConnectionString, or the discrete Host/Name/User/Password quartet must be
// present by the time the first request touches the store.
type Database struct {
	DSN              string `koanf:"dsn"`
	ConnectionString string `koanf:"connection_string"`
	Host             string `koanf:"host"`
	Name             string `koanf:"name"`
	User             string `koanf:"user"`
	Password         string `koanf:"password"`
	MaxOpen          int    `koanf:"max_open" validate:"gte=0"`
}

//
// Directory section
//

// Directory holds the service identity used for the client-credentials
// exchange, plus endpoint overrides for sovereign clouds and tests.
type Directory struct {
	TenantID     string `koanf:"tenant_id"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	AuthorityURL string `koanf:"authority_url" validate:"omitempty,url"`
	GraphURL     string `koanf:"graph_url"     validate:"omitempty,url"`
}

//
// Mail and contact sections
//

// Mail configures the SendGrid relay.
type Mail struct {
	APIKey   string `koanf:"api_key"`
	From     string `koanf:"from"      validate:"omitempty,email"`
	FromName string `koanf:"from_name"`
	Host     string `koanf:"host"      validate:"omitempty,url"`
}

// Contact holds the contact-form recipient.
type Contact struct {
	To string `koanf:"to" validate:"omitempty,email"`
}

//
// Optional features
//

// GeoIP points at a MaxMind City database.  Empty disables geo lookup.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Components lists component names that must not be mounted.
type Components struct {
	Disabled []string `koanf:"disabled"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SAMIL_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	Database   Database   `koanf:"database"`
	Directory  Directory  `koanf:"directory"`
	Mail       Mail       `koanf:"mail"`
	Contact    Contact    `koanf:"contact"`
	GeoIP      GeoIP      `koanf:"geoip"`
	Components Components `koanf:"components"`
	Paths      Paths      `koanf:"-"`
}

// Defaults for the production deployment.
const (
	DefaultListenAddr = ":8080"
	DefaultContactTo  = "support@sydneysamil.org"
	DefaultFromName   = "Sydney Samil Church"
	DefaultMaxOpen    = 5
)

// applyDefaults fills zero values that have a sensible fallback.
func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultListenAddr
	}
	if c.Contact.To == "" {
		c.Contact.To = DefaultContactTo
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = DefaultFromName
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = DefaultMaxOpen
	}
}

// ComponentEnabled reports whether name is absent from Components.Disabled.
func (c *Config) ComponentEnabled(name string) bool {
	for _, d := range c.Components.Disabled {
		if d == name {
			return false
		}
	}
	return true
}

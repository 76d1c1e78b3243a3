package database

import (
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/sydneysamil/samil-web/internal/config"
)

// ErrNotConfigured is returned when no connection parameters are present.
var ErrNotConfigured = errors.New("database connection is not configured")

// DSN builds a go-sql-driver DSN from the database section.  Precedence:
// explicit DSN, then ConnectionString, then the discrete Host/Name/User/
// Password values.  parseTime is always enabled so DATETIME columns scan
// into time.Time.
func DSN(c config.Database) (string, error) {
	switch {
	case c.DSN != "":
		return withParseTime(c.DSN)
	case c.ConnectionString != "":
		if strings.Contains(c.ConnectionString, ";") {
			return fromKeyValue(c.ConnectionString)
		}
		return withParseTime(c.ConnectionString)
	case c.Host != "" && c.Name != "" && c.User != "" && c.Password != "":
		return build(c.Host, c.Name, c.User, c.Password, false), nil
	default:
		return "", ErrNotConfigured
	}
}

func withParseTime(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// fromKeyValue accepts the semicolon-separated form used by hosted SQL
// offerings, e.g.
//
//	Server=tcp:db.example.net,3306;Database=samil;User ID=app;Password=pw;Encrypt=true
func fromKeyValue(s string) (string, error) {
	var host, name, user, pass string
	var tls bool
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "server", "data source", "host", "address":
			host = v
		case "database", "initial catalog":
			name = v
		case "user id", "uid", "user", "username":
			user = v
		case "password", "pwd":
			pass = v
		case "encrypt", "ssl mode", "sslmode":
			tls = strings.EqualFold(v, "true") || strings.EqualFold(v, "required")
		}
	}
	if host == "" || name == "" || user == "" {
		return "", ErrNotConfigured
	}
	return build(host, name, user, pass, tls), nil
}

func build(host, name, user, pass string, tls bool) string {
	host = strings.TrimPrefix(host, "tcp:")
	port := "3306"
	if h, p, ok := strings.Cut(host, ","); ok {
		host, port = h, p
	} else if h, p, err := net.SplitHostPort(host); err == nil {
		host, port = h, p
	}

	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = name
	cfg.ParseTime = true
	if tls {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

package config

import "strings"

// legacyKeys maps the environment names used by the App Service hosting
// platform onto the Koanf tree.  They load below the SAMIL_ layer so a
// prefixed override always wins.
var legacyKeys = map[string]string{
	"AZURE_TENANT_ID":             "directory.tenant_id",
	"AZURE_CLIENT_ID":             "directory.client_id",
	"AZURE_CLIENT_SECRET":         "directory.client_secret",
	"AZURE_SQL_CONNECTION_STRING": "database.connection_string",
	"AZURE_SQL_SERVER":            "database.host",
	"AZURE_SQL_DATABASE":          "database.name",
	"AZURE_SQL_USER":              "database.user",
	"AZURE_SQL_PASSWORD":          "database.password",
	"SENDGRID_API_KEY":            "mail.api_key",
	"CONTACT_FROM":                "mail.from",
	"CONTACT_FROM_NAME":           "mail.from_name",
	"CONTACT_TO":                  "contact.to",
}

// legacyKey is the env.Provider callback for the legacy layer.  Returning
// "" tells Koanf to skip the variable.
func legacyKey(name string) string {
	return legacyKeys[name]
}

// prefixedKey maps SAMIL_HTTP__LISTEN_ADDR to http.listen_addr.
func prefixedKey(name string) string {
	name = strings.TrimPrefix(name, envPrefix)
	if name == "ROOT" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(name, "__", "."))
}

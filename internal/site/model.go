package site

import "time"

// ThemeKey is the only setting key the site uses.
const ThemeKey = "theme"

// Setting mirrors one row in the `site_settings` table.
//
//   - UpdatedBy – identity string of the last writer, NULL for the
//     provisioned default row.
//   - UpdatedAt – server clock at the last write, NULL until the first
//     write.  Never moves backwards.
type Setting struct {
	Key       string     `db:"setting_key" json:"-"`
	ThemeID   string     `db:"theme_id"    json:"themeId"`
	UpdatedBy *string    `db:"updated_by"  json:"updatedBy"`
	UpdatedAt *time.Time `db:"updated_at"  json:"updatedAt"`
}

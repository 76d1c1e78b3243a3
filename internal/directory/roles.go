package directory

import "strings"

// OData type tags on memberOf entries.
const (
	TypeGroup         = "#microsoft.graph.group"
	TypeDirectoryRole = "#microsoft.graph.directoryRole"
)

// globalAdmin is compared against lower-cased display names.  The match is
// exact: renamed or localised roles do not qualify.
const globalAdmin = "global administrator"

// IsGlobalAdmin reports whether any directory-role entry is named
// "Global Administrator", ignoring case.  Groups never match, whatever
// their name.
func IsGlobalAdmin(entries []DirectoryObject) bool {
	for _, e := range entries {
		if e.ODataType == TypeDirectoryRole && strings.ToLower(e.DisplayName) == globalAdmin {
			return true
		}
	}
	return false
}

// Groups returns the group entries in order.
func Groups(entries []DirectoryObject) []DirectoryObject {
	return ofType(entries, TypeGroup)
}

// DirectoryRoles returns the directory-role entries in order.
func DirectoryRoles(entries []DirectoryObject) []DirectoryObject {
	return ofType(entries, TypeDirectoryRole)
}

func ofType(entries []DirectoryObject, t string) []DirectoryObject {
	out := make([]DirectoryObject, 0, len(entries))
	for _, e := range entries {
		if e.ODataType == t {
			out = append(out, e)
		}
	}
	return out
}

package manifest

import "strings"

// forbiddenFolderChars lists the characters disallowed anywhere in a folder
// or file_name value, beyond the leading/trailing space-or-dot rule.
const forbiddenFolderChars = `<>:"/\|?*`

// validFolderName reports whether name satisfies the manifest's folder/
// folder_alias/file_name constraints: non-empty, no leading or trailing
// space or dot, and free of path-hostile characters and newlines.
func validFolderName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, forbiddenFolderChars) {
		return false
	}
	if strings.ContainsAny(name, "\n\r") {
		return false
	}

	first := name[0]
	last := name[len(name)-1]
	if first == ' ' || first == '.' || last == ' ' || last == '.' {
		return false
	}

	return true
}

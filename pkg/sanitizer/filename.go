package sanitizer

import (
	"path/filepath"
	"strings"
)

const maxFilenameLength = 255

var unsafeFilenameChars = strings.NewReplacer(
	":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
	"\x00", "", "\r", "", "\n", "", "\t", "_",
)

// Filename reduces an uploaded file's name to a safe base name. Directory
// components from either path style are dropped. fallback is used when
// nothing usable remains.
func Filename(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.Replace(name)
	name = strings.Trim(name, " .")
	name = MaxLength(name, maxFilenameLength)
	if name == "" || name == "/" {
		return fallback
	}
	return name
}

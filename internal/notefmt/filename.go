package notefmt

import (
	"strings"
	"unicode/utf8"
)

// Names are capped in runes for readability and in bytes so that
// "<name> - <id>.md" stays under the 255-byte limit of common filesystems.
const (
	maxNameRunes = 100
	maxNameBytes = 200
)

// unsafeChars are stripped from file names: the characters forbidden on
// common filesystems plus those that break wikilinks.
const unsafeChars = `\/*?:"<>|#^[]`

// SafeName turns a title into a file-name stem. It returns "" when nothing
// usable remains.
func SafeName(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(unsafeChars, r):
		case r < 0x20:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), " ")
	name = strings.Trim(name, ". ")
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	if len(name) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return strings.TrimRight(name, ". ")
}

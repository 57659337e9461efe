// Package sanitize folds accented text into the ASCII subset the display
// font can render.
package sanitize

import "strings"

// Vietnamese letters grouped by their unaccented base form.
var accentGroups = map[byte]string{
	'a': "àáạảãâầấậẩẫăằắặẳẵ",
	'e': "èéẹẻẽêềếệểễ",
	'i': "ìíịỉĩ",
	'o': "òóọỏõôồốộổỗơờớợởỡ",
	'u': "ùúụủũưừứựửữ",
	'y': "ỳýỵỷỹ",
	'd': "đ",
	'A': "ÀÁẠẢÃÂẦẤẬẨẪĂẰẮẶẲẴ",
	'E': "ÈÉẸẺẼÊỀẾỆỂỄ",
	'I': "ÌÍỊỈĨ",
	'O': "ÒÓỌỎÕÔỒỐỘỔỖƠỜỚỢỞỠ",
	'U': "ÙÚỤỦŨƯỪỨỰỬỮ",
	'Y': "ỲÝỴỶỸ",
	'D': "Đ",
}

var foldTable map[rune]rune

func init() {
	foldTable = make(map[rune]rune, 160)
	for base, accented := range accentGroups {
		for _, r := range accented {
			foldTable[r] = rune(base)
		}
	}
}

// FoldAccents replaces accented letters with their base form and drops any
// remaining rune outside printable ASCII.
func FoldAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := foldTable[r]; ok {
			b.WriteRune(folded)
			continue
		}
		if r >= 0x20 && r < 0x7F {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpaces trims and squeezes runs of whitespace to single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

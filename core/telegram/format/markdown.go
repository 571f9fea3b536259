package format

import "strings"

const mdV1Specials = "_*`["

// EscapeMarkdown escapes Telegram Markdown (V1) special characters in
// user-supplied text such as names.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(mdV1Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

package transcript

import "strings"

// Languages written without spaces between words.
var unspacedLanguages = map[string]bool{
	"ja-JP": true,
	"ko-KR": true,
	"zh-CN": true,
}

// StitchMultiLanguage rebuilds text from a multi-language item stream. Each
// contiguous run of one language code becomes a line; a code that comes
// back later starts a new line.
func StitchMultiLanguage(items []Item) string {
	var (
		lines   []string
		buf     strings.Builder
		current string
	)
	for _, item := range items {
		lang := item.LanguageCode
		if lang != current {
			if buf.Len() > 0 {
				lines = append(lines, buf.String())
				buf.Reset()
			}
			current = lang
		}
		for _, content := range item.contents() {
			if !unspacedLanguages[lang] && item.Type == Pronunciation && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(content)
		}
	}
	if buf.Len() > 0 {
		lines = append(lines, buf.String())
	}
	return strings.Join(lines, "\n")
}

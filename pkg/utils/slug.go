package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9а-яё]+`)

// CategoryPathSegment переводит название категории в сегмент пути:
// "Bug Fixes / Hotfix" -> "bug-fixes-hotfix".
// Все символы кроме букв и цифр схлопываются в дефис, поэтому путь
// не является обратимым — это строка для отображения, не ключ.
func CategoryPathSegment(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// BuildCategoryPath собирает путь категории от корня: "infra/bug-fixes".
func BuildCategoryPath(names []string) string {
	segments := make([]string, 0, len(names))
	for _, name := range names {
		if seg := CategoryPathSegment(name); seg != "" {
			segments = append(segments, seg)
		}
	}
	return strings.Join(segments, "/")
}

package build

import (
	"strings"

	"github.com/goodsign/monday"
)

const zhBlogSegment = "/zh/blog"

type localeSettings struct {
	tagPrefix string
	// permalinkPrefix is cut from the post path; what remains starts with "/".
	permalinkPrefix string
	dateLayout      string
	dateLocale      monday.Locale
}

var locales = map[string]localeSettings{
	LocaleEnUS: {
		tagPrefix:       "/blog/tags/",
		permalinkPrefix: "blog/en",
		dateLayout:      "Jan 02, 2006",
		dateLocale:      monday.LocaleEnUS,
	},
	LocaleZhCN: {
		tagPrefix:       "/zh/blog/tags/",
		permalinkPrefix: "blog",
		dateLayout:      "2006年01月2日",
		dateLocale:      monday.LocaleZhCN,
	},
}

func DetectLocale(path string) string {
	if strings.Contains(path, zhBlogSegment) {
		return LocaleZhCN
	}
	return LocaleEnUS
}

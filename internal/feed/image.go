package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstImageURL ищет первую картинку в HTML-теле поста.
// Best effort: если разметка кривая или картинок нет, возвращает пустую
// строку — отсутствие картинки не ошибка.
func FirstImageURL(bodyHTML string) string {
	if bodyHTML == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img[src]").First().Attr("src")
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ""
	}
	return src
}

package enricher

import (
	"context"
	"html"
	"strings"
	"unicode"

	"postovik/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const defaultExcerptRunes = 400

// TemplateEnricher собирает подпись из заголовка и очищенного от разметки
// фрагмента тела. Никогда не падает: это та подпись, до которой деградируют
// остальные реализации.
type TemplateEnricher struct {
	maxExcerpt int
}

func NewTemplateEnricher() *TemplateEnricher {
	return &TemplateEnricher{maxExcerpt: defaultExcerptRunes}
}

func (e *TemplateEnricher) Enrich(ctx context.Context, item models.FeedItem) string {
	title := strings.TrimSpace(item.Title)
	excerpt := Excerpt(item.BodyHTML, e.maxExcerpt)

	var b strings.Builder
	if title != "" {
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(title))
		b.WriteString("</b>")
	}
	if excerpt != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(html.EscapeString(excerpt))
	}

	if b.Len() == 0 {
		// Совсем пустой пост: подпись все равно должна быть непустой
		return "Новый пост в блоге"
	}
	return b.String()
}

// Excerpt снимает HTML-разметку и обрезает текст по границе слова.
func Excerpt(bodyHTML string, maxRunes int) string {
	if bodyHTML == "" {
		return ""
	}

	text := bodyHTML
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
		text = doc.Text()
	}

	// Схлопываем пробельные последовательности, включая переводы строк
	text = strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	if maxRunes <= 0 {
		maxRunes = defaultExcerptRunes
	}

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	cut := string(runes[:maxRunes])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

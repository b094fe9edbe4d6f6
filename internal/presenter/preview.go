package presenter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxPreviewLen = 120

// htmlTitle extracts the document title when payload looks like HTML.
func htmlTitle(payload string) string {
	lower := strings.ToLower(payload)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<title") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return ""
	}
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if len(title) > maxPreviewLen {
		title = title[:maxPreviewLen] + "..."
	}
	return title
}

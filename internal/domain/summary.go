package domain

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SummaryTokenLimit is the default number of whitespace-delimited tokens
// kept when deriving a summary from story content.
const SummaryTokenLimit = 30

// Summarize derives a short summary: markup is stripped, the content is
// split on whitespace, the first limit tokens are joined with single
// spaces, and an ellipsis marks truncation.
func Summarize(content string, limit int) string {
	if limit <= 0 {
		limit = SummaryTokenLimit
	}

	tokens := strings.Fields(plainText(content))
	if len(tokens) <= limit {
		return strings.Join(tokens, " ")
	}
	return strings.Join(tokens[:limit], " ") + "..."
}

// plainText strips HTML tags the model occasionally emits; plain content
// passes through untouched.
func plainText(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	return doc.Text()
}

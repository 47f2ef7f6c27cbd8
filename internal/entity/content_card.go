package entity

import "time"

// ContentCard is one labeled content unit extracted from an activity page.
// It mirrors the `content_cards` PostgreSQL table and the CSV columns.
type ContentCard struct {
	SourceURL      string
	LessonTitle    string
	Step           string
	Section        string
	BodyText       string
	TranslatedText *string // nil when no translation was produced
	Position       int     // zero-based order of the card on its page
	HarvestedAt    time.Time
}

// CardColumns is the stable column order of the tabular card output.
var CardColumns = []string{"source_url", "lesson_title", "step", "section", "body_text", "translated_text"}

// Record returns the card as a row in CardColumns order.
func (c ContentCard) Record() []string {
	translated := ""
	if c.TranslatedText != nil {
		translated = *c.TranslatedText
	}
	return []string{c.SourceURL, c.LessonTitle, c.Step, c.Section, c.BodyText, translated}
}

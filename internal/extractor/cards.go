package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/lesson-harvester/internal/dom"
	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// Selectors locate the parts of an activity page. Step, Section and Body are
// evaluated inside each Card container.
type Selectors struct {
	Card    string
	Step    string
	Section string
	Body    string
	Title   string
	// Ready is what the browser waits for before a snapshot is taken.
	Ready string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Card:    ".alp-preview-miniscreen",
		Step:    ".step-index span",
		Section: ".section-name-text span",
		Body:    ".k5-note .ProseMirror",
		Title:   ".activity-title h1",
		Ready:   ".alp-preview-miniscreen, .k5-note .ProseMirror",
	}
}

type CardExtractor struct {
	sel Selectors
}

func New(sel Selectors) *CardExtractor {
	return &CardExtractor{sel: sel}
}

// ReadySelector returns the selector that signals a rendered activity.
func (e *CardExtractor) ReadySelector() string {
	return e.sel.Ready
}

// Extract returns the cards of an activity page in document order.
// A page without any card container yields ErrStructureNotFound. Missing
// fields inside a container are empty strings, never an error.
func (e *CardExtractor) Extract(snap *entity.PageSnapshot) ([]entity.ContentCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot of %s: %w", snap.URL, err)
	}

	containers := doc.Find(e.sel.Card)
	if containers.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q containers on %s", repository.ErrStructureNotFound, e.sel.Card, snap.URL)
	}

	title := e.lessonTitle(doc)
	cards := make([]entity.ContentCard, 0, containers.Length())
	containers.Each(func(i int, c *goquery.Selection) {
		cards = append(cards, entity.ContentCard{
			SourceURL:   snap.URL,
			LessonTitle: title,
			Step:        field(c, e.sel.Step),
			Section:     field(c, e.sel.Section),
			BodyText:    field(c, e.sel.Body),
			Position:    i,
		})
	})
	return cards, nil
}

func (e *CardExtractor) lessonTitle(doc *goquery.Document) string {
	if e.sel.Title != "" {
		if t := dom.InnerText(doc.Find(e.sel.Title).First()); t != "" {
			return t
		}
	}
	return dom.InnerText(doc.Find("title").First())
}

func field(container *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return dom.InnerText(container.Find(selector).First())
}

// Package classifier finds the catalog links of a given role in a rendered page.
//
// Unit links are anchors whose destination has the collection shape and whose
// text carries a unit label. Activity links are any anchors with the activity
// shape. Lesson links are the activity-shaped anchors of the page plus whatever
// the visible "Lesson N:" labels lead to: the label is often not the clickable
// node, so the classifier locates it and walks a bounded number of ancestors to
// the nearest enclosing link, which may point at an intermediate collection.
// Both kinds are returned in the order their links first appear in the page.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/lesson-harvester/internal/dedup"
	"github.com/user/lesson-harvester/internal/dom"
	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/pkg/utils"
)

const anchorSelector = "a[href]"

// Options configures a Classifier.
type Options struct {
	// RegionSelector scopes the search to the primary content region when the
	// page has one; the whole body is used otherwise.
	RegionSelector string
	UnitLabel      *regexp.Regexp
	LessonLabel    *regexp.Regexp
	Activity       Shape
	Collection     Shape
	// AncestorDepth bounds the walk from a lesson label to its link.
	AncestorDepth int
}

// DefaultOptions returns the patterns of the classroom catalog.
func DefaultOptions() Options {
	return Options{
		RegionSelector: "main",
		UnitLabel:      regexp.MustCompile(`(?i)\bUnit\s+(?:Zero|\d+)\b`),
		LessonLabel:    regexp.MustCompile(`(?i)\bLesson\s+\d+\s*:`),
		Activity:       MustShape(`(?i)^/activity/[0-9a-f]{24}(?:/|$)`),
		Collection:     MustShape(`(?i)^/collection/[0-9a-f]{24}(?:/|$)`),
		AncestorDepth:  10,
	}
}

type Classifier struct {
	opts Options
}

func New(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// IsActivity reports whether url has the activity shape.
func (c *Classifier) IsActivity(url string) bool { return c.opts.Activity.Match(url) }

// IsCollection reports whether url has the collection shape.
func (c *Classifier) IsCollection(url string) bool { return c.opts.Collection.Match(url) }

// Classify returns the links of role found in snap, normalized, deduplicated and
// in the order they first appear in the document.
func (c *Classifier) Classify(snap *entity.PageSnapshot, role entity.Role) ([]entity.CatalogNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot of %s: %w", snap.URL, err)
	}
	region := c.contentRegion(doc)
	seen := dedup.New(string(role))

	switch role {
	case entity.RoleUnit:
		return c.units(region, snap.URL, seen), nil
	case entity.RoleLesson:
		return c.lessons(region, snap.URL, seen), nil
	case entity.RoleActivity:
		return c.activities(region, snap.URL, seen), nil
	default:
		return nil, fmt.Errorf("no classification rule for role %q", role)
	}
}

func (c *Classifier) contentRegion(doc *goquery.Document) *goquery.Selection {
	if c.opts.RegionSelector != "" {
		if region := doc.Find(c.opts.RegionSelector).First(); region.Length() > 0 {
			return region
		}
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func (c *Classifier) units(region *goquery.Selection, base string, seen *dedup.Set) []entity.CatalogNode {
	var nodes []entity.CatalogNode
	region.Find(anchorSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u := utils.NormalizeURL(base, href)
		if u == "" || !c.opts.Collection.Match(u) {
			return
		}
		text := dom.InnerText(a)
		if text == "" || c.opts.UnitLabel == nil || !c.opts.UnitLabel.MatchString(text) {
			return
		}
		if seen.Admit(u) {
			nodes = append(nodes, entity.CatalogNode{URL: u, Role: entity.RoleUnit, Label: text})
		}
	})
	return nodes
}

func (c *Classifier) activities(region *goquery.Selection, base string, seen *dedup.Set) []entity.CatalogNode {
	var nodes []entity.CatalogNode
	region.Find(anchorSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u := utils.NormalizeURL(base, href)
		if u == "" || !c.opts.Activity.Match(u) {
			return
		}
		if seen.Admit(u) {
			nodes = append(nodes, entity.CatalogNode{URL: u, Role: entity.RoleActivity, Label: dom.InnerText(a)})
		}
	})
	return nodes
}

func (c *Classifier) lessons(region *goquery.Selection, base string, seen *dedup.Set) []entity.CatalogNode {
	labelOf := make(map[string]string)
	c.lessonLabels(region).Each(func(_ int, label *goquery.Selection) {
		u := c.nearestLink(label, region, base)
		if u == "" {
			// A label with no navigable destination is not a usable result.
			return
		}
		if _, ok := labelOf[u]; !ok {
			labelOf[u] = dom.InnerText(label)
		}
	})

	// One pass over the anchors merges both sources in document order.
	var nodes []entity.CatalogNode
	region.Find(anchorSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u := utils.NormalizeURL(base, href)
		if u == "" {
			return
		}
		label, labeled := labelOf[u]
		if !labeled && !c.opts.Activity.Match(u) {
			return
		}
		if !seen.Admit(u) {
			return
		}
		node := entity.CatalogNode{URL: u, Role: entity.RoleLesson, Label: label}
		if !labeled {
			node.Label = dom.InnerText(a)
			node.Unlabeled = true
		}
		nodes = append(nodes, node)
	})
	return nodes
}

// lessonLabels returns the innermost elements whose text carries a lesson label.
// Ancestors of a label match too, since their text contains it; they are skipped
// so each label is walked from the node that actually renders it.
func (c *Classifier) lessonLabels(region *goquery.Selection) *goquery.Selection {
	if c.opts.LessonLabel == nil {
		return region.Slice(0, 0)
	}
	matches := func(s *goquery.Selection) bool {
		return c.opts.LessonLabel.MatchString(dom.InnerText(s))
	}
	return region.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !matches(s) {
			return false
		}
		deeper := s.Children().FilterFunction(func(_ int, child *goquery.Selection) bool {
			return matches(child)
		})
		return deeper.Length() == 0
	})
}

// nearestLink walks from label up to AncestorDepth parents, never past region,
// and returns the first activity- or collection-shaped link inside the closest
// container that has one.
func (c *Classifier) nearestLink(label, region *goquery.Selection, base string) string {
	container := label
	for level := 0; level <= c.opts.AncestorDepth && container.Length() > 0; level++ {
		if u := c.firstLessonLink(container, base); u != "" {
			return u
		}
		if container.IsSelection(region) {
			break
		}
		container = container.Parent()
	}
	return ""
}

func (c *Classifier) firstLessonLink(container *goquery.Selection, base string) string {
	var found string
	candidates := container.Filter(anchorSelector).AddSelection(container.Find(anchorSelector))
	candidates.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		u := utils.NormalizeURL(base, href)
		if u != "" && (c.opts.Activity.Match(u) || c.opts.Collection.Match(u)) {
			found = u
			return false
		}
		return true
	})
	return found
}

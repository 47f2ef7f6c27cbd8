package classifier

import (
	"fmt"
	"net/url"
	"regexp"
)

// Shape is a structural URL pattern (path prefix plus identifier format) that
// tells which role a link plays, independent of its text.
type Shape struct {
	path *regexp.Regexp
}

// NewShape compiles a pattern matched against the URL path.
func NewShape(pathPattern string) (Shape, error) {
	re, err := regexp.Compile(pathPattern)
	if err != nil {
		return Shape{}, fmt.Errorf("compiling URL shape %q: %w", pathPattern, err)
	}
	return Shape{path: re}, nil
}

// MustShape is NewShape for patterns known at compile time.
func MustShape(pathPattern string) Shape {
	s, err := NewShape(pathPattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether rawURL is an absolute HTTP(S) URL whose path has this shape.
func (s Shape) Match(rawURL string) bool {
	if s.path == nil || rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return s.path.MatchString(u.EscapedPath())
}

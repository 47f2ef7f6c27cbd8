package entity

// Role is the position of a link in the catalog hierarchy.
type Role string

const (
	RoleGrade    Role = "grade"
	RoleUnit     Role = "unit"
	RoleLesson   Role = "lesson"
	RoleActivity Role = "activity"
)

func (r Role) String() string { return string(r) }

// CatalogNode is a link discovered by the classifier. Nodes are never mutated;
// rediscovery is resolved by deduplication, not by updating a node.
type CatalogNode struct {
	URL   string `json:"url"`
	Role  Role   `json:"role"`
	Label string `json:"label"`
	// Unlabeled marks a lesson link admitted by its URL shape alone, with no
	// lesson label leading to it. Label then holds the anchor text.
	Unlabeled bool `json:"unlabeled,omitempty"`
}

// PageSnapshot is the serialized DOM of a rendered page at one point in time.
type PageSnapshot struct {
	URL  string
	HTML string
}

// PageCapture is a diagnostic artifact recorded when a node is skipped.
type PageCapture struct {
	URL        string
	HTML       string
	Screenshot []byte // PNG, may be empty
}

// Session describes the reusable credential artifact produced by session bootstrap.
type Session struct {
	Source  string // "storage_state", "profile", "interactive" or "none"
	Path    string
	Cookies int
}

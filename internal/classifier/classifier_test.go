package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lesson-harvester/internal/classifier"
	"github.com/user/lesson-harvester/internal/entity"
)

const (
	base   = "https://learn.example.org/grade/3"
	idA    = "aaaaaaaaaaaaaaaaaaaaaaaa"
	idB    = "bbbbbbbbbbbbbbbbbbbbbbbb"
	idC    = "cccccccccccccccccccccccc"
	idUnit = "0123456789abcdef01234567"
)

func snapshot(markup string) *entity.PageSnapshot {
	return &entity.PageSnapshot{URL: base, HTML: "<html><body>" + markup + "</body></html>"}
}

func urls(nodes []entity.CatalogNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.URL)
	}
	return out
}

func TestClassify_Units(t *testing.T) {
	t.Parallel()

	c := classifier.New(classifier.DefaultOptions())

	t.Run("label and shape are both required", func(t *testing.T) {
		t.Parallel()

		snap := snapshot(`<main>
			<a href="/collection/` + idUnit + `">Unit 3: Multiplication</a>
			<a href="/collection/` + idA + `">Settings</a>
			<a href="/settings">Unit 4</a>
			<a href="/collection/` + idB + `#top"><span>Unit Zero</span></a>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleUnit)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://learn.example.org/collection/" + idUnit,
			"https://learn.example.org/collection/" + idB,
		}, urls(nodes))
		assert.Equal(t, "Unit 3: Multiplication", nodes[0].Label)
		assert.Equal(t, entity.RoleUnit, nodes[0].Role)
	})

	t.Run("duplicate units appear once", func(t *testing.T) {
		t.Parallel()

		snap := snapshot(`<main>
			<a href="/collection/` + idUnit + `">Unit 1</a>
			<a href="https://learn.example.org/collection/` + idUnit + `#x">Unit 1 again</a>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleUnit)
		require.NoError(t, err)
		assert.Len(t, nodes, 1)
	})
}

func TestClassify_Activities(t *testing.T) {
	t.Parallel()

	c := classifier.New(classifier.DefaultOptions())
	snap := snapshot(`<main>
		<a href="/activity/` + idB + `">Second</a>
		<a href="/activity/` + idA + `/">First</a>
		<a href="/activity/not-an-id">Broken</a>
		<a href="mailto:office@example.org">Mail</a>
		<a href="/activity/` + idB + `#notes">Second again</a>
	</main>`)

	nodes, err := c.Classify(snap, entity.RoleActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://learn.example.org/activity/" + idB,
		"https://learn.example.org/activity/" + idA + "/",
	}, urls(nodes))
}

func TestClassify_Lessons(t *testing.T) {
	t.Parallel()

	t.Run("label three levels away from its link", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<main><ul>
			<li class="card">
				<div class="header"><div class="title"><span>Lesson 2: Fractions</span></div></div>
				<div class="actions"><a href="/activity/` + idA + `">Open</a></div>
			</li>
			<li class="card">
				<div class="header"><div class="title"><span>Lesson 3: Decimals</span></div></div>
				<div class="actions"><a href="/activity/` + idB + `">Open</a></div>
			</li>
		</ul></main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		require.Len(t, nodes, 2)
		assert.Equal(t, "https://learn.example.org/activity/"+idA, nodes[0].URL)
		assert.Equal(t, "Lesson 2: Fractions", nodes[0].Label)
		assert.Equal(t, entity.RoleLesson, nodes[0].Role)
		assert.Equal(t, "https://learn.example.org/activity/"+idB, nodes[1].URL)
	})

	t.Run("label inside its own link", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<main>
			<a href="/collection/` + idC + `"><h3>Lesson 1: Place Value</h3></a>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://learn.example.org/collection/" + idC}, urls(nodes))
	})

	t.Run("label beyond the ancestor bound is dropped", func(t *testing.T) {
		t.Parallel()

		opts := classifier.DefaultOptions()
		opts.AncestorDepth = 1
		c := classifier.New(opts)
		snap := snapshot(`<main><div><div><div><span>Lesson 4: Area</span></div></div>
			<a href="/collection/` + idA + `">Open</a></div></main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})

	t.Run("walk stops at the content region", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<nav><a href="/activity/` + idB + `">Elsewhere</a></nav>
			<main><p>Lesson 5: Volume</p></main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})

	t.Run("collection and activity lessons keep document order", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<main>
			<div class="lesson"><h4>Lesson 1: Counting</h4><div><a href="/collection/` + idC + `">Open</a></div></div>
			<div class="lesson"><h4>Lesson 2: Adding</h4><div><a href="/activity/` + idA + `">Open</a></div></div>
			<div class="extra"><a href="/activity/` + idB + `">Bonus</a></div>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://learn.example.org/collection/" + idC,
			"https://learn.example.org/activity/" + idA,
			"https://learn.example.org/activity/" + idB,
		}, urls(nodes))
		assert.Equal(t, "Lesson 1: Counting", nodes[0].Label)
		assert.False(t, nodes[0].Unlabeled)
		assert.Equal(t, "Lesson 2: Adding", nodes[1].Label)
		assert.False(t, nodes[1].Unlabeled)
		assert.Equal(t, "Bonus", nodes[2].Label)
		assert.True(t, nodes[2].Unlabeled)
	})

	t.Run("repeated link is placed at its first occurrence", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<main>
			<nav class="recent"><a href="/collection/` + idC + `">Recently opened</a></nav>
			<div class="lesson"><h4>Lesson 1: Counting</h4><div><a href="/activity/` + idA + `">Open</a></div></div>
			<div class="lesson"><h4>Lesson 2: Adding</h4><div><a href="/collection/` + idC + `">Open</a></div></div>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://learn.example.org/collection/" + idC,
			"https://learn.example.org/activity/" + idA,
		}, urls(nodes))
		assert.Equal(t, "Lesson 2: Adding", nodes[0].Label)
	})

	t.Run("pages without labels use activity links", func(t *testing.T) {
		t.Parallel()

		c := classifier.New(classifier.DefaultOptions())
		snap := snapshot(`<main>
			<a href="/activity/` + idA + `">Warm up</a>
			<a href="/help">Help</a>
			<a href="/activity/` + idB + `">Practice</a>
		</main>`)

		nodes, err := c.Classify(snap, entity.RoleLesson)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://learn.example.org/activity/" + idA,
			"https://learn.example.org/activity/" + idB,
		}, urls(nodes))
		assert.Equal(t, entity.RoleLesson, nodes[1].Role)
		assert.Equal(t, "Practice", nodes[1].Label)
		assert.True(t, nodes[1].Unlabeled)
	})
}

func TestClassify_RegionFallback(t *testing.T) {
	t.Parallel()

	c := classifier.New(classifier.DefaultOptions())
	snap := snapshot(`<div id="app"><a href="/activity/` + idA + `">Only link</a></div>`)

	nodes, err := c.Classify(snap, entity.RoleActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://learn.example.org/activity/" + idA}, urls(nodes))
}

func TestClassify_UnknownRole(t *testing.T) {
	t.Parallel()

	c := classifier.New(classifier.DefaultOptions())
	_, err := c.Classify(snapshot(""), entity.RoleGrade)
	require.Error(t, err)
}

func TestShape_Match(t *testing.T) {
	t.Parallel()

	shape := classifier.MustShape(`(?i)^/activity/[0-9a-f]{24}(?:/|$)`)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.org/activity/" + idA, true},
		{"https://x.org/activity/" + idA + "/preview", true},
		{"http://x.org/ACTIVITY/" + idA, true},
		{"https://x.org/activity/" + idA + "0", false},
		{"https://x.org/lesson/activity/" + idA, false},
		{"/activity/" + idA, false},
		{"ftp://x.org/activity/" + idA, false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shape.Match(tt.url), tt.url)
	}

	_, err := classifier.NewShape("(")
	require.Error(t, err)
}

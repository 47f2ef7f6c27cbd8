package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/lesson-harvester/pkg/utils"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"drops fragment", "https://x/page", "https://x/a#frag", "https://x/a"},
		{"absolute without fragment unchanged", "https://x/page", "https://x/a", "https://x/a"},
		{"parent relative", "https://x/page", "../b", "https://x/b"},
		{"sibling relative", "https://x/dir/page", "other", "https://x/dir/other"},
		{"root relative", "https://x/dir/page", "/activity/1", "https://x/activity/1"},
		{"keeps query verbatim", "https://x/page", "/collection/1?collections=abc&checkLogin=true#top", "https://x/collection/1?collections=abc&checkLogin=true"},
		{"empty href", "https://x/page", "", ""},
		{"whitespace href", "https://x/page", "   ", ""},
		{"unparsable href", "https://x/page", "http://[::1", ""},
		{"javascript href", "https://x/page", "javascript:void(0)", ""},
		{"mailto href", "https://x/page", "mailto:someone@example.com", ""},
		{"relative against bad base", "not a url", "../b", ""},
		{"absolute href ignores bad base", "", "https://x/a#b", "https://x/a"},
		{"fragment only resolves to page", "https://x/page", "#section", "https://x/page"},
	}

	for i := range tests {
		tt := &tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.NormalizeURL(tt.base, tt.href))
		})
	}
}

func TestNormalizeURL_FragmentEquivalence(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		utils.NormalizeURL("https://x/", "https://x/a"),
		utils.NormalizeURL("https://x/", "https://x/a#frag"),
	)
}

func TestHashURL(t *testing.T) {
	t.Parallel()

	a := utils.HashURL("https://x/a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, utils.HashURL("https://x/a"))
	assert.NotEqual(t, a, utils.HashURL("https://x/b"))
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://classroom.example.com", utils.Origin("https://classroom.example.com/collection/1?x=y"))
	assert.Empty(t, utils.Origin("/relative/path"))
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "line one line two", utils.CleanText("  line one\n\n line two  "))
	assert.Equal(t, "", utils.CleanText(" \t\n "))
	assert.Equal(t, "a b", utils.CleanText("a \tb"))
}

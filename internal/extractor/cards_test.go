package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/extractor"
	"github.com/user/lesson-harvester/internal/repository"
)

const activityURL = "https://learn.example.org/activity/aaaaaaaaaaaaaaaaaaaaaaaa"

func card(step, section, body string) string {
	html := `<div class="alp-preview-miniscreen"><div class="step-index"><span>` + step + `</span></div>`
	if section != "" {
		html += `<div class="section-name-text"><span>` + section + `</span></div>`
	}
	if body != "" {
		html += `<div class="k5-note"><div class="ProseMirror">` + body + `</div></div>`
	}
	return html + `</div>`
}

func TestCardExtractor_Extract(t *testing.T) {
	t.Parallel()

	ex := extractor.New(extractor.DefaultSelectors())

	t.Run("cards in document order with normalized text", func(t *testing.T) {
		t.Parallel()

		snap := &entity.PageSnapshot{
			URL: activityURL,
			HTML: `<html><head><title>ignored</title></head><body>
				<div class="activity-title"><h1>  Lesson 2:
					Fractions </h1></div>` +
				card("1", "Warm Up", "  line one\n\n line two  ") +
				card(" 2 ", "", "<p>Say:</p><p>Halves are equal parts.</p>") +
				card("3", "Closing", "") +
				`</body></html>`,
		}

		cards, err := ex.Extract(snap)
		require.NoError(t, err)
		require.Len(t, cards, 3)

		assert.Equal(t, entity.ContentCard{
			SourceURL:   activityURL,
			LessonTitle: "Lesson 2: Fractions",
			Step:        "1",
			Section:     "Warm Up",
			BodyText:    "line one line two",
			Position:    0,
		}, cards[0])
		assert.Equal(t, "2", cards[1].Step)
		assert.Empty(t, cards[1].Section)
		assert.Equal(t, "Say: Halves are equal parts.", cards[1].BodyText)
		assert.Equal(t, 1, cards[1].Position)
		assert.Equal(t, "Closing", cards[2].Section)
		assert.Empty(t, cards[2].BodyText)
	})

	t.Run("blank container is a valid empty record", func(t *testing.T) {
		t.Parallel()

		snap := &entity.PageSnapshot{URL: activityURL, HTML: `<div class="alp-preview-miniscreen"></div>`}

		cards, err := ex.Extract(snap)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Empty(t, cards[0].Step)
		assert.Empty(t, cards[0].BodyText)
	})

	t.Run("title falls back to the document title", func(t *testing.T) {
		t.Parallel()

		snap := &entity.PageSnapshot{
			URL:  activityURL,
			HTML: `<html><head><title>Lesson 7: Area</title></head><body>` + card("1", "", "x") + `</body></html>`,
		}

		cards, err := ex.Extract(snap)
		require.NoError(t, err)
		assert.Equal(t, "Lesson 7: Area", cards[0].LessonTitle)
	})

	t.Run("no containers is a structure error", func(t *testing.T) {
		t.Parallel()

		snap := &entity.PageSnapshot{URL: activityURL, HTML: `<main><p>Loading…</p></main>`}

		cards, err := ex.Extract(snap)
		require.ErrorIs(t, err, repository.ErrStructureNotFound)
		assert.Nil(t, cards)
	})
}

func TestCardExtractor_ReadySelector(t *testing.T) {
	t.Parallel()

	sel := extractor.DefaultSelectors()
	sel.Ready = ".ready"
	assert.Equal(t, ".ready", extractor.New(sel).ReadySelector())
}
